package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sourav8908/FLEX-QC-APP/internal/model"
)

// ReportRepo provides access to the reports table. The collection is
// append-only: reports are written exactly once at submission and
// never modified afterwards. Checkpoint snapshots travel as a single
// JSON column so a report write stays a single-record operation.
type ReportRepo struct{ DB *sql.DB }

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{DB: db} }

// Create appends a report.
func (r *ReportRepo) Create(ctx context.Context, report model.QCReport) error {
	checkpoints, err := json.Marshal(report.Checkpoints)
	if err != nil {
		return fmt.Errorf("encoding checkpoints: %w", err)
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO reports (id, submitted_at, stage, user_id, device_id, checkpoints) VALUES (?,?,?,?,?,?)",
		report.ID, report.Timestamp, string(report.Stage), report.UserID, report.DeviceID, checkpoints)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	return nil
}

// ListAll returns every report in submission order.
func (r *ReportRepo) ListAll(ctx context.Context) ([]model.QCReport, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, submitted_at, stage, user_id, device_id, checkpoints FROM reports ORDER BY submitted_at, id")
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var reports []model.QCReport
	for rows.Next() {
		var rep model.QCReport
		var stage string
		var checkpoints []byte
		if err := rows.Scan(&rep.ID, &rep.Timestamp, &stage, &rep.UserID, &rep.DeviceID, &checkpoints); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		rep.Stage = model.Stage(stage)
		if err := json.Unmarshal(checkpoints, &rep.Checkpoints); err != nil {
			return nil, fmt.Errorf("decoding checkpoints for %s: %w", rep.ID, err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}
