package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sourav8908/FLEX-QC-APP/internal/model"
)

// DeviceStatusRepo provides access to the device_statuses table, one
// row per device keyed by device id. Writes are last-writer-wins over
// the whole row; there is no locking discipline.
type DeviceStatusRepo struct{ DB *sql.DB }

func NewDeviceStatusRepo(db *sql.DB) *DeviceStatusRepo { return &DeviceStatusRepo{DB: db} }

// Get fetches the status row for a device. A device with no prior
// submissions is (nil, nil).
func (r *DeviceStatusRepo) Get(ctx context.Context, deviceID string) (*model.DeviceStatus, error) {
	var s model.DeviceStatus
	var fqc, pkg string
	err := r.DB.QueryRowContext(ctx,
		"SELECT device_id, fqc_status, packaging_status, last_updated FROM device_statuses WHERE device_id=? LIMIT 1",
		deviceID,
	).Scan(&s.DeviceID, &fqc, &pkg, &s.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting device status: %w", err)
	}
	s.FQCStatus = model.StageStatus(fqc)
	s.PackagingStatus = model.StageStatus(pkg)
	return &s, nil
}

// Upsert writes the full status row, creating it when absent.
func (r *DeviceStatusRepo) Upsert(ctx context.Context, s model.DeviceStatus) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO device_statuses (device_id, fqc_status, packaging_status, last_updated)
		 VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE fqc_status=VALUES(fqc_status),
		   packaging_status=VALUES(packaging_status), last_updated=VALUES(last_updated)`,
		s.DeviceID, string(s.FQCStatus), string(s.PackagingStatus), s.LastUpdated)
	if err != nil {
		return fmt.Errorf("upserting device status: %w", err)
	}
	return nil
}

// ListAll returns every device status row.
func (r *DeviceStatusRepo) ListAll(ctx context.Context) ([]model.DeviceStatus, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT device_id, fqc_status, packaging_status, last_updated FROM device_statuses")
	if err != nil {
		return nil, fmt.Errorf("listing device statuses: %w", err)
	}
	defer rows.Close()

	var statuses []model.DeviceStatus
	for rows.Next() {
		var s model.DeviceStatus
		var fqc, pkg string
		if err := rows.Scan(&s.DeviceID, &fqc, &pkg, &s.LastUpdated); err != nil {
			return nil, fmt.Errorf("scanning device status: %w", err)
		}
		s.FQCStatus = model.StageStatus(fqc)
		s.PackagingStatus = model.StageStatus(pkg)
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}
