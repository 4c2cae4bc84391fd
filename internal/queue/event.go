// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/sourav8908/FLEX-QC-APP/internal/model"
)

// ReportSubmittedEvent is published after an inspection report has
// been durably stored. It carries enough information for downstream
// consumers to log, notify, or feed analytics without querying the
// primary database.
type ReportSubmittedEvent struct {
	ReportID        string `json:"report_id"`
	Stage           string `json:"stage"`
	UserID          string `json:"user_id"`
	DeviceID        string `json:"device_id"`
	Outcome         string `json:"outcome"` // COMPLETED or FAILED
	CheckpointCount int    `json:"checkpoint_count"`
	FailedCount     int    `json:"failed_count"`
	SubmittedAt     string `json:"submitted_at"`
}

// NewReportSubmittedEvent builds the event payload for a stored report.
func NewReportSubmittedEvent(report model.QCReport, anyFailed bool) ReportSubmittedEvent {
	failed := 0
	for _, cp := range report.Checkpoints {
		if cp.Status == model.CheckpointFail {
			failed++
		}
	}
	outcome := string(model.StageCompleted)
	if anyFailed {
		outcome = string(model.StageFailed)
	}
	return ReportSubmittedEvent{
		ReportID:        report.ID,
		Stage:           string(report.Stage),
		UserID:          report.UserID,
		DeviceID:        report.DeviceID,
		Outcome:         outcome,
		CheckpointCount: len(report.Checkpoints),
		FailedCount:     failed,
		SubmittedAt:     report.Timestamp.Format(time.RFC3339),
	}
}
