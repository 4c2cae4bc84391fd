package model

import (
	"fmt"
	"time"
)

// QCReport is the immutable record of one completed inspection
// session. A report is created exactly once at successful submission
// and is append-only in the `reports` table; the checkpoint snapshots
// are stored alongside it as a single JSON blob.
//
// Fields:
//  ID          – unique, time-derived identifier ("QCR-<unix-millis>").
//  Timestamp   – submission time (UTC).
//  Stage       – stage the inspection was performed for.
//  UserID      – operator who submitted.
//  DeviceID    – device that was inspected.
//  Checkpoints – ordered checkpoint snapshots, template entries first
//                in template order, ad-hoc entries after.
type QCReport struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Stage       Stage              `json:"stage"`
	UserID      string             `json:"user_id"`
	DeviceID    string             `json:"device_id"`
	Checkpoints []CheckpointResult `json:"checkpoints"`
}

// NewReportID derives a report identifier from the submission time.
func NewReportID(ts time.Time) string {
	return fmt.Sprintf("QCR-%d", ts.UnixMilli())
}
