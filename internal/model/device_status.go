package model

import "time"

// StageStatus is the per-stage completion outcome recorded for a
// device. PENDING means no report has been submitted for that stage.
type StageStatus string

const (
	StagePending   StageStatus = "PENDING"
	StageCompleted StageStatus = "COMPLETED"
	StageFailed    StageStatus = "FAILED"
)

// DeviceStatus tracks a device's progression through the two
// inspection stages and gates entry into Packaging: a device may only
// enter Packaging once FQCStatus is COMPLETED. The row is created
// lazily on the first report submission for a device and updated in
// place on every subsequent one; the two stage fields are independent
// and updating one never resets the other.
//
// Fields:
//  DeviceID        – primary key, the scanned or typed identifier.
//  FQCStatus       – outcome of the FQC stage.
//  PackagingStatus – outcome of the Packaging stage.
//  LastUpdated     – bumped on every submission for the device.
type DeviceStatus struct {
	DeviceID        string      `json:"device_id"`
	FQCStatus       StageStatus `json:"fqc_status"`
	PackagingStatus StageStatus `json:"packaging_status"`
	LastUpdated     time.Time   `json:"last_updated"`
}

// StatusFor returns the recorded outcome for the given stage.
func (d DeviceStatus) StatusFor(stage Stage) StageStatus {
	if stage == StagePackaging {
		return d.PackagingStatus
	}
	return d.FQCStatus
}
