package model

// CheckpointStatus is the recorded outcome of a single checkpoint.
// The zero value means the operator has not marked the checkpoint yet.
type CheckpointStatus string

const (
	CheckpointPass  CheckpointStatus = "PASS"
	CheckpointFail  CheckpointStatus = "FAIL"
	CheckpointUnset CheckpointStatus = ""
)

// CheckpointResult is one inspectable criterion inside an inspection
// session's checklist. Entries are materialized from a stage template
// when a device session starts; operators may also add ad-hoc entries
// (their ids carry a "custom-" prefix). The struct only lives for the
// duration of one session; at submission it is snapshotted into the
// report and the working list is discarded.
//
// Fields:
//  ID     – template id ("fqc-01", "pkg-03", ...) or "custom-<uuid>".
//  Label  – human readable criterion.
//  Status – PASS, FAIL or unset.
//  Image  – encoded photo evidence; empty means none captured yet.
//  Reason – written failure reason; required when Status is FAIL.
type CheckpointResult struct {
	ID     string           `json:"id"`
	Label  string           `json:"label"`
	Status CheckpointStatus `json:"status"`
	Image  string           `json:"image"`
	Reason string           `json:"reason"`
}
