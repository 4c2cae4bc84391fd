package workflow

import (
	"github.com/google/uuid"

	"github.com/sourav8908/FLEX-QC-APP/internal/model"
)

// Per-stage checkpoint templates. The two label sets are disjoint so a
// report's checkpoints always identify their stage unambiguously.
var fqcTemplate = []model.CheckpointResult{
	{ID: "fqc-01", Label: "Display panel free of defects"},
	{ID: "fqc-02", Label: "Touch input responsive across screen"},
	{ID: "fqc-03", Label: "Front and rear cameras functional"},
	{ID: "fqc-04", Label: "Speaker and microphone audio clear"},
	{ID: "fqc-05", Label: "Battery charges and holds level"},
	{ID: "fqc-06", Label: "Buttons and ports operate correctly"},
	{ID: "fqc-07", Label: "Housing free of physical damage"},
}

var packagingTemplate = []model.CheckpointResult{
	{ID: "pkg-01", Label: "Box undamaged and clean"},
	{ID: "pkg-02", Label: "All accessories present"},
	{ID: "pkg-03", Label: "Protective film applied"},
	{ID: "pkg-04", Label: "Serial on label matches device"},
	{ID: "pkg-05", Label: "Quick-start guide included"},
	{ID: "pkg-06", Label: "Box seal applied"},
}

// customIDPrefix marks operator-added checkpoints. Provenance is only
// informational: the validator treats template and ad-hoc entries
// identically.
const customIDPrefix = "custom-"

// BuildChecklist materializes a fresh, mutable checkpoint list for the
// given stage. Every entry starts with an unset status, no image and
// an empty reason; callers own the returned slice.
func BuildChecklist(stage model.Stage) []model.CheckpointResult {
	tpl := fqcTemplate
	if stage == model.StagePackaging {
		tpl = packagingTemplate
	}
	list := make([]model.CheckpointResult, len(tpl))
	for i, cp := range tpl {
		list[i] = model.CheckpointResult{ID: cp.ID, Label: cp.Label}
	}
	return list
}

// AddCheckpoint appends an ad-hoc checkpoint with a fresh unique id
// and returns the new list together with the created entry.
func AddCheckpoint(list []model.CheckpointResult, label string) ([]model.CheckpointResult, model.CheckpointResult) {
	cp := model.CheckpointResult{
		ID:    customIDPrefix + uuid.NewString(),
		Label: label,
	}
	out := make([]model.CheckpointResult, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, cp)
	return out, cp
}

// RemoveCheckpoint returns a new list without the entry with the given
// id. Any checkpoint, template or ad-hoc, may be removed before
// submission. ErrCheckpointNotFound is returned when the id is absent.
func RemoveCheckpoint(list []model.CheckpointResult, id string) ([]model.CheckpointResult, error) {
	out := make([]model.CheckpointResult, 0, len(list))
	found := false
	for _, cp := range list {
		if cp.ID == id {
			found = true
			continue
		}
		out = append(out, cp)
	}
	if !found {
		return nil, ErrCheckpointNotFound
	}
	return out, nil
}

// CheckpointPatch carries a partial update for one checkpoint. Nil
// fields are left untouched so concurrent collaborator callbacks
// (photo capture, suggested reasons) never clobber each other's
// fields.
type CheckpointPatch struct {
	Status *model.CheckpointStatus `json:"status"`
	Image  *string                 `json:"image"`
	Reason *string                 `json:"reason"`
}

// ApplyPatch returns a new list in which only the checkpoint with the
// given id has the non-nil patch fields replaced. The input list is
// not modified.
func ApplyPatch(list []model.CheckpointResult, id string, patch CheckpointPatch) ([]model.CheckpointResult, error) {
	out := make([]model.CheckpointResult, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		if patch.Status != nil {
			out[i].Status = *patch.Status
		}
		if patch.Image != nil {
			out[i].Image = *patch.Image
		}
		if patch.Reason != nil {
			out[i].Reason = *patch.Reason
		}
		return out, nil
	}
	return nil, ErrCheckpointNotFound
}
