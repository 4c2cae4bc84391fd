package workflow

import (
	"strings"

	"github.com/sourav8908/FLEX-QC-APP/internal/model"
)

// CanSubmit reports whether a report may be created from the current
// checkpoint list. Every checkpoint must carry a status and a photo,
// and failed checkpoints must carry a non-blank reason. The check runs
// once, at submit time, over the full list (ad-hoc additions and
// removals included), and a false result is a hard local rejection:
// nothing is written to any store.
func CanSubmit(list []model.CheckpointResult) bool {
	for _, cp := range list {
		if cp.Status == model.CheckpointUnset {
			return false
		}
		if cp.Image == "" {
			return false
		}
		if cp.Status == model.CheckpointFail && strings.TrimSpace(cp.Reason) == "" {
			return false
		}
	}
	return true
}

// AnyFailed reports whether at least one checkpoint in the list is
// marked FAIL. Used to decide the device's stage outcome.
func AnyFailed(list []model.CheckpointResult) bool {
	for _, cp := range list {
		if cp.Status == model.CheckpointFail {
			return true
		}
	}
	return false
}
