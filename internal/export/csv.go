// Package export renders the submitted-report history as a CSV
// download for the admin console.
//
// The file contract is fixed: the columns are Report ID, Timestamp,
// Stage, User ID, Device ID and Checkpoints Summary; every field is
// double-quoted with internal quotes doubled; the summary column joins
// one "label: status" fragment per checkpoint, with "(Reason: ...)"
// appended only on failures, using a literal " | " separator.
// encoding/csv is deliberately not used because it only quotes fields
// when necessary and cannot express the force-quoting rule.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sourav8908/FLEX-QC-APP/internal/model"
)

var header = []string{"Report ID", "Timestamp", "Stage", "User ID", "Device ID", "Checkpoints Summary"}

// Filename returns the export file name for the given day:
// Flex_QC_Export_<ISO-date>.csv.
func Filename(now time.Time) string {
	return "Flex_QC_Export_" + now.UTC().Format("2006-01-02") + ".csv"
}

// Quote wraps a value in double quotes, doubling any internal quotes.
// Quoting is idempotent on values that contain no quote characters.
func Quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// Summary renders the checkpoint summary column for one report.
func Summary(checkpoints []model.CheckpointResult) string {
	parts := make([]string, 0, len(checkpoints))
	for _, cp := range checkpoints {
		frag := cp.Label + ": " + statusText(cp.Status)
		if cp.Status == model.CheckpointFail {
			frag += " (Reason: " + cp.Reason + ")"
		}
		parts = append(parts, frag)
	}
	return strings.Join(parts, " | ")
}

func statusText(s model.CheckpointStatus) string {
	switch s {
	case model.CheckpointPass:
		return "Pass"
	case model.CheckpointFail:
		return "Fail"
	}
	return ""
}

// Write streams the full CSV document (header row plus one row per
// report) to w.
func Write(w io.Writer, reports []model.QCReport) error {
	if err := writeRow(w, header); err != nil {
		return err
	}
	for _, r := range reports {
		row := []string{
			r.ID,
			r.Timestamp.UTC().Format(time.RFC3339),
			string(r.Stage),
			r.UserID,
			r.DeviceID,
			Summary(r.Checkpoints),
		}
		if err := writeRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = Quote(f)
	}
	_, err := fmt.Fprintln(w, strings.Join(quoted, ","))
	return err
}
