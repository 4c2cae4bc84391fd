package export

import (
	"strings"
	"testing"
	"time"

	"github.com/sourav8908/FLEX-QC-APP/internal/model"
)

func TestFilename(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	if got := Filename(now); got != "Flex_QC_Export_2026-03-14.csv" {
		t.Errorf("Filename = %q", got)
	}
}

func TestQuote(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`plain`, `"plain"`},
		{``, `""`},
		{`He said "hi"`, `"He said ""hi"""`},
		{`a,b`, `"a,b"`},
	}
	for _, tc := range cases {
		if got := Quote(tc.in); got != tc.want {
			t.Errorf("Quote(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestSummary(t *testing.T) {
	cps := []model.CheckpointResult{
		{Label: "Display panel free of defects", Status: model.CheckpointPass, Image: "img"},
		{Label: "Battery charges and holds level", Status: model.CheckpointFail, Image: "img", Reason: "Drains overnight"},
	}
	want := "Display panel free of defects: Pass | Battery charges and holds level: Fail (Reason: Drains overnight)"
	if got := Summary(cps); got != want {
		t.Errorf("Summary = %q\nwant      %q", got, want)
	}
	if got := Summary(nil); got != "" {
		t.Errorf("empty summary = %q", got)
	}
}

func TestWrite(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	reports := []model.QCReport{
		{
			ID:        model.NewReportID(ts),
			Timestamp: ts,
			Stage:     model.StageFQC,
			UserID:    "op1",
			DeviceID:  "DEV-42",
			Checkpoints: []model.CheckpointResult{
				{Label: "Housing free of physical damage", Status: model.CheckpointFail, Image: "img", Reason: `Dent marked "minor"`},
			},
		},
	}

	var b strings.Builder
	if err := Write(&b, reports); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != `"Report ID","Timestamp","Stage","User ID","Device ID","Checkpoints Summary"` {
		t.Errorf("header = %s", lines[0])
	}
	row := lines[1]
	for _, want := range []string{
		`"` + reports[0].ID + `"`,
		`"2026-03-14T09:30:00Z"`,
		`"FQC"`,
		`"op1"`,
		`"DEV-42"`,
		`Dent marked ""minor""`,
	} {
		if !strings.Contains(row, want) {
			t.Errorf("row missing %s:\n%s", want, row)
		}
	}
	// Every field is quoted, so the row must both start and end with a
	// quote and contain exactly five separators between quoted fields.
	if !strings.HasPrefix(row, `"`) || !strings.HasSuffix(row, `"`) {
		t.Errorf("row not fully quoted: %s", row)
	}
	if got := strings.Count(row, `","`); got != 5 {
		t.Errorf("row has %d field separators, want 5", got)
	}
}

func TestWriteEmptyHistory(t *testing.T) {
	var b strings.Builder
	if err := Write(&b, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := strings.Count(b.String(), "\n"); got != 1 {
		t.Errorf("empty export has %d lines, want header only", got)
	}
}
