// Package analytics derives the admin dashboard figures from the
// report and device-status collections. Everything here is computed on
// read and never persisted.
package analytics

import (
	"sort"
	"time"

	"github.com/sourav8908/FLEX-QC-APP/internal/model"
)

// deviceStatusDisplayLimit caps the dashboard's device table to the
// most recently updated rows.
const deviceStatusDisplayLimit = 10

// topFailingLimit caps the failing-checkpoint ranking.
const topFailingLimit = 5

// LabelCount pairs a checkpoint label with its failure frequency.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// OperatorCount pairs an operator id with their submission count.
type OperatorCount struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}

// Dashboard aggregates productivity and failure analytics over all
// submitted reports plus the current device-status table.
type Dashboard struct {
	TotalReports    int                  `json:"total_reports"`
	TodayReports    int                  `json:"today_reports"`
	FQCReports      int                  `json:"fqc_reports"`
	PackagingReport int                  `json:"packaging_reports"`
	PassCheckpoints int                  `json:"pass_checkpoints"`
	FailCheckpoints int                  `json:"fail_checkpoints"`
	TopFailing      []LabelCount         `json:"top_failing"`
	Operators       []OperatorCount      `json:"operators"`
	DeviceStatuses  []model.DeviceStatus `json:"device_statuses"`
}

// Build computes the dashboard for the given report history and device
// statuses. "Today" is calendar-day equality against now in UTC. The
// top-failing ranking breaks count ties by first-encountered order
// across the report sequence, and the device table is sorted most
// recently updated first and capped for display.
func Build(reports []model.QCReport, statuses []model.DeviceStatus, now time.Time) Dashboard {
	d := Dashboard{TotalReports: len(reports)}

	today := now.UTC()
	ty, tm, td := today.Date()

	failCounts := make(map[string]int)
	failOrder := make(map[string]int) // label -> first-encountered index
	operatorCounts := make(map[string]int)
	var operatorOrder []string

	for _, r := range reports {
		y, m, day := r.Timestamp.UTC().Date()
		if y == ty && m == tm && day == td {
			d.TodayReports++
		}
		switch r.Stage {
		case model.StageFQC:
			d.FQCReports++
		case model.StagePackaging:
			d.PackagingReport++
		}
		if _, seen := operatorCounts[r.UserID]; !seen {
			operatorOrder = append(operatorOrder, r.UserID)
		}
		operatorCounts[r.UserID]++

		for _, cp := range r.Checkpoints {
			switch cp.Status {
			case model.CheckpointPass:
				d.PassCheckpoints++
			case model.CheckpointFail:
				d.FailCheckpoints++
				if _, seen := failOrder[cp.Label]; !seen {
					failOrder[cp.Label] = len(failOrder)
				}
				failCounts[cp.Label]++
			}
		}
	}

	d.TopFailing = topFailing(failCounts, failOrder)

	d.Operators = make([]OperatorCount, 0, len(operatorOrder))
	for _, id := range operatorOrder {
		d.Operators = append(d.Operators, OperatorCount{UserID: id, Count: operatorCounts[id]})
	}

	d.DeviceStatuses = recentStatuses(statuses)
	return d
}

func topFailing(counts map[string]int, order map[string]int) []LabelCount {
	ranked := make([]LabelCount, 0, len(counts))
	for label, n := range counts {
		ranked = append(ranked, LabelCount{Label: label, Count: n})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return order[ranked[i].Label] < order[ranked[j].Label]
	})
	if len(ranked) > topFailingLimit {
		ranked = ranked[:topFailingLimit]
	}
	return ranked
}

func recentStatuses(statuses []model.DeviceStatus) []model.DeviceStatus {
	out := make([]model.DeviceStatus, len(statuses))
	copy(out, statuses)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	if len(out) > deviceStatusDisplayLimit {
		out = out[:deviceStatusDisplayLimit]
	}
	return out
}
