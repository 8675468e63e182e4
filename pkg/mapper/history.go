package mapper

import (
	"fmt"

	"github.com/dkoosis/testrules/internal/history"
	"github.com/dkoosis/testrules/internal/summary"
	"github.com/dkoosis/testrules/pkg/pattern"
)

// FromHistory renders stored runs, newest first as returned by
// history.Store.Recent, as trend sparklines plus a comparison of the two
// most recent runs.
func FromHistory(runs []history.Run) []pattern.Pattern {
	if len(runs) == 0 {
		return nil
	}
	rates := make([]float64, len(runs))
	durations := make([]float64, len(runs))
	for i, r := range runs {
		// oldest on the left
		j := len(runs) - 1 - i
		rates[j] = r.SuccessRate
		durations[j] = r.Duration.Seconds()
	}
	patterns := []pattern.Pattern{
		&pattern.Sparkline{Label: "Success Rate", Values: rates, Min: 0, Max: 100, Unit: "%"},
		&pattern.Sparkline{Label: "Execution Time", Values: durations, Unit: "s"},
	}
	if c := compareLatest(runs); c != nil {
		patterns = append(patterns, c)
	}
	return patterns
}

func compareLatest(runs []history.Run) *pattern.Comparison {
	if len(runs) < 2 {
		return nil
	}
	cur, prev := runs[0], runs[1]
	changes := []pattern.ComparisonItem{
		{
			Label:  "Success Rate",
			Before: fmt.Sprintf("%.2f%%", prev.SuccessRate),
			After:  fmt.Sprintf("%.2f%%", cur.SuccessRate),
			Change: cur.SuccessRate - prev.SuccessRate,
			Unit:   "%",
		},
		{
			Label:  "Total",
			Before: fmt.Sprintf("%d", prev.Total),
			After:  fmt.Sprintf("%d", cur.Total),
			Change: float64(cur.Total - prev.Total),
		},
		{
			Label:  "Execution Time",
			Before: formatDuration(prev.Duration),
			After:  formatDuration(cur.Duration),
			Change: (cur.Duration - prev.Duration).Seconds(),
			Unit:   "s",
		},
	}
	if cur.Coverage >= 0 && prev.Coverage >= 0 {
		changes = append(changes, pattern.ComparisonItem{
			Label:  "Coverage",
			Before: fmt.Sprintf("%.1f%%", prev.Coverage),
			After:  fmt.Sprintf("%.1f%%", cur.Coverage),
			Change: cur.Coverage - prev.Coverage,
			Unit:   "%",
		})
	}
	return &pattern.Comparison{Label: "Since Previous Run", Changes: changes}
}

// NewlyFailing lists methods that passed in the previous run and did not
// pass in s. It returns nil when there are none.
func NewlyFailing(previous map[string]summary.Status, s summary.RunSummary) *pattern.TestTable {
	var items []pattern.TestTableItem
	for _, o := range s.FailedOutcomes() {
		name := o.Method.FullName()
		if previous[name] != summary.StatusPassed {
			continue
		}
		items = append(items, pattern.TestTableItem{
			Name:    name,
			Status:  outcomeStatus(o.Status),
			Details: o.Summary,
		})
	}
	if len(items) == 0 {
		return nil
	}
	return &pattern.TestTable{Label: "Newly Failing", Results: items}
}

// RunTable lists stored runs, newest first, one row per run.
func RunTable(runs []history.Run) *pattern.TestTable {
	if len(runs) == 0 {
		return nil
	}
	items := make([]pattern.TestTableItem, len(runs))
	for i, r := range runs {
		status := statusPass
		if r.Failed > 0 {
			status = statusFail
		}
		details := fmt.Sprintf("%d/%d passed, %.2f%%", r.Passed, r.Total, r.SuccessRate)
		if r.Errored > 0 {
			details += fmt.Sprintf(", %d errors", r.Errored)
		}
		if r.Coverage >= 0 {
			details += fmt.Sprintf(", coverage %.1f%%", r.Coverage)
		}
		items[i] = pattern.TestTableItem{
			Name:     r.StartedAt.Local().Format("2006-01-02 15:04:05") + " " + r.Selector,
			Status:   status,
			Duration: formatDuration(r.Duration),
			Details:  details,
		}
	}
	return &pattern.TestTable{Label: "Recent Runs", Results: items}
}
