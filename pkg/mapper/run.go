package mapper

import (
	"fmt"
	"strings"

	"github.com/dkoosis/testrules/internal/discovery"
	"github.com/dkoosis/testrules/internal/summary"
	"github.com/dkoosis/testrules/pkg/pattern"
)

// Section labels. internal/report parses the summary back by these.
const (
	LabelDiscovery = "Module Discovery"
	LabelWarnings  = "Discovery Warnings"
	LabelSummary   = "Test Summary"
	LabelResults   = "Detailed Results"
	LabelFailures  = "Failure Details"
	LabelTiming    = "Timing Breakdown"
)

// FromDiscovery counts the modules a selector reached: how many were
// tried, how many loaded, how many failed, and the methods they yielded.
// Orphan suites are warnings but not failed modules.
func FromDiscovery(res *discovery.Result) *pattern.Summary {
	failed := 0
	for _, w := range res.Warnings {
		if w.Kind == discovery.WarnLoad || w.Kind == discovery.WarnNotFound {
			failed++
		}
	}
	loaded := len(res.Modules)
	return &pattern.Summary{
		Label: LabelDiscovery,
		Kind:  pattern.SummaryKindDiscovery,
		Metrics: []pattern.SummaryItem{
			{Label: "Modules processed", Value: fmt.Sprintf("%d", loaded+failed), Kind: "info"},
			{Label: "Modules loaded", Value: fmt.Sprintf("%d", loaded), Kind: "success"},
			{Label: "Modules failed", Value: fmt.Sprintf("%d", failed), Kind: countKind(failed, "warning")},
			{Label: "Test methods", Value: fmt.Sprintf("%d", len(res.Methods)), Kind: "info"},
		},
	}
}

// FromRun converts a run into: discovery warnings (when any), the
// summary, one row per method in execution order, and failure details
// (when any).
func FromRun(s summary.RunSummary, warnings []discovery.Warning) []pattern.Pattern {
	var patterns []pattern.Pattern
	if t := warningTable(warnings); t != nil {
		patterns = append(patterns, t)
	}
	patterns = append(patterns, runSummary(s))
	if t := resultTable(s); t != nil {
		patterns = append(patterns, t)
	}
	if t := failureTable(s); t != nil {
		patterns = append(patterns, t)
	}
	return patterns
}

func warningTable(warnings []discovery.Warning) *pattern.TestTable {
	if len(warnings) == 0 {
		return nil
	}
	items := make([]pattern.TestTableItem, len(warnings))
	for i, w := range warnings {
		items[i] = pattern.TestTableItem{
			Name:    w.Module,
			Status:  statusWarn,
			Details: w.Message,
		}
	}
	return &pattern.TestTable{Label: LabelWarnings, Results: items}
}

func runSummary(s summary.RunSummary) *pattern.Summary {
	failedOnly := s.Failed - s.Errored
	rateKind := "success"
	if !s.OK() {
		rateKind = "error"
	}
	return &pattern.Summary{
		Label: LabelSummary,
		Kind:  pattern.SummaryKindTest,
		Metrics: []pattern.SummaryItem{
			{Label: "Passed", Value: fmt.Sprintf("%d", s.Passed), Kind: "success"},
			{Label: "Failed", Value: fmt.Sprintf("%d", failedOnly), Kind: countKind(failedOnly, "error")},
			{Label: "Errors", Value: fmt.Sprintf("%d", s.Errored), Kind: countKind(s.Errored, "error")},
			{Label: "Total", Value: fmt.Sprintf("%d", s.Total), Kind: "info"},
			{Label: "Success Rate", Value: fmt.Sprintf("%.2f%%", s.SuccessRate), Kind: rateKind},
			{Label: "Execution Time", Value: formatDuration(s.Duration), Kind: "info"},
		},
	}
}

func resultTable(s summary.RunSummary) *pattern.TestTable {
	if len(s.Outcomes) == 0 {
		return nil
	}
	items := make([]pattern.TestTableItem, len(s.Outcomes))
	for i, o := range s.Outcomes {
		items[i] = pattern.TestTableItem{
			Name:     o.Method.FullName(),
			Status:   outcomeStatus(o.Status),
			Duration: formatDuration(o.Duration),
		}
	}
	return &pattern.TestTable{Label: LabelResults, Results: items}
}

func failureTable(s summary.RunSummary) *pattern.TestTable {
	failed := s.FailedOutcomes()
	if len(failed) == 0 {
		return nil
	}
	items := make([]pattern.TestTableItem, len(failed))
	for i, o := range failed {
		details := o.Summary
		if trace := strings.TrimRight(o.Trace, "\n"); trace != "" {
			details += "\n" + truncateLines(strings.Split(trace, "\n"), maxTraceLines)
		}
		items[i] = pattern.TestTableItem{
			Name:    o.Method.FullName(),
			Status:  outcomeStatus(o.Status),
			Details: strings.TrimPrefix(details, "\n"),
		}
	}
	return &pattern.TestTable{Label: LabelFailures, Results: items}
}

func outcomeStatus(s summary.Status) string {
	switch s {
	case summary.StatusPassed:
		return statusPass
	case summary.StatusFailed:
		return statusFail
	default:
		return statusError
	}
}

// FromTiming ranks the n slowest methods. It returns nil for an empty run.
func FromTiming(s summary.RunSummary, n int) *pattern.Leaderboard {
	slowest := s.Slowest(n)
	if len(slowest) == 0 {
		return nil
	}
	items := make([]pattern.LeaderboardItem, len(slowest))
	for i, o := range slowest {
		items[i] = pattern.LeaderboardItem{
			Name:    truncateString(o.Method.FullName(), 70),
			Metric:  formatDuration(o.Duration),
			Value:   o.Duration.Seconds(),
			Rank:    i + 1,
			Context: o.Method.Module,
		}
	}
	return &pattern.Leaderboard{
		Label:      LabelTiming,
		MetricName: "Duration",
		Items:      items,
		TotalCount: len(s.Outcomes),
		ShowRank:   true,
	}
}
