package mapper

import (
	"fmt"
	"path"
	"sort"

	"github.com/dkoosis/testrules/internal/lint"
	"github.com/dkoosis/testrules/pkg/pattern"
)

// FromLint converts a lint run into patterns.
// Returns: Summary + Leaderboard (if >1 file) + TestTable per file, or a
// Summary and an error Notice when the tool is unavailable.
func FromLint(res lint.Result) []pattern.Pattern {
	label := "Lint"
	if res.Tool != "" {
		label += ": " + res.Tool
	}
	if !res.Available {
		patterns := []pattern.Pattern{&pattern.Summary{
			Label: label,
			Kind:  pattern.SummaryKindLint,
			Metrics: []pattern.SummaryItem{
				{Label: "Status", Value: "unavailable", Kind: "warning"},
			},
		}}
		if res.Err != nil {
			patterns = append(patterns, &pattern.Notice{Level: "error", Text: res.Err.Error()})
		}
		return patterns
	}

	groups := groupByFile(res.Violations)
	patterns := []pattern.Pattern{lintSummary(label, res)}
	if lb := lintLeaderboard(groups); lb != nil {
		patterns = append(patterns, lb)
	}
	for _, g := range groups {
		patterns = append(patterns, lintFileTable(g))
	}
	if res.Err != nil {
		patterns = append(patterns, &pattern.Notice{Level: "error", Text: res.Err.Error()})
	}
	if res.OK() {
		patterns = append(patterns, &pattern.Notice{Level: "success", Text: "No style violations found"})
	}
	return patterns
}

type fileGroup struct {
	file       string
	violations []lint.Violation
}

// groupByFile keeps first-seen file order.
func groupByFile(vs []lint.Violation) []fileGroup {
	index := map[string]int{}
	var groups []fileGroup
	for _, v := range vs {
		i, ok := index[v.File]
		if !ok {
			i = len(groups)
			index[v.File] = i
			groups = append(groups, fileGroup{file: v.File})
		}
		groups[i].violations = append(groups[i].violations, v)
	}
	return groups
}

func lintSummary(label string, res lint.Result) *pattern.Summary {
	byLevel := map[string]int{}
	for _, v := range res.Violations {
		byLevel[v.Level]++
	}
	metrics := []pattern.SummaryItem{
		{Label: "Violations", Value: fmt.Sprintf("%d", res.Count()), Kind: countKind(res.Count(), "error")},
	}
	if n := byLevel["error"]; n > 0 {
		metrics = append(metrics, pattern.SummaryItem{Label: "Errors", Value: fmt.Sprintf("%d", n), Kind: "error"})
	}
	if n := byLevel["warning"]; n > 0 {
		metrics = append(metrics, pattern.SummaryItem{Label: "Warnings", Value: fmt.Sprintf("%d", n), Kind: "warning"})
	}
	if n := byLevel["note"]; n > 0 {
		metrics = append(metrics, pattern.SummaryItem{Label: "Notes", Value: fmt.Sprintf("%d", n), Kind: "info"})
	}
	return &pattern.Summary{Label: label, Kind: pattern.SummaryKindLint, Metrics: metrics}
}

func lintLeaderboard(groups []fileGroup) *pattern.Leaderboard {
	if len(groups) <= 1 {
		return nil
	}
	ranked := make([]fileGroup, len(groups))
	copy(ranked, groups)
	sort.SliceStable(ranked, func(i, j int) bool {
		return len(ranked[i].violations) > len(ranked[j].violations)
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}

	items := make([]pattern.LeaderboardItem, len(ranked))
	for i, g := range ranked {
		displayName := path.Base(g.file)
		if dir := path.Dir(g.file); dir != "." {
			displayName = path.Join(path.Base(dir), displayName)
		}
		n := len(g.violations)
		items[i] = pattern.LeaderboardItem{
			Name:    displayName,
			Metric:  fmt.Sprintf("%d issues", n),
			Value:   float64(n),
			Rank:    i + 1,
			Context: g.file,
		}
	}
	return &pattern.Leaderboard{
		Label:      "Files with Most Issues",
		MetricName: "Issues",
		Items:      items,
		TotalCount: len(groups),
		ShowRank:   true,
	}
}

func lintFileTable(g fileGroup) *pattern.TestTable {
	// errors first, then warnings, then notes; within level by line
	sorted := make([]lint.Violation, len(g.violations))
	copy(sorted, g.violations)
	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := levelPriority(sorted[i].Level), levelPriority(sorted[j].Level)
		if li != lj {
			return li < lj
		}
		return sorted[i].Line < sorted[j].Line
	})

	items := make([]pattern.TestTableItem, len(sorted))
	for i, v := range sorted {
		loc := ""
		if v.Line > 0 {
			loc = fmt.Sprintf(":%d:%d", v.Line, v.Column)
		}
		items[i] = pattern.TestTableItem{
			Name:    v.Rule + loc,
			Status:  mapLevel(v.Level),
			Details: v.Message,
		}
	}
	return &pattern.TestTable{Label: g.file, Results: items}
}

func mapLevel(level string) string {
	switch level {
	case "error":
		return statusFail
	case "warning":
		return statusWarn
	default:
		return statusPass
	}
}

func levelPriority(level string) int {
	switch level {
	case "error":
		return 0
	case "warning":
		return 1
	default:
		return 2
	}
}
