package mapper

import (
	"fmt"

	"github.com/dkoosis/testrules/internal/coverage"
	"github.com/dkoosis/testrules/pkg/pattern"
)

// Section titles.
const (
	LabelCoverage        = "Coverage Report"
	LabelCoverageSummary = "Coverage Summary"
)

// FromCoverage converts a coverage result into its table and notices.
// The run summary inside res is not mapped; use FromRun for it.
func FromCoverage(res coverage.Result) []pattern.Pattern {
	var patterns []pattern.Pattern
	if res.Report != nil {
		patterns = append(patterns, coverageTable(res.Report), coverageSummary(res.Report))
	}
	if res.HTMLPath != "" {
		patterns = append(patterns, &pattern.Notice{Level: "info", Text: "HTML coverage report: " + res.HTMLPath})
	}
	if res.Notice != "" {
		patterns = append(patterns, &pattern.Notice{Level: "warning", Text: res.Notice})
	}
	return patterns
}

func coverageTable(r *coverage.Report) *pattern.CoverageTable {
	rows := make([]pattern.CoverageRow, len(r.Files))
	for i, f := range r.Files {
		rows[i] = pattern.CoverageRow{
			Name:          f.Name,
			Statements:    f.Statements,
			Missed:        f.Missed,
			Branches:      f.Blocks,
			BranchPartial: f.MissedBlocks,
			Cover:         f.LinePercent(),
			BranchCover:   f.BranchPercent(),
			Missing:       f.MissingString(),
		}
	}
	return &pattern.CoverageTable{
		Label: LabelCoverage,
		Rows:  rows,
		Total: pattern.CoverageRow{
			Name:          "TOTAL",
			Statements:    r.Statements,
			Missed:        r.Missed,
			Branches:      r.Blocks,
			BranchPartial: r.MissedBlocks,
			Cover:         r.LinePercent(),
			BranchCover:   r.BranchPercent(),
		},
	}
}

// coverageSummary gives the run totals as "covered/total (percent)".
func coverageSummary(r *coverage.Report) *pattern.Summary {
	return &pattern.Summary{
		Label: LabelCoverageSummary,
		Kind:  pattern.SummaryKindCoverage,
		Metrics: []pattern.SummaryItem{
			coveredItem("Lines covered", r.Statements-r.Missed, r.Statements, r.LinePercent()),
			coveredItem("Branches covered", r.Blocks-r.MissedBlocks, r.Blocks, r.BranchPercent()),
		},
	}
}

func coveredItem(label string, covered, total int, pct float64) pattern.SummaryItem {
	kind := "success"
	switch {
	case pct < 50:
		kind = "error"
	case pct < 80:
		kind = "warning"
	}
	return pattern.SummaryItem{
		Label: label,
		Value: fmt.Sprintf("%d/%d (%.2f%%)", covered, total, pct),
		Kind:  kind,
	}
}
