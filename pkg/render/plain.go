package render

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/testrules/pkg/pattern"
)

// Plain renders patterns as stable, ANSI-free text. It is the default
// when stdout is not a terminal, and internal/report parses its summary
// lines back.
type Plain struct {
	upper cases.Caser
}

// NewPlain creates a plain text renderer. A Plain is not safe for
// concurrent use.
func NewPlain() *Plain {
	return &Plain{upper: cases.Upper(language.English)}
}

// Render formats all patterns, one blank line between sections.
func (p *Plain) Render(patterns []pattern.Pattern) string {
	var sections []string
	for _, pt := range patterns {
		if s := p.renderOne(pt); s != "" {
			sections = append(sections, s)
		}
	}
	return strings.Join(sections, "\n")
}

func (p *Plain) renderOne(pt pattern.Pattern) string {
	switch v := pt.(type) {
	case *pattern.Summary:
		return p.renderSummary(v)
	case *pattern.Leaderboard:
		return p.renderLeaderboard(v)
	case *pattern.TestTable:
		return p.renderTestTable(v)
	case *pattern.CoverageTable:
		return p.renderCoverage(v)
	case *pattern.Sparkline:
		return p.renderSparkline(v)
	case *pattern.Comparison:
		return p.renderComparison(v)
	case *pattern.Notice:
		return p.upper.String(noticeLevel(v.Level)) + ": " + v.Text + "\n"
	default:
		return ""
	}
}

func (p *Plain) heading(label string) string {
	if label == "" {
		return ""
	}
	return p.upper.String(label) + "\n"
}

func (p *Plain) renderSummary(s *pattern.Summary) string {
	var sb strings.Builder
	sb.WriteString(p.heading(s.Label))
	for _, m := range s.Metrics {
		sb.WriteString("  " + m.Label + ": " + m.Value + "\n")
	}
	return sb.String()
}

func (p *Plain) renderLeaderboard(l *pattern.Leaderboard) string {
	if len(l.Items) == 0 {
		return ""
	}
	var sb strings.Builder
	header := l.Label
	if l.TotalCount > len(l.Items) {
		header += fmt.Sprintf(" (top %d of %d)", len(l.Items), l.TotalCount)
	}
	sb.WriteString(p.heading(header))
	for _, item := range l.Items {
		if l.ShowRank {
			sb.WriteString(fmt.Sprintf("  %d. %s %s\n", item.Rank, item.Name, item.Metric))
		} else {
			sb.WriteString(fmt.Sprintf("  %s %s\n", item.Name, item.Metric))
		}
	}
	return sb.String()
}

func (p *Plain) renderTestTable(tt *pattern.TestTable) string {
	if len(tt.Results) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(p.heading(tt.Label))
	for _, item := range tt.Results {
		dur := ""
		if item.Duration != "" {
			dur = " (" + item.Duration + ")"
		}
		sb.WriteString(fmt.Sprintf("  %s %s%s\n", plainStatus(item.Status), item.Name, dur))
		if item.Details != "" {
			for _, line := range strings.Split(item.Details, "\n") {
				sb.WriteString("    " + line + "\n")
			}
		}
	}
	return sb.String()
}

func (p *Plain) renderCoverage(c *pattern.CoverageTable) string {
	tw := table.NewWriter()
	style := coverageStyle(table.StyleDefault)
	style.Options = table.OptionsNoBordersAndSeparators
	style.Options.SeparateHeader = true
	style.Options.SeparateFooter = true
	tw.SetStyle(style)
	tw.AppendHeader(coverageHeader)
	for _, r := range c.Rows {
		tw.AppendRow(plainCoverageRow(r))
	}
	tw.AppendFooter(plainCoverageRow(c.Total))
	tw.SetColumnConfigs(coverageColumns(60))
	return p.heading(c.Label) + tw.Render() + "\n"
}

func plainCoverageRow(r pattern.CoverageRow) table.Row {
	return table.Row{
		r.Name, r.Statements, r.Missed, r.Branches, r.BranchPartial,
		fmt.Sprintf("%.0f%%", r.Cover), fmt.Sprintf("%.0f%%", r.BranchCover), r.Missing,
	}
}

func (p *Plain) renderSparkline(s *pattern.Sparkline) string {
	if len(s.Values) == 0 {
		return ""
	}
	values := make([]string, len(s.Values))
	for i, v := range s.Values {
		values[i] = fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%s: %s %s (latest %s%s)\n", s.Label, spark(s), strings.Join(values, " "), values[len(values)-1], s.Unit)
}

func (p *Plain) renderComparison(c *pattern.Comparison) string {
	if len(c.Changes) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(p.heading(c.Label))
	for _, item := range c.Changes {
		sb.WriteString(fmt.Sprintf("  %s: %s -> %s (%+.1f%s)\n", item.Label, item.Before, item.After, item.Change, item.Unit))
	}
	return sb.String()
}

func plainStatus(status string) string {
	switch status {
	case "pass":
		return "PASS "
	case "fail":
		return "FAIL "
	case "error":
		return "ERROR"
	case "warn", "skip":
		return "WARN "
	default:
		return "INFO "
	}
}

func noticeLevel(level string) string {
	if level == "" {
		return "info"
	}
	return level
}
