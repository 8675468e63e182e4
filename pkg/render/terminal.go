package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"

	"github.com/dkoosis/testrules/pkg/pattern"
)

// Terminal renders patterns as styled terminal output via lipgloss.
type Terminal struct {
	theme Theme
	width int
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{theme: theme, width: width}
}

// Render formats all patterns for terminal display.
func (t *Terminal) Render(patterns []pattern.Pattern) string {
	var sections []string
	for _, p := range patterns {
		s := t.renderOne(p)
		if s != "" {
			sections = append(sections, s)
		}
	}
	return strings.Join(sections, "\n")
}

func (t *Terminal) renderOne(p pattern.Pattern) string {
	switch v := p.(type) {
	case *pattern.Summary:
		return t.renderSummary(v)
	case *pattern.Leaderboard:
		return t.renderLeaderboard(v)
	case *pattern.TestTable:
		return t.renderTestTable(v)
	case *pattern.CoverageTable:
		return t.renderCoverage(v)
	case *pattern.Sparkline:
		return t.renderSparkline(v)
	case *pattern.Comparison:
		return t.renderComparison(v)
	case *pattern.Notice:
		return t.renderNotice(v)
	default:
		return ""
	}
}

func (t *Terminal) renderSummary(s *pattern.Summary) string {
	var sb strings.Builder
	if s.Label != "" {
		sb.WriteString(t.theme.Bold.Render(s.Label))
		sb.WriteString("\n")
	}
	for _, m := range s.Metrics {
		sb.WriteString("  ")
		icon, style := t.iconStyle(m.Kind)
		sb.WriteString(style.Render(icon + " " + m.Label + ": " + m.Value))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderLeaderboard(l *pattern.Leaderboard) string {
	if len(l.Items) == 0 {
		return ""
	}
	var sb strings.Builder
	if l.Label != "" {
		header := l.Label
		if l.TotalCount > len(l.Items) {
			header += fmt.Sprintf(" (top %d of %d)", len(l.Items), l.TotalCount)
		}
		sb.WriteString(t.theme.Bold.Render(header))
		sb.WriteString("\n")
	}

	maxName, maxMetric := 0, 0
	for _, item := range l.Items {
		maxName = max(maxName, runewidth.StringWidth(item.Name))
		maxMetric = max(maxMetric, runewidth.StringWidth(item.Metric))
	}
	maxName = min(maxName, t.nameBudget(maxMetric+6))

	for _, item := range l.Items {
		sb.WriteString("  ")
		if l.ShowRank {
			sb.WriteString(t.theme.Muted.Render(fmt.Sprintf("%2d. ", item.Rank)))
		}
		sb.WriteString(t.theme.Primary.Render(fit(item.Name, maxName)))
		sb.WriteString("  ")
		sb.WriteString(t.theme.Warning.Render(padLeft(item.Metric, maxMetric)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderTestTable(tt *pattern.TestTable) string {
	if len(tt.Results) == 0 {
		return ""
	}
	var sb strings.Builder
	if tt.Label != "" {
		sb.WriteString(t.theme.Bold.Render(tt.Label))
		sb.WriteString("\n")
	}

	maxName, maxDur := 0, 0
	for _, r := range tt.Results {
		maxName = max(maxName, runewidth.StringWidth(r.Name))
		maxDur = max(maxDur, runewidth.StringWidth(r.Duration))
	}
	maxName = min(maxName, t.nameBudget(maxDur+6))

	for _, r := range tt.Results {
		sb.WriteString("  ")
		icon, style := t.statusIconStyle(r.Status)
		sb.WriteString(style.Render(icon + " "))
		sb.WriteString(fit(r.Name, maxName))

		if r.Count > 0 {
			sb.WriteString(t.theme.Muted.Render(fmt.Sprintf("  %d tests", r.Count)))
		}
		if r.Duration != "" {
			sb.WriteString("  ")
			sb.WriteString(t.theme.Muted.Render(padLeft(r.Duration, maxDur)))
		}

		if r.Details != "" {
			for _, line := range strings.Split(r.Details, "\n") {
				sb.WriteString("\n    ")
				sb.WriteString(t.theme.Muted.Render(line))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderCoverage(c *pattern.CoverageTable) string {
	var sb strings.Builder
	if c.Label != "" {
		sb.WriteString(t.theme.Bold.Render(c.Label))
		sb.WriteString("\n")
	}

	tw := table.NewWriter()
	tw.SetStyle(coverageStyle(table.StyleLight))
	tw.AppendHeader(coverageHeader)
	for _, r := range c.Rows {
		tw.AppendRow(t.coverageRow(r))
	}
	tw.AppendFooter(t.coverageRow(c.Total))
	tw.SetColumnConfigs(coverageColumns(t.width / 3))
	sb.WriteString(tw.Render())
	sb.WriteString("\n")
	return sb.String()
}

func (t *Terminal) coverageRow(r pattern.CoverageRow) table.Row {
	return table.Row{
		r.Name, r.Statements, r.Missed, r.Branches, r.BranchPartial,
		t.percentStyle(r.Cover).Render(fmt.Sprintf("%.0f%%", r.Cover)),
		t.percentStyle(r.BranchCover).Render(fmt.Sprintf("%.0f%%", r.BranchCover)),
		t.theme.Muted.Render(r.Missing),
	}
}

func (t *Terminal) percentStyle(p float64) lipgloss.Style {
	switch {
	case p < 50:
		return t.theme.Error
	case p < 80:
		return t.theme.Warning
	default:
		return t.theme.Success
	}
}

func (t *Terminal) renderSparkline(s *pattern.Sparkline) string {
	if len(s.Values) == 0 {
		return ""
	}
	var sb strings.Builder
	if s.Label != "" {
		sb.WriteString(t.theme.Primary.Render(s.Label + ": "))
	}
	sb.WriteString(t.theme.Success.Render(spark(s)))

	latest := s.Values[len(s.Values)-1]
	sb.WriteString(t.theme.Muted.Render(fmt.Sprintf(" %.1f%s", latest, s.Unit)))
	sb.WriteString("\n")
	return sb.String()
}

// spark draws one block rune per value.
func spark(s *pattern.Sparkline) string {
	minVal, maxVal := s.Min, s.Max
	if minVal == 0 && maxVal == 0 {
		minVal, maxVal = s.Values[0], s.Values[0]
		for _, v := range s.Values {
			minVal = min(minVal, v)
			maxVal = max(maxVal, v)
		}
	}
	valueRange := maxVal - minVal
	if valueRange == 0 {
		valueRange = 1
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	var out strings.Builder
	for _, v := range s.Values {
		idx := int((v - minVal) / valueRange * 7)
		out.WriteRune(blocks[max(0, min(idx, 7))])
	}
	return out.String()
}

func (t *Terminal) renderComparison(c *pattern.Comparison) string {
	if len(c.Changes) == 0 {
		return ""
	}
	var sb strings.Builder
	if c.Label != "" {
		sb.WriteString(t.theme.Bold.Render(c.Label))
		sb.WriteString("\n")
	}
	for _, item := range c.Changes {
		sb.WriteString("  ")
		sb.WriteString(item.Label + ": ")
		sb.WriteString(t.theme.Muted.Render(item.Before + " → " + item.After))
		sb.WriteString(" ")

		var arrow string
		var style lipgloss.Style
		switch {
		case item.Change > 0:
			arrow = "↑"
			style = t.theme.Warning
		case item.Change < 0:
			arrow = "↓"
			style = t.theme.Success
		default:
			arrow = "="
			style = t.theme.Muted
		}
		abs := item.Change
		if abs < 0 {
			abs = -abs
		}
		sb.WriteString(style.Render(fmt.Sprintf("%s %.1f%s", arrow, abs, item.Unit)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderNotice(n *pattern.Notice) string {
	icon, style := t.iconStyle(n.Level)
	return style.Render(icon+" "+n.Text) + "\n"
}

// nameBudget is the width left for a name column after reserved cells.
func (t *Terminal) nameBudget(reserved int) int {
	return max(20, t.width-reserved)
}

func (t *Terminal) iconStyle(kind string) (string, lipgloss.Style) {
	switch kind {
	case "success":
		return t.theme.Icons.Pass, t.theme.Success
	case "error":
		return t.theme.Icons.Fail, t.theme.Error
	case "warning":
		return t.theme.Icons.Warn, t.theme.Warning
	default:
		return t.theme.Icons.Info, t.theme.Primary
	}
}

func (t *Terminal) statusIconStyle(status string) (string, lipgloss.Style) {
	switch status {
	case "pass":
		return t.theme.Icons.Pass, t.theme.Success
	case "fail":
		return t.theme.Icons.Fail, t.theme.Error
	case "error":
		return t.theme.Icons.Error, t.theme.Error
	case "warn", "skip":
		return t.theme.Icons.Warn, t.theme.Warning
	default:
		return t.theme.Icons.Info, t.theme.Muted
	}
}

// coverageStyle keeps header and footer text as written.
func coverageStyle(base table.Style) table.Style {
	base.Format.Header = text.FormatDefault
	base.Format.Footer = text.FormatDefault
	return base
}

var coverageHeader = table.Row{"Name", "Stmts", "Miss", "Branch", "BrPart", "Cover", "BrCover", "Missing"}

func coverageColumns(missingWidth int) []table.ColumnConfig {
	return []table.ColumnConfig{
		{Name: "Stmts", Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Name: "Miss", Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Name: "Branch", Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Name: "BrPart", Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Name: "Cover", Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Name: "BrCover", Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Name: "Missing", WidthMax: max(missingWidth, 20), WidthMaxEnforcer: text.WrapSoft},
	}
}

// fit pads or truncates s to exactly width display cells.
func fit(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "...")
	}
	return runewidth.FillRight(s, width)
}

func padLeft(s string, width int) string {
	return runewidth.FillLeft(s, width)
}
