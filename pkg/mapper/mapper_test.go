package mapper

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dkoosis/testrules/internal/coverage"
	"github.com/dkoosis/testrules/internal/discovery"
	"github.com/dkoosis/testrules/internal/history"
	"github.com/dkoosis/testrules/internal/inspect"
	"github.com/dkoosis/testrules/internal/lint"
	"github.com/dkoosis/testrules/internal/summary"
	"github.com/dkoosis/testrules/pkg/pattern"
)

func method(name string) inspect.Method {
	return inspect.Method{Module: "calc/math_test", Name: name}
}

func sampleRun() summary.RunSummary {
	return summary.Aggregate([]summary.MethodOutcome{
		summary.NewOutcome(method("TestAdd"), summary.StatusPassed, 12*time.Millisecond, "", ""),
		summary.NewOutcome(method("TestSub"), summary.StatusFailed, 30*time.Millisecond, "got 2, want 1", "math_test.go:9: got 2, want 1"),
		summary.NewOutcome(method("TestDiv"), summary.StatusErrored, 5*time.Millisecond, "panic: runtime error: integer divide by zero", "goroutine 7 [running]:"),
	})
}

func metric(t *testing.T, s *pattern.Summary, label string) pattern.SummaryItem {
	t.Helper()
	for _, m := range s.Metrics {
		if m.Label == label {
			return m
		}
	}
	t.Fatalf("summary %q has no metric %q", s.Label, label)
	return pattern.SummaryItem{}
}

func TestFromRun_SectionOrder(t *testing.T) {
	warnings := []discovery.Warning{{Kind: discovery.WarnLoad, Module: "calc/broken_test", Message: "expected '}'"}}
	patterns := FromRun(sampleRun(), warnings)
	if len(patterns) != 4 {
		t.Fatalf("got %d patterns, want 4", len(patterns))
	}

	labels := make([]string, len(patterns))
	for i, p := range patterns {
		switch v := p.(type) {
		case *pattern.TestTable:
			labels[i] = v.Label
		case *pattern.Summary:
			labels[i] = v.Label
		default:
			t.Fatalf("unexpected pattern %T", p)
		}
	}
	want := []string{LabelWarnings, LabelSummary, LabelResults, LabelFailures}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("section %d = %q, want %q", i, labels[i], want[i])
		}
	}
}

func TestFromRun_SummaryMetrics(t *testing.T) {
	s := FromRun(sampleRun(), nil)[0].(*pattern.Summary)
	if s.Kind != pattern.SummaryKindTest {
		t.Errorf("kind = %q", s.Kind)
	}
	cases := map[string]string{
		"Passed":         "1",
		"Failed":         "1",
		"Errors":         "1",
		"Total":          "3",
		"Success Rate":   "33.33%",
		"Execution Time": "0.047s",
	}
	for label, want := range cases {
		if got := metric(t, s, label).Value; got != want {
			t.Errorf("%s = %q, want %q", label, got, want)
		}
	}
	if metric(t, s, "Success Rate").Kind != "error" {
		t.Error("failing run should color the success rate as error")
	}
}

func TestFromRun_EmptyRun(t *testing.T) {
	patterns := FromRun(summary.Aggregate(nil), nil)
	if len(patterns) != 1 {
		t.Fatalf("got %d patterns, want only the summary", len(patterns))
	}
	s := patterns[0].(*pattern.Summary)
	if got := metric(t, s, "Success Rate"); got.Value != "100.00%" || got.Kind != "success" {
		t.Errorf("success rate = %+v", got)
	}
	if got := metric(t, s, "Total").Value; got != "0" {
		t.Errorf("total = %q", got)
	}
}

func TestFromRun_DetailedResultsInExecutionOrder(t *testing.T) {
	table := FromRun(sampleRun(), nil)[1].(*pattern.TestTable)
	want := []struct{ name, status, duration string }{
		{"calc/math_test.TestAdd", "pass", "0.012s"},
		{"calc/math_test.TestSub", "fail", "0.030s"},
		{"calc/math_test.TestDiv", "error", "0.005s"},
	}
	if len(table.Results) != len(want) {
		t.Fatalf("got %d rows", len(table.Results))
	}
	for i, w := range want {
		r := table.Results[i]
		if r.Name != w.name || r.Status != w.status || r.Duration != w.duration {
			t.Errorf("row %d = %+v, want %+v", i, r, w)
		}
	}
}

func TestFromRun_FailureDetailsCarryTrace(t *testing.T) {
	table := FromRun(sampleRun(), nil)[2].(*pattern.TestTable)
	if table.Label != LabelFailures || len(table.Results) != 2 {
		t.Fatalf("failure table = %+v", table)
	}
	sub := table.Results[0]
	if !strings.HasPrefix(sub.Details, "got 2, want 1\n") || !strings.Contains(sub.Details, "math_test.go:9") {
		t.Errorf("details = %q", sub.Details)
	}
}

func TestFromRun_LongTraceTruncated(t *testing.T) {
	trace := strings.Repeat("frame\n", 50)
	s := summary.Aggregate([]summary.MethodOutcome{
		summary.NewOutcome(method("TestBoom"), summary.StatusErrored, time.Millisecond, "panic: boom", trace),
	})
	details := FromRun(s, nil)[2].(*pattern.TestTable).Results[0].Details
	if !strings.HasSuffix(details, "... (30 more lines)") {
		t.Errorf("details not truncated: %q", details[len(details)-40:])
	}
}

func TestFromTiming(t *testing.T) {
	lb := FromTiming(sampleRun(), 2)
	if lb == nil || len(lb.Items) != 2 {
		t.Fatalf("leaderboard = %+v", lb)
	}
	if lb.Items[0].Name != "calc/math_test.TestSub" || lb.Items[0].Rank != 1 {
		t.Errorf("slowest = %+v", lb.Items[0])
	}
	if lb.TotalCount != 3 {
		t.Errorf("total = %d", lb.TotalCount)
	}
	if FromTiming(summary.Aggregate(nil), 5) != nil {
		t.Error("empty run should have no timing section")
	}
}

func TestFromDiscovery(t *testing.T) {
	res := &discovery.Result{
		Modules: []string{"calc/math_test", "calc/suite_test"},
		Methods: []inspect.Method{method("TestAdd"), method("TestSub")},
		Warnings: []discovery.Warning{
			{Kind: discovery.WarnLoad, Module: "calc/broken_test", Message: "expected '}'"},
			{Kind: discovery.WarnNotFound, Module: "gone_test", Message: "module not found"},
			{Kind: discovery.WarnOrphanCase, Module: "calc/suite_test", Message: "suite S has no runner"},
		},
	}
	s := FromDiscovery(res)
	if s.Label != LabelDiscovery || s.Kind != pattern.SummaryKindDiscovery {
		t.Errorf("summary = %+v", s)
	}
	want := map[string]string{
		"Modules processed": "4",
		"Modules loaded":    "2",
		"Modules failed":    "2",
		"Test methods":      "2",
	}
	for label, value := range want {
		if m := metric(t, s, label); m.Value != value {
			t.Errorf("%s = %q, want %q", label, m.Value, value)
		}
	}
	if m := metric(t, s, "Modules failed"); m.Kind != "warning" {
		t.Errorf("failed kind = %q", m.Kind)
	}
}

func TestFromCoverage(t *testing.T) {
	rep := &coverage.Report{
		Files: []coverage.FileCoverage{
			{Name: "calc/calc.go", Statements: 10, Missed: 2, Blocks: 4, MissedBlocks: 1,
				Missing: []coverage.LineRange{{Start: 5, End: 7}, {Start: 9, End: 9}}},
		},
		Statements: 10, Missed: 2, Blocks: 4, MissedBlocks: 1,
	}
	patterns := FromCoverage(coverage.Result{Report: rep, HTMLPath: "htmlcov/index.html"})
	if len(patterns) != 3 {
		t.Fatalf("got %d patterns", len(patterns))
	}
	table := patterns[0].(*pattern.CoverageTable)
	row := table.Rows[0]
	if row.Name != "calc/calc.go" || row.Cover != 80 || row.Missing != "5-7, 9" || row.Branches != 4 || row.BranchPartial != 1 {
		t.Errorf("row = %+v", row)
	}
	if row.BranchCover != 75 {
		t.Errorf("row branch cover = %v, want 75", row.BranchCover)
	}
	if table.Total.Name != "TOTAL" || table.Total.Statements != 10 || table.Total.BranchCover != 75 {
		t.Errorf("total = %+v", table.Total)
	}

	s := patterns[1].(*pattern.Summary)
	if s.Label != LabelCoverageSummary || s.Kind != pattern.SummaryKindCoverage {
		t.Errorf("summary = %+v", s)
	}
	if m := metric(t, s, "Lines covered"); m.Value != "8/10 (80.00%)" || m.Kind != "success" {
		t.Errorf("lines = %+v", m)
	}
	if m := metric(t, s, "Branches covered"); m.Value != "3/4 (75.00%)" || m.Kind != "warning" {
		t.Errorf("branches = %+v", m)
	}

	if n := patterns[2].(*pattern.Notice); n.Level != "info" || !strings.Contains(n.Text, "htmlcov/index.html") {
		t.Errorf("notice = %+v", n)
	}
}

func TestFromCoverage_NoticeOnly(t *testing.T) {
	patterns := FromCoverage(coverage.Result{Notice: "Coverage not collected: go not found"})
	if len(patterns) != 1 {
		t.Fatalf("got %d patterns", len(patterns))
	}
	if n := patterns[0].(*pattern.Notice); n.Level != "warning" {
		t.Errorf("notice = %+v", n)
	}
}

func TestFromLint_Clean(t *testing.T) {
	patterns := FromLint(lint.Result{Tool: "golangci-lint", Available: true})
	if len(patterns) != 2 {
		t.Fatalf("got %d patterns", len(patterns))
	}
	if n, ok := patterns[1].(*pattern.Notice); !ok || n.Level != "success" {
		t.Errorf("patterns[1] = %+v, want success notice", patterns[1])
	}
	s := patterns[0].(*pattern.Summary)
	if s.Label != "Lint: golangci-lint" || s.Kind != pattern.SummaryKindLint {
		t.Errorf("summary = %+v", s)
	}
	if m := metric(t, s, "Violations"); m.Value != "0" || m.Kind != "success" {
		t.Errorf("violations = %+v", m)
	}
}

func TestFromLint_Violations(t *testing.T) {
	res := lint.Result{Tool: "golangci-lint", Available: true, Violations: []lint.Violation{
		{File: "calc/calc.go", Line: 9, Column: 2, Rule: "unused", Level: "warning", Message: "x unused"},
		{File: "calc/calc.go", Line: 3, Column: 1, Rule: "errcheck", Level: "error", Message: "unchecked"},
		{File: "main.go", Line: 1, Column: 1, Rule: "gofmt", Level: "warning", Message: "not formatted"},
	}}
	patterns := FromLint(res)
	// summary, leaderboard, two file tables
	if len(patterns) != 4 {
		t.Fatalf("got %d patterns", len(patterns))
	}
	s := patterns[0].(*pattern.Summary)
	if metric(t, s, "Violations").Value != "3" || metric(t, s, "Errors").Value != "1" || metric(t, s, "Warnings").Value != "2" {
		t.Errorf("summary = %+v", s.Metrics)
	}
	lb := patterns[1].(*pattern.Leaderboard)
	if lb.Items[0].Context != "calc/calc.go" || lb.Items[0].Value != 2 {
		t.Errorf("leaderboard = %+v", lb.Items)
	}
	calc := patterns[2].(*pattern.TestTable)
	if calc.Label != "calc/calc.go" || calc.Results[0].Name != "errcheck:3:1" || calc.Results[0].Status != "fail" {
		t.Errorf("calc table = %+v", calc)
	}
	if calc.Results[1].Status != "warn" {
		t.Errorf("warning status = %q", calc.Results[1].Status)
	}
}

func TestFromLint_Unavailable(t *testing.T) {
	res := lint.Result{Tool: "golangci-lint", Err: errors.New("style tool unavailable: exec: not found")}
	patterns := FromLint(res)
	if len(patterns) != 2 {
		t.Fatalf("got %d patterns", len(patterns))
	}
	if m := metric(t, patterns[0].(*pattern.Summary), "Status"); m.Value != "unavailable" {
		t.Errorf("status = %+v", m)
	}
	if n := patterns[1].(*pattern.Notice); n.Level != "error" {
		t.Errorf("notice = %+v", n)
	}
}

func TestFromHistory(t *testing.T) {
	runs := []history.Run{
		{ID: "new", SuccessRate: 100, Total: 4, Duration: 2 * time.Second, Coverage: 80},
		{ID: "old", SuccessRate: 50, Total: 2, Duration: time.Second, Coverage: 70},
	}
	patterns := FromHistory(runs)
	if len(patterns) != 3 {
		t.Fatalf("got %d patterns", len(patterns))
	}
	rates := patterns[0].(*pattern.Sparkline)
	if rates.Values[0] != 50 || rates.Values[1] != 100 {
		t.Errorf("sparkline should run oldest to newest: %v", rates.Values)
	}
	cmp := patterns[2].(*pattern.Comparison)
	if len(cmp.Changes) != 4 {
		t.Fatalf("changes = %+v", cmp.Changes)
	}
	if cmp.Changes[0].Change != 50 || cmp.Changes[3].Label != "Coverage" {
		t.Errorf("changes = %+v", cmp.Changes)
	}

	if FromHistory(nil) != nil {
		t.Error("no runs should map to nothing")
	}
	if got := FromHistory(runs[:1]); len(got) != 2 {
		t.Errorf("single run should have no comparison, got %d patterns", len(got))
	}
}

func TestNewlyFailing(t *testing.T) {
	prev := map[string]summary.Status{
		"calc/math_test.TestSub": summary.StatusPassed,
		"calc/math_test.TestDiv": summary.StatusErrored,
	}
	table := NewlyFailing(prev, sampleRun())
	if table == nil || len(table.Results) != 1 || table.Results[0].Name != "calc/math_test.TestSub" {
		t.Fatalf("table = %+v", table)
	}
	if NewlyFailing(nil, sampleRun()) != nil {
		t.Error("no previous run means nothing is newly failing")
	}
}

func TestRunTable(t *testing.T) {
	runs := []history.Run{
		{Selector: "unit", StartedAt: time.Date(2026, 10, 2, 9, 0, 0, 0, time.Local), Total: 3, Passed: 2, Failed: 1, Errored: 1, SuccessRate: 66.666, Coverage: -1},
		{Selector: "all", StartedAt: time.Date(2026, 10, 1, 9, 0, 0, 0, time.Local), Total: 2, Passed: 2, SuccessRate: 100, Coverage: 75},
	}
	table := RunTable(runs)
	if table == nil || len(table.Results) != 2 {
		t.Fatalf("table = %+v", table)
	}
	first := table.Results[0]
	if first.Name != "2026-10-02 09:00:00 unit" || first.Status != "fail" {
		t.Errorf("first = %+v", first)
	}
	if first.Details != "2/3 passed, 66.67%, 1 errors" {
		t.Errorf("details = %q", first.Details)
	}
	if got := table.Results[1].Details; got != "2/2 passed, 100.00%, coverage 75.0%" {
		t.Errorf("details = %q", got)
	}
	if RunTable(nil) != nil {
		t.Error("no runs should have no table")
	}
}
