// Package summary reduces per-method outcomes into run statistics.
package summary

import (
	"sort"
	"time"

	"github.com/dkoosis/testrules/internal/inspect"
)

// Status is the verdict of one executed method.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
)

// Label is the upper-case form used in progress lines and reports.
func (s Status) Label() string {
	switch s {
	case StatusPassed:
		return "PASS"
	case StatusFailed:
		return "FAIL"
	case StatusErrored:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MethodOutcome is the result of executing one method. Summary and Trace
// are empty for passed methods.
type MethodOutcome struct {
	Method   inspect.Method
	Status   Status
	Duration time.Duration
	Summary  string
	Trace    string
}

// NewOutcome builds an outcome. Failure detail is dropped for passed methods.
func NewOutcome(m inspect.Method, status Status, d time.Duration, summary, trace string) MethodOutcome {
	if status == StatusPassed {
		summary, trace = "", ""
	}
	return MethodOutcome{Method: m, Status: status, Duration: d, Summary: summary, Trace: trace}
}

// RunSummary aggregates a run. Failed counts failed and errored outcomes;
// Errored is the errored subset.
type RunSummary struct {
	Total       int
	Passed      int
	Failed      int
	Errored     int
	SuccessRate float64
	Duration    time.Duration
	Outcomes    []MethodOutcome
}

// Aggregate reduces outcomes into a RunSummary. The outcome order is kept.
func Aggregate(outcomes []MethodOutcome) RunSummary {
	s := RunSummary{
		Total:    len(outcomes),
		Outcomes: make([]MethodOutcome, len(outcomes)),
	}
	copy(s.Outcomes, outcomes)
	for _, o := range outcomes {
		switch o.Status {
		case StatusPassed:
			s.Passed++
		case StatusErrored:
			s.Errored++
		}
		s.Duration += o.Duration
	}
	s.Failed = s.Total - s.Passed
	s.SuccessRate = 100
	if s.Total > 0 {
		s.SuccessRate = float64(s.Passed) / float64(s.Total) * 100
	}
	return s
}

// OK reports whether every executed method passed. An empty run is OK.
func (s RunSummary) OK() bool { return s.Failed == 0 }

// FailedOutcomes returns the failed and errored outcomes in run order.
func (s RunSummary) FailedOutcomes() []MethodOutcome {
	var out []MethodOutcome
	for _, o := range s.Outcomes {
		if o.Status != StatusPassed {
			out = append(out, o)
		}
	}
	return out
}

// Slowest returns up to n outcomes by descending duration. Ties keep run order.
func (s RunSummary) Slowest(n int) []MethodOutcome {
	out := append([]MethodOutcome(nil), s.Outcomes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Duration > out[j].Duration })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
