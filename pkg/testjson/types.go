// Package testjson reads the event stream of `go test -json` and folds it
// into per-package, per-test results.
package testjson

import "time"

// Event actions emitted by go test -json and go build -json.
const (
	ActionRun         = "run"
	ActionPass        = "pass"
	ActionFail        = "fail"
	ActionSkip        = "skip"
	ActionOutput      = "output"
	ActionBuildOutput = "build-output"
	ActionBuildFail   = "build-fail"
)

// Test statuses recorded on TestResult.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
	StatusSkip = "SKIP"
)

// ProcessFunc receives each decoded event from Stream.
type ProcessFunc func(TestEvent)

// TestEvent is one line of go test -json output.
type TestEvent struct {
	Time        time.Time `json:"Time"`
	Action      string    `json:"Action"`
	Package     string    `json:"Package"`
	ImportPath  string    `json:"ImportPath"` // build events only
	Test        string    `json:"Test"`
	Elapsed     float64   `json:"Elapsed"`
	Output      string    `json:"Output"`
	FailedBuild string    `json:"FailedBuild"` // package fail caused by a build error
}

// TestResult is one test or subtest.
type TestResult struct {
	Name     string // "TestCalcSuite/TestAdd" for suite methods
	Status   string // StatusPass, StatusFail, StatusSkip, or "" when it never finished
	Duration time.Duration
	Output   []string // lines the test printed, without trailing newlines
}

// TestPackageResult is everything one package reported.
type TestPackageResult struct {
	Name        string
	Passed      int
	Failed      int
	Skipped     int
	Duration    time.Duration
	Tests       []TestResult // in order of first appearance
	BuildError  string       // compiler output when the test binary did not build
	Panicked    bool
	PanicOutput []string
}

// Test returns the named test.
func (r *TestPackageResult) Test(name string) (TestResult, bool) {
	for _, t := range r.Tests {
		if t.Name == name {
			return t, true
		}
	}
	return TestResult{}, false
}

// Status is "fail" for build errors, panics or failed tests, "skip" when
// everything was skipped, else "pass".
func (r *TestPackageResult) Status() string {
	switch {
	case r.BuildError != "" || r.Panicked || r.Failed > 0:
		return "fail"
	case r.Passed == 0 && r.Skipped > 0:
		return "skip"
	default:
		return "pass"
	}
}
