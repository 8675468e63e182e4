package testjson

import (
	"strings"
	"time"
)

// Collector folds events into results. Use Add as the ProcessFunc of
// Stream.
type Collector struct {
	packages map[string]*TestPackageResult
	tests    map[string]map[string]int // package -> test -> index in Tests
	pkgOut   map[string][]string       // package-level output lines
	build    map[string][]string       // build output by ImportPath
	order    []string
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		packages: map[string]*TestPackageResult{},
		tests:    map[string]map[string]int{},
		pkgOut:   map[string][]string{},
		build:    map[string][]string{},
	}
}

// Add records one event.
func (c *Collector) Add(e TestEvent) {
	switch e.Action {
	case ActionBuildOutput:
		if line := strings.TrimRight(e.Output, "\n"); line != "" {
			c.build[e.ImportPath] = append(c.build[e.ImportPath], line)
		}
		return
	case ActionBuildFail:
		return
	}

	pkg := c.pkg(e.Package)
	elapsed := time.Duration(e.Elapsed * float64(time.Second))

	if e.Test == "" {
		switch e.Action {
		case ActionOutput:
			c.output(pkg, nil, e.Output)
		case ActionPass, ActionSkip:
			pkg.Duration = elapsed
		case ActionFail:
			pkg.Duration = elapsed
			c.packageFailed(pkg, e.FailedBuild)
		}
		return
	}

	t := c.test(pkg, e.Test)
	switch e.Action {
	case ActionOutput:
		c.output(pkg, t, e.Output)
	case ActionPass:
		pkg.Passed++
		t.Status, t.Duration = StatusPass, elapsed
	case ActionFail:
		pkg.Failed++
		t.Status, t.Duration = StatusFail, elapsed
	case ActionSkip:
		pkg.Skipped++
		t.Status, t.Duration = StatusSkip, elapsed
	}
}

func (c *Collector) pkg(name string) *TestPackageResult {
	if p, ok := c.packages[name]; ok {
		return p
	}
	p := &TestPackageResult{Name: name}
	c.packages[name] = p
	c.tests[name] = map[string]int{}
	c.order = append(c.order, name)
	return p
}

func (c *Collector) test(pkg *TestPackageResult, name string) *TestResult {
	idx := c.tests[pkg.Name]
	i, ok := idx[name]
	if !ok {
		i = len(pkg.Tests)
		idx[name] = i
		pkg.Tests = append(pkg.Tests, TestResult{Name: name})
	}
	return &pkg.Tests[i]
}

func (c *Collector) output(pkg *TestPackageResult, t *TestResult, raw string) {
	line := strings.TrimRight(raw, "\n")
	if line == "" {
		return
	}
	if t != nil {
		t.Output = append(t.Output, line)
	} else {
		c.pkgOut[pkg.Name] = append(c.pkgOut[pkg.Name], line)
	}
	if strings.HasPrefix(strings.TrimSpace(line), "panic:") || strings.HasPrefix(line, "goroutine ") {
		pkg.Panicked = true
		pkg.PanicOutput = append(pkg.PanicOutput, line)
	}
}

// packageFailed explains a package failure that no test accounts for.
func (c *Collector) packageFailed(pkg *TestPackageResult, failedBuild string) {
	switch {
	case failedBuild != "":
		pkg.BuildError = firstNonEmpty(
			strings.Join(c.build[failedBuild], "\n"),
			strings.Join(c.pkgOut[pkg.Name], "\n"),
			"build failed: "+failedBuild,
		)
	case pkg.Passed == 0 && pkg.Failed == 0 && pkg.Skipped == 0:
		pkg.BuildError = strings.Join(c.pkgOut[pkg.Name], "\n")
	}
}

// Results returns the packages that reported anything, in order of first
// appearance.
func (c *Collector) Results() []TestPackageResult {
	out := make([]TestPackageResult, 0, len(c.order))
	for _, name := range c.order {
		p := c.packages[name]
		if len(p.Tests) == 0 && p.BuildError == "" && !p.Panicked {
			continue
		}
		cp := *p
		cp.Tests = append([]TestResult(nil), p.Tests...)
		out = append(out, cp)
	}
	return out
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
