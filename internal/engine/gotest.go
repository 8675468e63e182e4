package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/dkoosis/testrules/internal/inspect"
	"github.com/dkoosis/testrules/internal/summary"
	"github.com/dkoosis/testrules/pkg/testjson"
)

// Exit codes of go test.
const (
	exitTestFailed = 1
	exitBuildError = 2
)

// CommandFunc builds the command for one go invocation.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// GoInvoker runs each method in its own `go test -json` process.
type GoInvoker struct {
	GoBinary string
	Root     string
	Command  CommandFunc
	Env      []string // appended to the inherited environment
	Logger   *slog.Logger
}

// NewGoInvoker returns an invoker that runs tests below root.
func NewGoInvoker(goBinary, root string, logger *slog.Logger) *GoInvoker {
	if goBinary == "" {
		goBinary = "go"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GoInvoker{GoBinary: goBinary, Root: root, Command: exec.CommandContext, Logger: logger}
}

// TestName is the go test name that selects m: the function itself, or
// the suite runner with the method as a subtest.
func TestName(m inspect.Method) string {
	if m.IsCase() {
		return m.Runner + "/" + m.Name
	}
	return m.Runner
}

// RunPattern is the -run expression matching m and nothing else.
func RunPattern(m inspect.Method) string {
	pattern := "^" + regexp.QuoteMeta(m.Runner) + "$"
	if m.IsCase() {
		pattern += "/^" + regexp.QuoteMeta(m.Name) + "$"
	}
	return pattern
}

// Args builds the go test argument list for m.
func (g *GoInvoker) Args(m inspect.Method, opts InvokeOptions) ([]string, error) {
	args := []string{"test", "-json", "-v", "-count=1", "-run", RunPattern(m)}
	if opts.Timeout > 0 {
		args = append(args, "-timeout", opts.Timeout.String())
	}
	if opts.CoverProfile != "" {
		args = append(args, "-coverprofile="+opts.CoverProfile, "-covermode=atomic", "-coverpkg=./...")
	}
	targets, err := g.targets(m)
	if err != nil {
		return nil, err
	}
	return append(args, targets...), nil
}

// targets is the package directory, or the list of its files when some
// of them must be left out.
func (g *GoInvoker) targets(m inspect.Method) ([]string, error) {
	rel, err := filepath.Rel(g.Root, m.Dir)
	if err != nil {
		return nil, fmt.Errorf("method outside root: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if len(m.Exclude) == 0 {
		return []string{"./" + rel}, nil
	}

	entries, err := os.ReadDir(m.Dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
			continue
		}
		if slices.Contains(m.Exclude, filepath.Join(m.Dir, e.Name())) {
			continue
		}
		files = append(files, "./"+pathJoin(rel, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func pathJoin(dir, name string) string {
	if dir == "." {
		return name
	}
	return dir + "/" + name
}

// Invoke runs m and maps the go test result onto a status.
func (g *GoInvoker) Invoke(ctx context.Context, m inspect.Method, opts InvokeOptions) Invocation {
	args, err := g.Args(m, opts)
	if err != nil {
		return errored("cannot build go test command", err.Error())
	}

	cmd := g.Command(ctx, g.GoBinary, args...)
	cmd.Dir = g.Root
	if len(g.Env) > 0 {
		cmd.Env = append(os.Environ(), g.Env...)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errored("cannot capture go test output", err.Error())
	}

	g.Logger.Debug("running go test", "method", m.FullName(), "args", strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return errored("failed to run go test", err.Error())
	}

	collector := testjson.NewCollector()
	malformed, streamErr := testjson.Stream(ctx, stdout, collector.Add)
	runErr := cmd.Wait()
	if streamErr != nil {
		g.Logger.Debug("go test stream interrupted", "method", m.FullName(), "error", streamErr)
	}
	if malformed > 0 {
		g.Logger.Debug("skipped malformed go test output", "method", m.FullName(), "lines", malformed)
	}

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return errored("failed to run go test", runErr.Error())
		}
		exitCode = exitErr.ExitCode()
	}
	g.Logger.Debug("go test finished", "method", m.FullName(), "exit", exitCodeMeaning(exitCode))
	return Verdict(collector.Results(), TestName(m), exitCode, stderr.String())
}

// Verdict classifies the outcome of one go test process that ran test.
//
// Build failures, panics and a test that never ran are errors. A test
// reporting failure is a failure. Passed and skipped tests pass.
func Verdict(results []testjson.TestPackageResult, test string, exitCode int, stderr string) Invocation {
	for _, r := range results {
		if r.BuildError != "" {
			return errored("build failed", r.BuildError)
		}
	}

	var (
		tr    testjson.TestResult
		found bool
		pkg   testjson.TestPackageResult
	)
	for _, r := range results {
		if t, ok := r.Test(test); ok {
			tr, found, pkg = t, true, r
			break
		}
	}

	if !found {
		if exitCode == exitBuildError {
			return errored("build failed", strings.TrimSpace(stderr))
		}
		trace := strings.TrimSpace(stderr)
		for _, r := range results {
			if r.Panicked {
				return errored("panic outside test", strings.Join(r.PanicOutput, "\n"))
			}
		}
		return errored("test did not run: "+test, trace)
	}

	trace := strings.Join(tr.Output, "\n")
	switch tr.Status {
	case testjson.StatusPass, testjson.StatusSkip:
		return Invocation{Status: summary.StatusPassed}
	case testjson.StatusFail:
		// Only one test runs per process, so a package-level panic is ours.
		if panicked(tr.Output) || pkg.Panicked {
			lines := append(slices.Clone(tr.Output), pkg.PanicOutput...)
			reason := firstMatch(lines, isPanicLine)
			if reason == "" {
				reason = "test panicked"
			}
			return Invocation{Status: summary.StatusErrored, Summary: reason, Trace: strings.Join(lines, "\n")}
		}
		return Invocation{Status: summary.StatusFailed, Summary: failureSummary(tr.Output), Trace: trace}
	default:
		// Started but never finished: the process died under it.
		if pkg.Panicked {
			trace = strings.Join(pkg.PanicOutput, "\n")
		}
		return errored("test did not finish", trace)
	}
}

func errored(summaryLine, trace string) Invocation {
	return Invocation{Status: summary.StatusErrored, Summary: summaryLine, Trace: trace}
}

func isPanicLine(line string) bool {
	s := strings.TrimSpace(line)
	return strings.HasPrefix(s, "panic:") || strings.Contains(s, "test panicked:")
}

func panicked(lines []string) bool {
	return firstMatch(lines, isPanicLine) != ""
}

func firstMatch(lines []string, match func(string) bool) string {
	for _, l := range lines {
		if match(l) {
			return strings.TrimSpace(l)
		}
	}
	return ""
}

// failureSummary picks the first line the test itself printed.
func failureSummary(lines []string) string {
	s := firstMatch(lines, func(l string) bool {
		t := strings.TrimSpace(l)
		return t != "" && !strings.HasPrefix(t, "=== ") && !strings.HasPrefix(t, "--- ")
	})
	if s == "" {
		return "test failed"
	}
	return s
}

// exitCodeMeaning is used in log lines.
func exitCodeMeaning(code int) string {
	switch code {
	case 0:
		return "ok"
	case exitTestFailed:
		return "test failed"
	case exitBuildError:
		return "build error"
	default:
		return fmt.Sprintf("exit %d", code)
	}
}
