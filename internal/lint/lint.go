// Package lint runs the project's style checker as a black box and
// collects the violations it reports.
//
// The checker may print SARIF (golangci-lint --output.sarif.path=stdout)
// or plain file:line:col: message diagnostics (go vet, gofmt -l). A
// checker that cannot be started is reported as unavailable, never as
// a clean run.
package lint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dkoosis/testrules/internal/detect"
	"github.com/dkoosis/testrules/pkg/sarif"
)

// ErrUnavailable means the style tool could not be started.
var ErrUnavailable = errors.New("style tool unavailable")

// Violation is one finding of the style tool.
type Violation struct {
	File    string
	Line    int
	Column  int
	Rule    string
	Level   string
	Message string
}

// Location renders file:line:col, omitting zero parts.
func (v Violation) Location() string {
	switch {
	case v.Line == 0:
		return v.File
	case v.Column == 0:
		return fmt.Sprintf("%s:%d", v.File, v.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", v.File, v.Line, v.Column)
	}
}

// Result is the outcome of one lint run.
type Result struct {
	Tool       string
	Available  bool
	Violations []Violation
	// Err is set when the tool ran but its result cannot be trusted, or
	// when it is unavailable.
	Err error
}

// Count is the number of violations.
func (r Result) Count() int { return len(r.Violations) }

// OK reports a clean run of an available tool.
func (r Result) OK() bool { return r.Available && r.Err == nil && len(r.Violations) == 0 }

// Checker runs a lint command.
type Checker struct {
	command []string
	root    string
	log     *slog.Logger

	// Command builds the process; replaced in tests.
	Command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewChecker returns a Checker running command in root.
func NewChecker(command []string, root string, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Checker{command: command, root: root, log: logger, Command: exec.CommandContext}
}

// Run executes the tool and parses its output.
func (c *Checker) Run(ctx context.Context) Result {
	if len(c.command) == 0 {
		return Result{Err: fmt.Errorf("%w: no lint command configured", ErrUnavailable)}
	}
	tool := filepath.Base(c.command[0])
	res := Result{Tool: tool}

	cmd := c.Command(ctx, c.command[0], c.command[1:]...)
	cmd.Dir = c.root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.log.Debug("running lint", "command", strings.Join(c.command, " "))
	runErr := cmd.Run()
	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			res.Err = fmt.Errorf("%w: %v", ErrUnavailable, runErr)
			c.log.Warn("lint tool unavailable", "tool", tool, "error", runErr)
			return res
		}
		exitCode = exitErr.ExitCode()
	}
	res.Available = true

	// go vet reports on stderr.
	output := stdout.Bytes()
	if len(bytes.TrimSpace(output)) == 0 {
		output = stderr.Bytes()
	}

	format := detect.Sniff(output)
	var doc *sarif.Document
	var err error
	switch format {
	case detect.Empty:
	case detect.SARIF:
		doc, err = sarif.Read(bytes.NewReader(output))
	case detect.Diagnostics:
		doc, err = sarif.FromDiagnostics(tool, tool, "warning", bytes.NewReader(output))
	default:
		err = fmt.Errorf("unrecognized %s output", format)
	}
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", tool, err)
		return res
	}
	if doc != nil {
		res.Violations = c.violations(doc)
	}

	if exitCode != 0 && len(res.Violations) == 0 {
		res.Err = fmt.Errorf("%s exited with status %d: %s", tool, exitCode, firstLine(stderr.String()))
	}
	c.log.Debug("lint finished", "tool", tool, "format", format.String(), "violations", len(res.Violations), "exit", exitCode)
	return res
}

func (c *Checker) violations(doc *sarif.Document) []Violation {
	var out []Violation
	for _, f := range sarif.Findings(doc) {
		out = append(out, Violation{
			File:    c.relative(f.File),
			Line:    f.Line,
			Column:  f.Column,
			Rule:    f.Rule,
			Level:   f.Level,
			Message: f.Message,
		})
	}
	return out
}

func (c *Checker) relative(file string) string {
	if filepath.IsAbs(file) && c.root != "" {
		if rel, err := filepath.Rel(c.root, file); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return file
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
