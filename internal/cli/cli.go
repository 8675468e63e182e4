// Package cli is the testrules command line: flag parsing, the lint and
// check words, run orchestration and exit codes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dkoosis/testrules/internal/config"
	"github.com/dkoosis/testrules/internal/coverage"
	"github.com/dkoosis/testrules/internal/engine"
	"github.com/dkoosis/testrules/internal/logging"
	"github.com/dkoosis/testrules/internal/version"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1 // a method failed or errored, or lint found violations
	ExitUsage       = 2 // bad flags, unknown selector, unreadable --config
	ExitEnvironment = 3 // go toolchain or style tool missing
)

// EnvLogLevel sets the default of --log-level.
const EnvLogLevel = "TESTRULES_LOG_LEVEL"

// Env is the outside world a run talks to. Zero fields take the real
// implementation.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer

	Getenv     func(string) string
	Getwd      func() (string, error)
	LookPath   func(string) (string, error)
	IsTerminal func(io.Writer) bool
	TermWidth  func(io.Writer) int
	Now        func() time.Time
	NewRunID   func() string

	// Invoker runs single methods; nil uses `go test`.
	Invoker func(cfg *config.Config, root string, log *slog.Logger) engine.Invoker
	// Instrument collects coverage; nil uses go cover profiles.
	Instrument func(cfg *config.Config, root string, log *slog.Logger) coverage.Instrument
	// LintCommand builds the style tool process; nil uses exec.CommandContext.
	LintCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func (e Env) withDefaults() Env {
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.Stderr == nil {
		e.Stderr = os.Stderr
	}
	if e.Getenv == nil {
		e.Getenv = os.Getenv
	}
	if e.Getwd == nil {
		e.Getwd = os.Getwd
	}
	if e.LookPath == nil {
		e.LookPath = exec.LookPath
	}
	if e.IsTerminal == nil {
		e.IsTerminal = isTTYWriter
	}
	if e.TermWidth == nil {
		e.TermWidth = termWidth
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.NewRunID == nil {
		e.NewRunID = uuid.NewString
	}
	if e.LintCommand == nil {
		e.LintCommand = exec.CommandContext
	}
	return e
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return Run(ctx, Env{Stdout: stdout, Stderr: stderr}, args)
}

// Run is Execute with an explicit context and environment.
func Run(ctx context.Context, env Env, args []string) int {
	env = env.withDefaults()
	cmd := newRootCommand(env)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(env.Stderr, "testrules: %v\n", ee.err)
		}
		return ee.code
	}
	// flag and argument errors from cobra
	fmt.Fprintf(env.Stderr, "testrules: %v\n", err)
	return ExitUsage
}

// options holds the parsed flags.
type options struct {
	configPath string
	root       string
	format     string
	theme      string
	noCoverage bool
	noHTML     bool
	htmlDir    string
	tui        bool
	list       bool
	history    int
	logLevel   string
	logFormat  string
}

func newRootCommand(env Env) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "testrules [flags] [selector...]",
		Short:         "Discover and run Go tests one method at a time",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := &app{env: env, opts: opts}
			return a.run(cmd.Context(), args)
		},
	}
	cmd.SetOut(env.Stdout)
	cmd.SetErr(env.Stderr)
	cmd.SetVersionTemplate(`{{printf "testrules %s\n" .Version}}`)
	cmd.SetHelpFunc(func(*cobra.Command, []string) {
		_ = writeHelp(env.Stdout, env.IsTerminal(env.Stdout), env.TermWidth(env.Stdout))
	})

	defaultLevel := env.Getenv(EnvLogLevel)
	if defaultLevel == "" {
		defaultLevel = logging.DefaultLevel
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "configuration file")
	f.StringVar(&opts.root, "root", "", "project root (default: current directory)")
	f.StringVar(&opts.format, "format", "auto", "report format: auto, terminal, plain, json")
	f.StringVar(&opts.theme, "theme", "default", "terminal theme: default, orca, mono")
	f.BoolVar(&opts.noCoverage, "no-coverage", false, "skip coverage collection")
	f.BoolVar(&opts.noHTML, "no-html", false, "skip the HTML coverage report")
	f.StringVar(&opts.htmlDir, "html-dir", "", "HTML coverage report `dir` (default from config)")
	f.BoolVar(&opts.tui, "tui", false, "live progress view when stdout is a terminal")
	f.BoolVar(&opts.list, "list", false, "print discovered methods without running them")
	f.IntVar(&opts.history, "history", 0, "show the last `N` recorded runs")
	f.StringVar(&opts.logLevel, "log-level", defaultLevel, "log level: debug, info, warn, error")
	f.StringVar(&opts.logFormat, "log-format", logging.FormatText, "log format: text, json")
	return cmd
}

// exitError carries an exit code through cobra. A nil err exits
// silently, for failures the report already shows.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func exitf(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

func exitSilently(code int) error {
	return &exitError{code: code}
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			return tw
		}
	}
	return 80
}
