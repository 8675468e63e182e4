package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dkoosis/testrules/internal/config"
	"github.com/dkoosis/testrules/internal/coverage"
	"github.com/dkoosis/testrules/internal/discovery"
	"github.com/dkoosis/testrules/internal/engine"
	"github.com/dkoosis/testrules/internal/history"
	"github.com/dkoosis/testrules/internal/inspect"
	"github.com/dkoosis/testrules/internal/lint"
	"github.com/dkoosis/testrules/internal/loader"
	"github.com/dkoosis/testrules/internal/logging"
	"github.com/dkoosis/testrules/internal/metrics"
	"github.com/dkoosis/testrules/internal/summary"
	"github.com/dkoosis/testrules/internal/tui"
	"github.com/dkoosis/testrules/pkg/mapper"
	"github.com/dkoosis/testrules/pkg/pattern"
	"github.com/dkoosis/testrules/pkg/render"
)

// Words accepted in place of a selector.
const (
	wordHelp  = "help"
	wordLint  = "lint"
	wordCheck = "check"
)

const (
	slowestShown = 5
	historyShown = 10
	themeNoColor = "mono"
	envNoColor   = "NO_COLOR"
	formatAuto   = "auto"
)

// app is one invocation of the command.
type app struct {
	env  Env
	opts options

	log      *slog.Logger
	root     string
	cfg      *config.Config
	renderer render.Renderer
	format   string
	mono     bool
	notices  []pattern.Pattern
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == wordHelp {
		return writeHelp(a.env.Stdout, a.env.IsTerminal(a.env.Stdout), a.env.TermWidth(a.env.Stdout))
	}
	if err := a.setup(); err != nil {
		return err
	}

	switch {
	case a.opts.history > 0:
		return a.showHistory(ctx)
	case len(args) > 0 && args[0] == wordLint:
		if len(args) > 1 {
			return exitf(ExitUsage, "lint takes no arguments, got %q", strings.Join(args[1:], " "))
		}
		return a.lintOnly(ctx)
	case len(args) > 0 && args[0] == wordCheck:
		return a.check(ctx, args[1:])
	default:
		return a.testsOnly(ctx, args)
	}
}

// setup builds the logger, configuration and renderer shared by every
// word.
func (a *app) setup() error {
	logger, err := logging.New(a.env.Stderr, a.opts.logLevel, a.opts.logFormat)
	if err != nil {
		return &exitError{code: ExitUsage, err: err}
	}
	a.log = logger

	a.root = a.opts.root
	if a.root == "" {
		wd, err := a.env.Getwd()
		if err != nil {
			return exitf(ExitEnvironment, "working directory: %w", err)
		}
		a.root = wd
	}
	if abs, err := filepath.Abs(a.root); err == nil {
		a.root = abs
	}

	cfg, warnings, err := config.Load(config.LoadOptions{Root: a.root, Path: a.opts.configPath, Getenv: a.env.Getenv})
	if err != nil {
		return &exitError{code: ExitUsage, err: err}
	}
	for _, w := range warnings {
		a.log.Warn("configuration problem, using defaults", "source", w.Source, "problem", w.Message)
		a.notices = append(a.notices, &pattern.Notice{Level: "warning", Text: "Config: " + w.String()})
	}
	a.cfg = cfg.WithOverrides(config.Overrides{
		NoCoverage: a.opts.noCoverage,
		NoHTML:     a.opts.noHTML,
		HTMLDir:    a.opts.htmlDir,
	})
	a.log.Info("configuration",
		"source", a.cfg.Source(),
		"types", strings.Join(a.cfg.TestTypes(), ","),
		"groups", strings.Join(a.cfg.Groups(), ","),
		"coverage", a.cfg.CoverageEnabled(),
		"html_coverage", a.cfg.HTMLCoverage(),
		"html_coverage_dir", a.cfg.HTMLCoverageDir(),
	)

	return a.setupRenderer()
}

func (a *app) setupRenderer() error {
	themeName := a.opts.theme
	if a.env.Getenv(envNoColor) != "" {
		themeName = themeNoColor
	}
	theme, ok := render.ThemeByName(themeName)
	if !ok {
		return exitf(ExitUsage, "unknown theme %q (want %s)", a.opts.theme, strings.Join(render.ThemeNames(), ", "))
	}
	a.mono = theme.Name == themeNoColor

	a.format = a.opts.format
	if a.format == formatAuto {
		a.format = render.FormatPlain
		if a.env.IsTerminal(a.env.Stdout) {
			a.format = render.FormatTerminal
		}
	}
	r, err := render.ForFormat(a.format, theme, a.env.TermWidth(a.env.Stdout))
	if err != nil {
		return &exitError{code: ExitUsage, err: err}
	}
	a.renderer = r
	return nil
}

func (a *app) emit(patterns []pattern.Pattern) {
	fmt.Fprint(a.env.Stdout, a.renderer.Render(patterns))
}

// testRun is a finished test batch and its report sections.
type testRun struct {
	summary  summary.RunSummary
	patterns []pattern.Pattern
}

func (a *app) testsOnly(ctx context.Context, args []string) error {
	tr, listed, err := a.runTests(ctx, args)
	if err != nil || listed {
		return err
	}
	a.emit(append(a.notices, tr.patterns...))
	if !tr.summary.OK() {
		return exitSilently(ExitFailure)
	}
	return nil
}

func (a *app) lintOnly(ctx context.Context) error {
	res := a.runLint(ctx)
	a.emit(append(a.notices, mapper.FromLint(res)...))
	switch {
	case !res.Available:
		return &exitError{code: ExitEnvironment, err: res.Err}
	case !res.OK():
		return exitSilently(ExitFailure)
	}
	return nil
}

func (a *app) check(ctx context.Context, args []string) error {
	res := a.runLint(ctx)
	tr, listed, err := a.runTests(ctx, args)
	if err != nil || listed {
		return err
	}
	patterns := append(a.notices, mapper.FromLint(res)...)
	a.emit(append(patterns, tr.patterns...))

	lintOK, testsOK := res.OK(), tr.summary.OK()
	switch {
	case !lintOK && !testsOK:
		return exitf(ExitFailure, "check failed: lint and tests")
	case !lintOK:
		return exitf(ExitFailure, "check failed: lint")
	case !testsOK:
		return exitf(ExitFailure, "check failed: tests")
	}
	return nil
}

func (a *app) runLint(ctx context.Context) lint.Result {
	c := lint.NewChecker(a.cfg.LintCommand(), a.root, a.log)
	c.Command = a.env.LintCommand
	res := c.Run(ctx)
	if !res.Available {
		a.log.Warn("style tool unavailable", "error", res.Err)
	}
	return res
}

// runTests discovers and executes the selection. listed is true when
// --list printed the methods instead.
func (a *app) runTests(ctx context.Context, args []string) (tr testRun, listed bool, err error) {
	l, err := loader.New(a.root, a.cfg.ExcludeDirs())
	if err != nil {
		return tr, false, exitf(ExitEnvironment, "%w", err)
	}
	sel := discovery.ParseSelector(args, a.cfg)
	found, err := discovery.New(a.cfg, l, a.log).Discover(ctx, sel)
	if err != nil {
		var se *discovery.SelectorError
		if errors.As(err, &se) {
			return tr, false, &exitError{code: ExitUsage, err: err}
		}
		return tr, false, exitf(ExitFailure, "discovery: %w", err)
	}
	for _, w := range found.Warnings {
		a.log.Warn("discovery warning", "kind", string(w.Kind), "module", w.Module, "problem", w.Message)
	}
	a.log.Info("discovered methods", "selector", sel.String(), "modules", len(found.Modules), "methods", len(found.Methods))

	if a.opts.list {
		for _, m := range found.Methods {
			fmt.Fprintln(a.env.Stdout, m.FullName())
		}
		return tr, true, nil
	}

	if len(found.Methods) > 0 {
		if _, err := a.env.LookPath(a.cfg.GoBinary()); err != nil {
			return tr, false, exitf(ExitEnvironment, "go toolchain %q not found: %w", a.cfg.GoBinary(), err)
		}
	}

	startedAt := a.env.Now()
	res := a.execute(ctx, found.Methods)
	s := res.Summary
	a.log.Info("run finished", "total", s.Total, "passed", s.Passed, "failed", s.Failed, "duration", s.Duration)

	patterns := []pattern.Pattern{mapper.FromDiscovery(found)}
	patterns = append(patterns, mapper.FromRun(s, found.Warnings)...)
	patterns = append(patterns, mapper.FromCoverage(res)...)
	if lb := mapper.FromTiming(s, slowestShown); lb != nil {
		patterns = append(patterns, lb)
	}

	runID := a.env.NewRunID()
	patterns = append(patterns, a.recordHistory(ctx, history.RunRecord{
		ID:        runID,
		Selector:  sel.String(),
		StartedAt: startedAt,
		Summary:   s,
		Coverage:  coveragePercent(res.Report),
	})...)
	a.exportMetrics(metrics.Run{ID: runID, Selector: sel.String()}, s, res.Report)

	return testRun{summary: s, patterns: patterns}, false, nil
}

// execute runs the batch, inside a coverage session when enabled.
func (a *app) execute(ctx context.Context, methods []inspect.Method) coverage.Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	observers, wait := a.observers(ctx, cancel, len(methods))
	eng := engine.New(a.invoker(), a.log, observers...)
	batch := func(profile func(inspect.Method) string) summary.RunSummary {
		outcomes := eng.Execute(ctx, methods, engine.Options{Profile: profile, Timeout: a.cfg.MethodTimeout()})
		return summary.Aggregate(outcomes)
	}

	var res coverage.Result
	if a.cfg.CoverageEnabled() && len(methods) > 0 {
		htmlDir := a.cfg.HTMLCoverageDir()
		if !filepath.IsAbs(htmlDir) {
			htmlDir = filepath.Join(a.root, htmlDir)
		}
		corr := coverage.NewCorrelator(a.instrument(), a.cfg.HTMLCoverage(), htmlDir, a.log)
		res = corr.WithCoverage(ctx, batch)
	} else {
		res = coverage.Result{Summary: batch(nil)}
	}
	wait()
	return res
}

// observers returns the progress display for the batch and a function
// that waits for it to finish.
func (a *app) observers(ctx context.Context, cancel context.CancelFunc, total int) ([]engine.Observer, func()) {
	if a.opts.tui && a.env.IsTerminal(a.env.Stdout) && a.format == render.FormatTerminal {
		events := make(chan engine.Event)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tui.Run(ctx, total, events)
			switch {
			case errors.Is(err, tui.ErrInterrupted):
				a.log.Warn("interrupted from progress view")
				cancel()
			case err != nil && ctx.Err() == nil:
				a.log.Warn("progress view failed", "error", err)
			}
		}()
		return []engine.Observer{engine.ChannelObserver(events)}, func() {
			close(events)
			wg.Wait()
		}
	}

	w := a.env.Stdout
	if a.format == render.FormatJSON {
		w = a.env.Stderr
	}
	color := a.format == render.FormatTerminal && !a.mono
	return []engine.Observer{engine.NewProgress(w, color)}, func() {}
}

func (a *app) invoker() engine.Invoker {
	if a.env.Invoker != nil {
		return a.env.Invoker(a.cfg, a.root, a.log)
	}
	return engine.NewGoInvoker(a.cfg.GoBinary(), a.root, a.log)
}

func (a *app) instrument() coverage.Instrument {
	if a.env.Instrument != nil {
		return a.env.Instrument(a.cfg, a.root, a.log)
	}
	return coverage.NewGoCover(a.cfg.GoBinary(), a.root, loader.ModulePath(a.root), a.log)
}

func (a *app) historyPath() string {
	p := a.cfg.HistoryDB()
	if p != "" && !filepath.IsAbs(p) {
		p = filepath.Join(a.root, p)
	}
	return p
}

// recordHistory stores the run and returns the trend sections. History
// problems are logged and never change the exit code.
func (a *app) recordHistory(ctx context.Context, rec history.RunRecord) []pattern.Pattern {
	path := a.historyPath()
	if path == "" {
		return nil
	}
	store, err := history.Open(ctx, path)
	if err != nil {
		a.log.Warn("history unavailable", "path", path, "error", err)
		return nil
	}
	defer store.Close()

	var patterns []pattern.Pattern
	if prev, err := store.Recent(ctx, 1); err != nil {
		a.log.Warn("read history", "error", err)
	} else if len(prev) == 1 {
		statuses, err := store.MethodStatuses(ctx, prev[0].ID)
		if err != nil {
			a.log.Warn("read previous statuses", "run", prev[0].ID, "error", err)
		} else if tt := mapper.NewlyFailing(statuses, rec.Summary); tt != nil {
			patterns = append(patterns, tt)
		}
	}

	if err := store.Record(ctx, rec); err != nil {
		a.log.Warn("record run", "run", rec.ID, "error", err)
		return patterns
	}
	a.log.Debug("recorded run", "run", rec.ID, "path", path)

	runs, err := store.Recent(ctx, historyShown)
	if err != nil {
		a.log.Warn("read history", "error", err)
		return patterns
	}
	return append(patterns, mapper.FromHistory(runs)...)
}

func (a *app) exportMetrics(run metrics.Run, s summary.RunSummary, cov *coverage.Report) {
	path := a.cfg.MetricsFile()
	if path == "" {
		return
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.root, path)
	}
	if err := metrics.Export(path, run, s, cov); err != nil {
		a.log.Warn("export metrics", "path", path, "error", err)
		return
	}
	a.log.Debug("exported metrics", "path", path)
}

func (a *app) showHistory(ctx context.Context) error {
	path := a.historyPath()
	if path == "" {
		return exitf(ExitUsage, "--history needs history_db in the configuration")
	}
	store, err := history.Open(ctx, path)
	if err != nil {
		return exitf(ExitEnvironment, "open history: %w", err)
	}
	defer store.Close()
	runs, err := store.Recent(ctx, a.opts.history)
	if err != nil {
		return exitf(ExitEnvironment, "read history: %w", err)
	}
	patterns := append([]pattern.Pattern{}, a.notices...)
	if tt := mapper.RunTable(runs); tt != nil {
		patterns = append(patterns, tt)
	}
	a.emit(append(patterns, mapper.FromHistory(runs)...))
	return nil
}

func coveragePercent(r *coverage.Report) float64 {
	if r == nil {
		return -1
	}
	return r.LinePercent()
}
