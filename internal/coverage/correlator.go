// Package coverage wraps a test run in a coverage session and summarises
// the collected profiles per source file.
package coverage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dkoosis/testrules/internal/inspect"
	"github.com/dkoosis/testrules/internal/summary"
)

// RunFunc executes the batch. profile is nil when coverage is not being
// collected.
type RunFunc func(profile func(inspect.Method) string) summary.RunSummary

// Result is a run together with its coverage.
type Result struct {
	Summary  summary.RunSummary
	Report   *Report // nil when no coverage was collected
	HTMLPath string
	// Notice explains why coverage is missing or incomplete.
	Notice string
}

// Correlator brackets one batch with a coverage session.
type Correlator struct {
	instrument Instrument
	html       bool
	htmlDir    string
	log        *slog.Logger
}

// NewCorrelator creates a Correlator. With html set, a report tree is
// written to htmlDir after the run.
func NewCorrelator(inst Instrument, html bool, htmlDir string, logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Correlator{instrument: inst, html: html, htmlDir: htmlDir, log: logger}
}

// WithCoverage runs the batch once inside a coverage session. The session
// is stopped and closed on every exit path, panics included. When the
// instrument is unavailable the batch runs uncovered and Notice says so.
func (c *Correlator) WithCoverage(ctx context.Context, run RunFunc) (res Result) {
	sess, err := c.instrument.Start(ctx)
	if err != nil {
		res.Notice = "Coverage not collected: " + err.Error()
		if errors.Is(err, ErrUnavailable) {
			c.log.Warn("coverage unavailable, running without it", "error", err)
		} else {
			c.log.Error("coverage session failed to start", "error", err)
		}
		res.Summary = run(nil)
		return res
	}

	stopped := false
	defer func() {
		if !stopped {
			if _, err := sess.Stop(ctx); err != nil {
				c.log.Warn("coverage stop after abort failed", "error", err)
			}
		}
		if err := sess.Close(); err != nil {
			c.log.Warn("coverage session cleanup failed", "error", err)
		}
	}()

	res.Summary = run(sess.ProfilePath)

	rep, err := sess.Stop(ctx)
	stopped = true
	if err != nil {
		res.Notice = "Coverage report failed: " + err.Error()
		c.log.Error("coverage stop failed", "error", err)
		return res
	}
	res.Report = rep

	if c.html {
		path, err := sess.WriteHTML(ctx, c.htmlDir)
		if err != nil {
			res.Notice = "HTML coverage report not written: " + err.Error()
			c.log.Warn("html coverage failed", "error", err)
			return res
		}
		res.HTMLPath = path
		c.log.Info("html coverage written", "path", path)
	}
	return res
}
