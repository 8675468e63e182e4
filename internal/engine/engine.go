// Package engine runs discovered test methods one at a time and records
// an outcome for each.
//
// Methods run sequentially in discovery order. A method that fails, errors
// or brings down its invoker never stops the remaining ones.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/dkoosis/testrules/internal/inspect"
	"github.com/dkoosis/testrules/internal/summary"
)

// Observer is notified around every method. Calls happen on the
// goroutine running Execute.
type Observer interface {
	MethodStarted(i, n int, m inspect.Method)
	MethodFinished(i, n int, o summary.MethodOutcome)
}

// Options apply to a whole batch.
type Options struct {
	// Profile returns the coverage profile path for a method, or "" to run
	// it without coverage. Nil disables coverage.
	Profile func(inspect.Method) string
	// Timeout bounds each method. Zero disables it.
	Timeout time.Duration
}

// Engine executes methods through an Invoker.
type Engine struct {
	invoker   Invoker
	log       *slog.Logger
	observers []Observer
	now       func() time.Time
}

// New creates an Engine.
func New(inv Invoker, logger *slog.Logger, observers ...Observer) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{invoker: inv, log: logger, observers: observers, now: time.Now}
}

// Execute runs methods in order and returns one outcome per executed
// method, in the same order. It stops early only when ctx is cancelled.
func (e *Engine) Execute(ctx context.Context, methods []inspect.Method, opts Options) []summary.MethodOutcome {
	outcomes := make([]summary.MethodOutcome, 0, len(methods))
	n := len(methods)
	for i, m := range methods {
		if err := ctx.Err(); err != nil {
			e.log.Warn("run interrupted", "executed", i, "total", n, "error", err)
			break
		}
		for _, o := range e.observers {
			o.MethodStarted(i+1, n, m)
		}

		out := e.runOne(ctx, m, opts)
		outcomes = append(outcomes, out)

		e.log.Debug("method finished", "method", m.FullName(), "status", string(out.Status), "duration", out.Duration)
		for _, o := range e.observers {
			o.MethodFinished(i+1, n, out)
		}
	}
	return outcomes
}

func (e *Engine) runOne(ctx context.Context, m inspect.Method, opts Options) (out summary.MethodOutcome) {
	invokeOpts := InvokeOptions{Timeout: opts.Timeout}
	if opts.Profile != nil {
		invokeOpts.CoverProfile = opts.Profile(m)
	}

	start := e.now()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("invoker panicked", "method", m.FullName(), "panic", r)
			out = summary.NewOutcome(m, summary.StatusErrored, e.now().Sub(start),
				fmt.Sprintf("invoker panicked: %v", r), string(debug.Stack()))
		}
	}()

	inv := e.invoker.Invoke(ctx, m, invokeOpts)
	elapsed := e.now().Sub(start)
	status := inv.Status
	if status == "" {
		status = summary.StatusErrored
	}
	return summary.NewOutcome(m, status, elapsed, inv.Summary, inv.Trace)
}
