package engine

import (
	"context"
	"time"

	"github.com/dkoosis/testrules/internal/inspect"
	"github.com/dkoosis/testrules/internal/summary"
)

// InvokeOptions tune a single invocation.
type InvokeOptions struct {
	// CoverProfile is where the invocation writes its coverage profile.
	// Empty disables coverage for the invocation.
	CoverProfile string
	// Timeout bounds the invocation. Zero means no limit.
	Timeout time.Duration
}

// Invocation is the verdict of running one method in isolation.
type Invocation struct {
	Status  summary.Status
	Summary string // one-line failure reason
	Trace   string // full diagnostic output
}

// Invoker runs exactly one method and reports its verdict. Implementations
// must not return until the method has finished.
type Invoker interface {
	Invoke(ctx context.Context, m inspect.Method, opts InvokeOptions) Invocation
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, m inspect.Method, opts InvokeOptions) Invocation

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, m inspect.Method, opts InvokeOptions) Invocation {
	return f(ctx, m, opts)
}
