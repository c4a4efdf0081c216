// Package interp defines the code-execution capability the kernel
// dispatches to. The kernel core never inspects runtime internals;
// any language runtime fits behind Executor.
package interp

import "context"

// Result is the outcome of one execution. Only OK is mandatory; the
// rest is populated as the runtime produces it.
type Result struct {
	OK         bool
	Value      string
	Stdout     string
	Stderr     string
	ErrName    string
	ErrMessage string
	Traceback  []string
}

// Executor runs one source fragment. Implementations should honor ctx
// cancellation on a best-effort basis; a runtime that cannot be
// preempted may keep running after an interrupt.
type Executor interface {
	Execute(ctx context.Context, source string) (Result, error)
}

// Func adapts a function into an Executor.
type Func func(ctx context.Context, source string) (Result, error)

func (f Func) Execute(ctx context.Context, source string) (Result, error) {
	return f(ctx, source)
}
