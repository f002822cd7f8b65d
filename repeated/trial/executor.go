// Package trial runs a test body repeatedly and records the outcome of each
// execution.
package trial

import (
	"context"
)

// Executor executes one trial of a test body.
//
// A nil error is a passing trial. An error satisfying domain.IsAssertion is
// an expected failure and the next trial runs. Any other error, including a
// panic, is unexpected and stops the run.
type Executor interface {
	RunTrial(ctx context.Context, index int) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, index int) error

// RunTrial implements Executor.
func (f ExecutorFunc) RunTrial(ctx context.Context, index int) error {
	return f(ctx, index)
}

// Func adapts a body that reports failure through its return value.
func Func(fn func() error) Executor {
	return ExecutorFunc(func(context.Context, int) error {
		return fn()
	})
}

// Body adapts a body written against the T handle, in the style of a Go
// test function. name is reported by T.Name.
func Body(name string, fn func(t *T)) Executor {
	return ExecutorFunc(func(ctx context.Context, index int) error {
		t := newT(ctx, name, index)
		return t.run(fn)
	})
}
