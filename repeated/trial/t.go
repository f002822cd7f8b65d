package trial

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/example/turboci-repeated/repeated/domain"
)

// T is the handle passed to a trial body. It records failures the way
// testing.T does, but a failure ends only the current trial. T satisfies
// require.TestingT and assert.TestingT.
type T struct {
	ctx   context.Context
	name  string
	index int

	mu       sync.Mutex
	failed   bool
	messages []string
	logs     []string
	cleanups []func()
}

// failNow is the panic value FailNow uses to unwind the body.
type failNow struct{}

func newT(ctx context.Context, name string, index int) *T {
	return &T{ctx: ctx, name: name, index: index}
}

// Name returns the test name with the trial index appended.
func (t *T) Name() string {
	return fmt.Sprintf("%s#%d", t.name, t.index)
}

// Trial returns the 1-based trial index.
func (t *T) Trial() int { return t.index }

// Context returns the context of the run.
func (t *T) Context() context.Context { return t.ctx }

// Helper is a no-op; it exists for compatibility with testing.TB helpers.
func (t *T) Helper() {}

// Fail marks the trial as failed and continues execution.
func (t *T) Fail() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed = true
}

// Failed reports whether the trial has failed.
func (t *T) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

// FailNow marks the trial as failed and stops its execution.
func (t *T) FailNow() {
	t.Fail()
	panic(failNow{})
}

// Error is equivalent to Log followed by Fail.
func (t *T) Error(args ...any) {
	t.fail(fmt.Sprintln(args...))
}

// Errorf is equivalent to Logf followed by Fail.
func (t *T) Errorf(format string, args ...any) {
	t.fail(fmt.Sprintf(format, args...))
}

// Fatal is equivalent to Log followed by FailNow.
func (t *T) Fatal(args ...any) {
	t.fail(fmt.Sprintln(args...))
	t.FailNow()
}

// Fatalf is equivalent to Logf followed by FailNow.
func (t *T) Fatalf(format string, args ...any) {
	t.fail(fmt.Sprintf(format, args...))
	t.FailNow()
}

// Log records text in the trial log.
func (t *T) Log(args ...any) {
	t.log(fmt.Sprintln(args...))
}

// Logf records formatted text in the trial log.
func (t *T) Logf(format string, args ...any) {
	t.log(fmt.Sprintf(format, args...))
}

// Cleanup registers a function to run when the trial ends. Cleanups run in
// last-added, first-called order.
func (t *T) Cleanup(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleanups = append(t.cleanups, fn)
}

func (t *T) fail(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed = true
	t.messages = append(t.messages, strings.TrimRight(msg, "\n"))
}

func (t *T) log(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logs = append(t.logs, strings.TrimRight(msg, "\n"))
}

// run executes fn and converts the trial state into an error.
func (t *T) run(fn func(t *T)) (err error) {
	defer func() {
		t.runCleanups()
		rec := recover()
		switch rec.(type) {
		case nil:
		case failNow:
			err = t.assertion()
			return
		default:
			err = &domain.PanicError{Value: rec, Stack: debug.Stack()}
			return
		}
		if t.Failed() {
			err = t.assertion()
		}
	}()
	fn(t)
	return nil
}

func (t *T) runCleanups() {
	t.mu.Lock()
	cleanups := t.cleanups
	t.cleanups = nil
	t.mu.Unlock()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

func (t *T) assertion() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := append([]string(nil), t.messages...)
	if len(t.logs) > 0 {
		lines = append(lines, t.logs...)
	}
	if len(lines) == 0 {
		return &domain.AssertionError{Message: t.name + " failed"}
	}
	return &domain.AssertionError{Message: strings.Join(lines, "\n")}
}
