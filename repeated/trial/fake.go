package trial

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/example/turboci-repeated/repeated/domain"
)

// FakeExecutor is a test double for Executor.
// It returns scripted outcomes per trial, or simulates a flaky body.
type FakeExecutor struct {
	mu sync.Mutex

	// Failures maps 1-based trial indices to the error that trial returns.
	Failures map[int]error

	// FlakeRate is the probability that an unscripted trial fails (0-1).
	FlakeRate float64

	// Delay adds artificial delay to each trial.
	Delay time.Duration

	// Seed is the random seed for reproducibility (0 for random).
	Seed int64

	calls []int
	rng   *rand.Rand
}

// NewFakeExecutor creates a FakeExecutor whose trials all pass.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{
		Failures: make(map[int]error),
	}
}

// WithFailuresOn makes the given trials fail with an assertion error.
func (f *FakeExecutor) WithFailuresOn(indices ...int) *FakeExecutor {
	for _, i := range indices {
		f.Failures[i] = domain.Assertionf("scripted failure on trial %d", i)
	}
	return f
}

// WithErrorOn makes the given trial return err.
func (f *FakeExecutor) WithErrorOn(index int, err error) *FakeExecutor {
	f.Failures[index] = err
	return f
}

// WithFlakeRate sets the flake rate.
func (f *FakeExecutor) WithFlakeRate(rate float64) *FakeExecutor {
	f.FlakeRate = rate
	return f
}

// WithSeed sets the random seed for reproducibility.
func (f *FakeExecutor) WithSeed(seed int64) *FakeExecutor {
	f.Seed = seed
	return f
}

// WithDelay sets an artificial delay for each trial.
func (f *FakeExecutor) WithDelay(delay time.Duration) *FakeExecutor {
	f.Delay = delay
	return f
}

// RunTrial implements Executor.
func (f *FakeExecutor) RunTrial(ctx context.Context, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rng == nil {
		if f.Seed == 0 {
			f.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		} else {
			f.rng = rand.New(rand.NewSource(f.Seed))
		}
	}

	f.calls = append(f.calls, index)

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err, ok := f.Failures[index]; ok {
		return err
	}
	if f.FlakeRate > 0 && f.rng.Float64() < f.FlakeRate {
		return domain.Assertionf("simulated flake on trial %d", index)
	}
	return nil
}

// Calls returns the trial indices executed so far.
func (f *FakeExecutor) Calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.calls))
	copy(out, f.calls)
	return out
}

// Reset clears all recorded calls.
func (f *FakeExecutor) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.rng = nil
}

// ErrFakeInfra is a ready-made unexpected error for tests.
var ErrFakeInfra = errors.New("simulated infrastructure failure")
