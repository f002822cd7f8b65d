package trial

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/turboci-repeated/repeated/domain"
)

func TestRunnerMixedOutcomes(t *testing.T) {
	exec := NewFakeExecutor().WithFailuresOn(2, 4, 5)

	record := NewRunner(nil).Run(context.Background(), exec, 5, domain.VerbositySummary)

	if record.Passes != 2 || record.ActualRuns != 5 {
		t.Fatalf("got %d/%d, want 2/5", record.Passes, record.ActualRuns)
	}
	if got := record.Fraction(); got != "(2/5)" {
		t.Errorf("Fraction = %q, want (2/5)", got)
	}
	if !domain.IsAssertion(record.LastFailure) {
		t.Errorf("LastFailure = %v, want assertion", record.LastFailure)
	}

	want := []domain.TrialOutcome{
		domain.OutcomePass, domain.OutcomeFail, domain.OutcomePass, domain.OutcomeFail, domain.OutcomeFail,
	}
	for i, trial := range record.Trials {
		if trial.Index != i+1 {
			t.Errorf("trial %d has index %d", i, trial.Index)
		}
		if trial.Outcome != want[i] {
			t.Errorf("trial %d outcome = %s, want %s", i+1, trial.Outcome, want[i])
		}
	}
}

func TestRunnerStopsOnUnexpectedError(t *testing.T) {
	exec := NewFakeExecutor().
		WithErrorOn(1, ErrFakeInfra).
		WithErrorOn(2, ErrFakeInfra).
		WithErrorOn(3, ErrFakeInfra)

	record := NewRunner(nil).Run(context.Background(), exec, 3, domain.VerbositySummary)

	if record.ActualRuns != 1 {
		t.Fatalf("ActualRuns = %d, want 1", record.ActualRuns)
	}
	if calls := exec.Calls(); len(calls) != 1 {
		t.Errorf("executor called %d times, want 1", len(calls))
	}
	if !record.Unexpected() {
		t.Error("record should carry an unexpected failure")
	}
	if record.Trials[0].Outcome != domain.OutcomeError {
		t.Errorf("outcome = %s, want ERROR", record.Trials[0].Outcome)
	}
}

func TestRunnerEarlyStopAtTrialK(t *testing.T) {
	for k := 1; k <= 6; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			exec := NewFakeExecutor().WithErrorOn(k, ErrFakeInfra)
			record := NewRunner(nil).Run(context.Background(), exec, 6, domain.VerbositySummary)

			if record.ActualRuns != k {
				t.Errorf("ActualRuns = %d, want %d", record.ActualRuns, k)
			}
			calls := exec.Calls()
			if len(calls) != k || calls[len(calls)-1] != k {
				t.Errorf("calls = %v, want 1..%d", calls, k)
			}
		})
	}
}

func TestRunnerRecoversPanics(t *testing.T) {
	exec := ExecutorFunc(func(context.Context, int) error {
		var m map[string]int
		m["boom"]++
		return nil
	})

	record := NewRunner(nil).Run(context.Background(), exec, 4, domain.VerbositySummary)

	var panicErr *domain.PanicError
	if !errors.As(record.LastFailure, &panicErr) {
		t.Fatalf("LastFailure = %v, want PanicError", record.LastFailure)
	}
	if record.ActualRuns != 1 {
		t.Errorf("ActualRuns = %d, want 1", record.ActualRuns)
	}
}

func TestRunnerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := ExecutorFunc(func(_ context.Context, index int) error {
		if index == 2 {
			cancel()
		}
		return nil
	})

	record := NewRunner(nil).Run(ctx, exec, 5, domain.VerbositySummary)

	assert.Equal(t, 2, record.ActualRuns)
	assert.ErrorIs(t, record.LastFailure, context.Canceled)
	assert.True(t, record.Unexpected())
}

func TestRunnerCapturesOutput(t *testing.T) {
	stdout, stderr := os.Stdout, os.Stderr
	exec := ExecutorFunc(func(_ context.Context, index int) error {
		fmt.Printf("stdout from trial %d\n", index)
		fmt.Fprintf(os.Stderr, "stderr from trial %d\n", index)
		if index == 2 {
			return domain.Assertionf("trial %d failed", index)
		}
		return nil
	})

	record := NewRunner(nil).Run(context.Background(), exec, 2, domain.VerbosityCounts)

	if os.Stdout != stdout || os.Stderr != stderr {
		t.Fatal("standard streams were not restored")
	}
	if record.Trials[0].Output != "" {
		t.Errorf("passing trial kept output %q", record.Trials[0].Output)
	}
	out := record.Trials[1].Output
	if !strings.Contains(out, "stdout from trial 2") || !strings.Contains(out, "stderr from trial 2") {
		t.Errorf("failing trial output = %q", out)
	}
}

func TestRunnerRestoresStreamsAfterPanic(t *testing.T) {
	stdout := os.Stdout
	exec := ExecutorFunc(func(context.Context, int) error {
		fmt.Println("about to panic")
		panic("kaboom")
	})

	record := NewRunner(nil).Run(context.Background(), exec, 1, domain.VerbositySummary)

	if os.Stdout != stdout {
		t.Fatal("stdout was not restored")
	}
	assert.Contains(t, record.Trials[0].Output, "about to panic")
	assert.Contains(t, record.Trials[0].Detail, "kaboom")
}

func TestRunnerPassthroughAtHighVerbosity(t *testing.T) {
	exec := ExecutorFunc(func(context.Context, int) error {
		return domain.Assertionf("nope")
	})

	record := NewRunner(nil).Run(context.Background(), exec, 1, domain.VerbosityTrials)

	assert.Empty(t, record.Trials[0].Output)
	assert.Equal(t, "nope", record.Trials[0].Detail)
}

func TestRunnerRecordsDuration(t *testing.T) {
	exec := NewFakeExecutor().WithDelay(5 * time.Millisecond)

	record := NewRunner(nil).Run(context.Background(), exec, 2, domain.VerbositySummary)

	for _, trial := range record.Trials {
		if trial.Duration < 5*time.Millisecond {
			t.Errorf("trial %d duration = %v", trial.Index, trial.Duration)
		}
	}
}

func TestFakeExecutorFlakeRateIsSeeded(t *testing.T) {
	run := func() []domain.TrialOutcome {
		exec := NewFakeExecutor().WithFlakeRate(0.5).WithSeed(7)
		record := NewRunner(nil).Run(context.Background(), exec, 20, domain.VerbositySummary)
		outcomes := make([]domain.TrialOutcome, len(record.Trials))
		for i, trial := range record.Trials {
			outcomes[i] = trial.Outcome
		}
		return outcomes
	}

	first, second := run(), run()
	require.Len(t, first, 20)
	assert.Equal(t, first, second)
}

func TestUnmetThreshold(t *testing.T) {
	failure := domain.Assertionf("last")

	tests := []struct {
		name    string
		passes  int
		runs    int
		last    error
		rule    domain.Rule
		wantNil bool
	}{
		{"met", 2, 5, failure, domain.ThresholdRule{Threshold: 2}, true},
		{"unmet", 1, 5, failure, domain.ThresholdRule{Threshold: 2}, false},
		{"zero threshold", 0, 5, failure, domain.ThresholdRule{Threshold: 0}, true},
		{"statistical rule", 0, 5, failure, domain.FrequentistRule{Null: 0.5, CI: 0.95}, true},
		{"unmet without failure", 2, 2, nil, domain.ThresholdRule{Threshold: 3}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			record := &domain.TrialRecord{Passes: tc.passes, ActualRuns: tc.runs, LastFailure: tc.last}
			err := UnmetThreshold(record, tc.rule)
			if (err == nil) != tc.wantNil {
				t.Fatalf("UnmetThreshold = %v, wantNil %v", err, tc.wantNil)
			}
			if err != nil && tc.last != nil && err != tc.last {
				t.Errorf("UnmetThreshold = %v, want the last failure", err)
			}
		})
	}
}
