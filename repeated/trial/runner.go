package trial

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/example/turboci-repeated/repeated/domain"
)

// Runner executes trials sequentially and builds the trial record.
type Runner struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewRunner creates a new Runner. A nil logger discards log output.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		logger: logger,
		now:    time.Now,
	}
}

// Run executes up to times trials of exec. An unexpected error stops the run
// after the trial that raised it. Below domain.VerbosityTrials the standard
// streams are captured per trial and kept only for failing trials.
func (r *Runner) Run(ctx context.Context, exec Executor, times, verbosity int) *domain.TrialRecord {
	record := domain.NewTrialRecord(times)
	capture := verbosity < domain.VerbosityTrials

	for i := 1; i <= times; i++ {
		if err := ctx.Err(); err != nil {
			record.Abort(fmt.Errorf("trial %d not started: %w", i, err))
			r.logger.Warn("run cancelled",
				zap.Int("completed", record.ActualRuns),
				zap.Int("configured", times),
				zap.Error(err))
			break
		}

		result, err := r.runOne(ctx, exec, i, capture)
		record.Record(result, err)

		r.logger.Debug("trial finished",
			zap.Int("trial", i),
			zap.Int("of", times),
			zap.Stringer("outcome", result.Outcome),
			zap.Duration("duration", result.Duration))

		if result.Outcome == domain.OutcomeError {
			r.logger.Debug("stopping after unexpected error",
				zap.Int("trial", i),
				zap.Error(err))
			break
		}
	}

	return record
}

func (r *Runner) runOne(ctx context.Context, exec Executor, index int, capture bool) (domain.TrialResult, error) {
	var err error
	call := func() { err = safeRun(ctx, exec, index) }

	start := r.now()
	var output string
	if capture {
		output = captureOutput(call)
	} else {
		call()
	}

	result := domain.TrialResult{
		Index:    index,
		Outcome:  classify(err),
		Duration: r.now().Sub(start),
	}
	if err != nil {
		result.Detail = err.Error()
		result.Output = output
	}
	return result, err
}

// safeRun converts a panic in the executor into a domain.PanicError.
func safeRun(ctx context.Context, exec Executor, index int) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &domain.PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return exec.RunTrial(ctx, index)
}

func classify(err error) domain.TrialOutcome {
	switch {
	case err == nil:
		return domain.OutcomePass
	case domain.IsAssertion(err):
		return domain.OutcomeFail
	default:
		return domain.OutcomeError
	}
}

// UnmetThreshold returns the failure to re-raise when a threshold rule was
// not met, or nil. Statistical rules never re-raise; their failures are
// reported as diagnostics.
func UnmetThreshold(record *domain.TrialRecord, rule domain.Rule) error {
	threshold, ok := rule.(domain.ThresholdRule)
	if !ok || threshold.Threshold == 0 || record.Passes >= threshold.Threshold {
		return nil
	}
	if record.LastFailure != nil {
		return record.LastFailure
	}
	return domain.Assertionf("%d of %d trials passed, %d required",
		record.Passes, record.ActualRuns, threshold.Threshold)
}
