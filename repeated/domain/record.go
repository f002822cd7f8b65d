package domain

import "time"

// TrialOutcome represents the result of a single trial.
type TrialOutcome int

const (
	OutcomeUnknown TrialOutcome = iota
	OutcomePass                 // Trial completed without failure
	OutcomeFail                 // Trial failed an assertion
	OutcomeError                // Trial raised an unexpected error
)

func (o TrialOutcome) String() string {
	switch o {
	case OutcomePass:
		return "PASS"
	case OutcomeFail:
		return "FAIL"
	case OutcomeError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// TrialResult captures the outcome of one execution of a test body.
type TrialResult struct {
	// Index is which trial this result is for (1-based).
	Index int

	// Outcome is the trial result.
	Outcome TrialOutcome

	// Detail is the failure text. Empty for passing trials.
	Detail string

	// Output is the captured stdout and stderr of a failed trial.
	Output string

	// Duration is how long the trial took.
	Duration time.Duration
}

// Passed returns true if the trial passed.
func (r TrialResult) Passed() bool {
	return r.Outcome == OutcomePass
}

// TrialRecord is the ordered outcome list for one test.
type TrialRecord struct {
	// Configured is the number of trials requested.
	Configured int

	// Trials are the executed trials in order.
	Trials []TrialResult

	// Passes is the number of passing trials.
	Passes int

	// ActualRuns is the number of trials executed. Less than Configured
	// after an early stop.
	ActualRuns int

	// LastFailure is the most recent trial failure, or nil.
	LastFailure error
}

// NewTrialRecord creates an empty record for the given number of trials.
func NewTrialRecord(configured int) *TrialRecord {
	return &TrialRecord{
		Configured: configured,
		Trials:     make([]TrialResult, 0, configured),
	}
}

// Record appends a trial result. A non-nil err becomes the Last Failure.
func (r *TrialRecord) Record(result TrialResult, err error) {
	r.Trials = append(r.Trials, result)
	r.ActualRuns++
	if result.Outcome == OutcomePass {
		r.Passes++
	}
	if err != nil {
		r.LastFailure = err
	}
}

// Abort records an error that stopped the run before the next trial started.
func (r *TrialRecord) Abort(err error) {
	r.LastFailure = err
}

// Failures returns the number of executed trials that did not pass.
func (r *TrialRecord) Failures() int {
	return r.ActualRuns - r.Passes
}

// Unexpected returns true if the Last Failure is not assertion-style.
func (r *TrialRecord) Unexpected() bool {
	return r.LastFailure != nil && !IsAssertion(r.LastFailure)
}

// StoppedEarly returns true if fewer trials ran than were configured.
func (r *TrialRecord) StoppedEarly() bool {
	return r.ActualRuns < r.Configured
}

// AllPassed returns true if at least one trial ran and none failed.
func (r *TrialRecord) AllPassed() bool {
	return r.ActualRuns > 0 && r.Passes == r.ActualRuns
}

// Fraction returns the pass count over actual runs, e.g. "(2/5)".
func (r *TrialRecord) Fraction() string {
	return "(" + itoa(r.Passes) + "/" + itoa(r.ActualRuns) + ")"
}

// Durations returns the per-trial durations in order.
func (r *TrialRecord) Durations() []time.Duration {
	out := make([]time.Duration, len(r.Trials))
	for i, t := range r.Trials {
		out[i] = t.Duration
	}
	return out
}
