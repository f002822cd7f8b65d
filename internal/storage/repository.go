package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested run doesn't exist.
var ErrNotFound = errors.New("not found")

// Run is one stored evaluation of a repeated test.
type Run struct {
	ID         string
	TestID     string
	Command    string
	Config     string
	Rule       string
	Times      int
	Passes     int
	ActualRuns int
	Outcome    string
	Summary    string
	Value      *float64
	Method     string
	Overridden bool
	StartedAt  time.Time
	FinishedAt time.Time

	// Trials are the per-trial results in order.
	Trials []Trial
}

// Passed returns true if the stored verdict is PASS.
func (r *Run) Passed() bool {
	return r.Outcome == "PASS"
}

// Duration returns the wall time of the run.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Trial is one stored trial of a run.
type Trial struct {
	Index    int
	Outcome  string
	Detail   string
	Duration time.Duration
}

// TestSummary aggregates the stored history of one test.
type TestSummary struct {
	TestID       string
	Runs         int
	PassedRuns   int
	Trials       int
	PassedTrials int
	LastRunAt    time.Time
}

// PassRate returns the fraction of stored trials that passed.
func (s TestSummary) PassRate() float64 {
	if s.Trials == 0 {
		return 0
	}
	return float64(s.PassedTrials) / float64(s.Trials)
}

// ListOptions provides filtering options for list operations.
type ListOptions struct {
	// TestID to filter by (empty = all)
	TestID string

	// Outcomes to filter by (empty = all)
	Outcomes []string

	// Pagination
	Limit  int
	Offset int
}

// RunRepository provides access to Run storage.
type RunRepository interface {
	// Create stores a new Run with its trials.
	Create(ctx context.Context, run *Run) error

	// Get retrieves a Run and its trials by ID.
	Get(ctx context.Context, id string) (*Run, error)

	// List lists Runs, newest first, without their trials.
	List(ctx context.Context, opts ListOptions) ([]*Run, error)

	// Summarize aggregates the stored runs of a test.
	Summarize(ctx context.Context, testID string) (*TestSummary, error)

	// Delete deletes a Run and its trials.
	Delete(ctx context.Context, id string) error
}

// UnitOfWork provides transactional access to all repositories.
type UnitOfWork interface {
	// Repository accessors
	Runs() RunRepository

	// Transaction control
	Commit() error
	Rollback() error
}

// Storage provides the main entry point for storage operations.
type Storage interface {
	// Begin starts a new transaction and returns a UnitOfWork.
	Begin(ctx context.Context) (UnitOfWork, error)

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate(ctx context.Context) error
}

// WithTx runs fn in a transaction, committing on success.
func WithTx(ctx context.Context, s Storage, fn func(uow UnitOfWork) error) error {
	uow, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(uow); err != nil {
		_ = uow.Rollback()
		return err
	}
	return uow.Commit()
}
