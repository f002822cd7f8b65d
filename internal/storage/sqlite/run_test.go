package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/turboci-repeated/internal/storage"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeRun(id, testID, outcome string, passes, runs int, started time.Time) *storage.Run {
	p := 0.021
	run := &storage.Run{
		ID:         id,
		TestID:     testID,
		Command:    "go test ./...",
		Config:     "times=5 null=0.5 ci=0.95",
		Rule:       "frequentist",
		Times:      5,
		Passes:     passes,
		ActualRuns: runs,
		Outcome:    outcome,
		Summary:    "(p=0.021)",
		Value:      &p,
		Method:     "exact_binomial",
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}
	for i := 1; i <= runs; i++ {
		outcome := "PASS"
		detail := ""
		if i > passes {
			outcome, detail = "FAIL", fmt.Sprintf("trial %d failed", i)
		}
		run.Trials = append(run.Trials, storage.Trial{
			Index: i, Outcome: outcome, Detail: detail, Duration: time.Duration(i) * time.Millisecond,
		})
	}
	return run
}

func TestRunCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := storage.WithTx(ctx, s, func(uow storage.UnitOfWork) error {
		return uow.Runs().Create(ctx, makeRun("run-1", "TestFlaky", "PASS", 4, 5, started))
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	uow, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer uow.Rollback()

	run, err := uow.Runs().Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if run.TestID != "TestFlaky" || run.Passes != 4 || run.ActualRuns != 5 {
		t.Errorf("run = %+v", run)
	}
	if run.Value == nil || *run.Value != 0.021 {
		t.Errorf("Value = %v, want 0.021", run.Value)
	}
	if !run.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", run.StartedAt, started)
	}
	if len(run.Trials) != 5 {
		t.Fatalf("got %d trials, want 5", len(run.Trials))
	}
	if run.Trials[4].Outcome != "FAIL" || run.Trials[4].Detail != "trial 5 failed" {
		t.Errorf("trial 5 = %+v", run.Trials[4])
	}
	if run.Trials[2].Duration != 3*time.Millisecond {
		t.Errorf("trial 3 duration = %v", run.Trials[2].Duration)
	}
}

func TestRunGetNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	err := storage.WithTx(ctx, s, func(uow storage.UnitOfWork) error {
		_, err := uow.Runs().Get(ctx, "missing")
		return err
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get = %v, want ErrNotFound", err)
	}
}

func TestRunListAndSummarize(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := storage.WithTx(ctx, s, func(uow storage.UnitOfWork) error {
		runs := []*storage.Run{
			makeRun("a", "TestA", "PASS", 5, 5, base),
			makeRun("b", "TestA", "FAIL", 2, 5, base.Add(time.Hour)),
			makeRun("c", "TestB", "PASS", 3, 3, base.Add(2*time.Hour)),
		}
		for _, run := range runs {
			if err := uow.Runs().Create(ctx, run); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err = storage.WithTx(ctx, s, func(uow storage.UnitOfWork) error {
		all, err := uow.Runs().List(ctx, storage.ListOptions{})
		if err != nil {
			return err
		}
		if len(all) != 3 || all[0].ID != "c" {
			t.Errorf("List = %d runs, first %q; want 3, newest first", len(all), all[0].ID)
		}

		failed, err := uow.Runs().List(ctx, storage.ListOptions{TestID: "TestA", Outcomes: []string{"FAIL"}})
		if err != nil {
			return err
		}
		if len(failed) != 1 || failed[0].ID != "b" {
			t.Errorf("filtered List = %v", failed)
		}

		limited, err := uow.Runs().List(ctx, storage.ListOptions{Limit: 1, Offset: 1})
		if err != nil {
			return err
		}
		if len(limited) != 1 || limited[0].ID != "b" {
			t.Errorf("paged List = %v", limited)
		}

		summary, err := uow.Runs().Summarize(ctx, "TestA")
		if err != nil {
			return err
		}
		if summary.Runs != 2 || summary.PassedRuns != 1 || summary.Trials != 10 || summary.PassedTrials != 7 {
			t.Errorf("summary = %+v", summary)
		}
		if summary.PassRate() != 0.7 {
			t.Errorf("PassRate = %v, want 0.7", summary.PassRate())
		}
		if !summary.LastRunAt.Equal(base.Add(time.Hour)) {
			t.Errorf("LastRunAt = %v", summary.LastRunAt)
		}

		_, err = uow.Runs().Summarize(ctx, "TestMissing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Summarize missing = %v, want ErrNotFound", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
}

func TestRunDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	err := storage.WithTx(ctx, s, func(uow storage.UnitOfWork) error {
		if err := uow.Runs().Create(ctx, makeRun("x", "TestX", "PASS", 1, 1, time.Now().UTC())); err != nil {
			return err
		}
		if err := uow.Runs().Delete(ctx, "x"); err != nil {
			return err
		}
		if err := uow.Runs().Delete(ctx, "x"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("second Delete = %v, want ErrNotFound", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
}
