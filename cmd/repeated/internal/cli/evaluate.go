package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/example/turboci-repeated/internal/observability"
	"github.com/example/turboci-repeated/internal/storage"
	"github.com/example/turboci-repeated/internal/storage/sqlite"
	"github.com/example/turboci-repeated/pkg/id"
	"github.com/example/turboci-repeated/repeated/domain"
	"github.com/example/turboci-repeated/repeated/report"
	"github.com/example/turboci-repeated/repeated/trial"
)

// evaluator runs command tests through the report adapter and prints,
// measures and optionally stores each result.
type evaluator struct {
	app     *app
	logger  *zap.Logger
	adapter *report.Adapter
	sink    *report.WriterSink
	metrics *observability.Metrics
	store   storage.Storage
}

func (a *app) newEvaluator(ctx context.Context, historyPath string) (*evaluator, error) {
	logger := observability.NewLogger(a.verbosity, a.errOut)
	sink := report.NewWriterSink(a.out)
	sink.Style = a.ui().Symbol

	e := &evaluator{
		app:     a,
		logger:  logger,
		adapter: report.NewAdapter(logger, a.verbosity),
		sink:    sink,
		metrics: observability.NewMetrics(),
	}
	if historyPath != "" {
		store, err := openHistory(ctx, historyPath)
		if err != nil {
			return nil, err
		}
		e.store = store
	}
	return e, nil
}

func openHistory(ctx context.Context, path string) (*sqlite.SQLiteStorage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

func (e *evaluator) Close() {
	_ = e.logger.Sync()
	if e.store != nil {
		_ = e.store.Close()
	}
}

// evaluate runs one command test and publishes its result.
func (e *evaluator) evaluate(ctx context.Context, testID string, cfg domain.Config, cmd *trial.Command) (*report.Result, error) {
	e.logger.Info("evaluating", zap.String("test", testID), zap.Stringer("config", cfg),
		zap.String("command", cmd.Command))

	started := time.Now()
	res, err := e.adapter.Evaluate(ctx, report.NewItem(testID, &cfg, cmd))
	if err != nil {
		return nil, err
	}
	finished := time.Now()

	report.Publish(e.sink, res)
	if !res.Verdict.Passed() && res.Report.LongRepr != "" {
		fmt.Fprintln(e.app.errOut, res.Report.LongRepr)
	}

	e.metrics.ObserveRecord(testID, res.Record)
	e.metrics.ObserveVerdict(res.Verdict)
	if e.app.verbosity >= domain.VerbosityCounts && res.Record != nil {
		s := observability.Summarize(res.Record.Durations())
		e.app.ui().Info(e.app.ui().Muted(fmt.Sprintf("trial durations: mean %s  p50 %s  p95 %s  max %s",
			s.Mean.Round(time.Millisecond), s.P50.Round(time.Millisecond),
			s.P95.Round(time.Millisecond), s.Max.Round(time.Millisecond))))
	}

	if e.store != nil {
		run := storage.NewRun(id.NewRunID(), testID, cmd.Command, cfg, res, started, finished)
		err := storage.WithTx(ctx, e.store, func(uow storage.UnitOfWork) error {
			return uow.Runs().Create(ctx, run)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record history: %w", err)
		}
		e.logger.Debug("stored run", zap.String("run", run.ID), zap.String("test", testID))
	}
	return res, nil
}
