package report

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/example/turboci-repeated/repeated/domain"
	"github.com/example/turboci-repeated/repeated/trial"
	"github.com/example/turboci-repeated/repeated/verdict"
)

// Item is a test known to the host runner.
type Item interface {
	// ID identifies the test. It keys the adapter's per-test state.
	ID() string

	// Config returns the repeated-trial configuration, if the test has one.
	Config() (domain.Config, bool)

	// Executor returns the test body.
	Executor() trial.Executor
}

type item struct {
	id     string
	config *domain.Config
	exec   trial.Executor
}

// NewItem creates an Item. A nil config marks a test without a
// repeated-trial declaration.
func NewItem(id string, config *domain.Config, exec trial.Executor) Item {
	return &item{id: id, config: config, exec: exec}
}

func (i *item) ID() string               { return i.id }
func (i *item) Executor() trial.Executor { return i.exec }

func (i *item) Config() (domain.Config, bool) {
	if i.config == nil {
		return domain.Config{}, false
	}
	return *i.config, true
}

// Result is the outcome of evaluating one item.
type Result struct {
	Report  Report
	Verdict domain.Verdict
	Record  *domain.TrialRecord
	Symbol  string
	Word    string

	// Repeated is false for items evaluated natively.
	Repeated bool
}

type entry struct {
	config domain.Config
	record *domain.TrialRecord
}

// Adapter drives repeated trials for host-runner items and rewrites their
// reports. Per-item state lives from PreExecute until PostExecute.
type Adapter struct {
	runner    *trial.Runner
	resolver  *verdict.Resolver
	logger    *zap.Logger
	verbosity int

	mu      sync.Mutex
	entries map[string]*entry
}

// NewAdapter creates a new Adapter. A nil logger discards log output.
func NewAdapter(logger *zap.Logger, verbosity int) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		runner:    trial.NewRunner(logger),
		resolver:  verdict.NewResolver(logger),
		logger:    logger,
		verbosity: verbosity,
		entries:   make(map[string]*entry),
	}
}

// Verbosity returns the configured verbosity.
func (a *Adapter) Verbosity() int {
	return a.verbosity
}

// PreExecute runs the trials of a configured item and attaches the record.
// Items without a configuration are left to run natively. Under a threshold
// rule the returned error is the failure to re-raise when too few trials
// passed.
func (a *Adapter) PreExecute(ctx context.Context, it Item) error {
	cfg, ok := it.Config()
	if !ok {
		return nil
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.logger.Debug("running repeated test",
		zap.String("test", it.ID()),
		zap.Stringer("config", cfg))

	record := a.runner.Run(ctx, it.Executor(), cfg.Times, a.verbosity)

	a.mu.Lock()
	a.entries[it.ID()] = &entry{config: cfg, record: record}
	a.mu.Unlock()

	return trial.UnmetThreshold(record, cfg.Rule)
}

// Record returns the record attached to an item, if any.
func (a *Adapter) Record(id string) (*domain.TrialRecord, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.entries[id]
	if !ok {
		return nil, false
	}
	return e.record, true
}

// PostExecute resolves the verdict of an item with an attached record and
// rewrites rep accordingly. It reports false when no record was attached.
// The attached record is released either way.
func (a *Adapter) PostExecute(it Item, rep *Report) (domain.Verdict, bool, error) {
	a.mu.Lock()
	e, ok := a.entries[it.ID()]
	delete(a.entries, it.ID())
	a.mu.Unlock()
	if !ok {
		return domain.Verdict{}, false, nil
	}

	v, err := a.resolver.Resolve(e.record, e.config.Rule)
	if err != nil {
		return domain.Verdict{}, true, fmt.Errorf("resolve %s: %w", it.ID(), err)
	}

	rep.Outcome = v.Outcome
	rep.ShortRepr = v.ShortRepr()
	if a.verbosity >= domain.VerbosityCounts {
		rep.AddSection(SectionName, sectionText(e.record, a.verbosity))
	}
	if !v.Passed() {
		rep.LongRepr = failureText(e.record, v)
	} else {
		rep.LongRepr = ""
	}
	return v, true, nil
}

// Evaluate runs an item through both hooks and returns the rewritten
// report. Configuration errors are returned before any trial runs.
func (a *Adapter) Evaluate(ctx context.Context, it Item) (*Result, error) {
	res := &Result{Report: Report{ID: it.ID()}}

	cfg, ok := it.Config()
	if !ok {
		return a.evaluateNative(ctx, it, res), nil
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", it.ID(), err)
	}

	// The re-raised failure is reflected in the verdict below.
	_ = a.PreExecute(ctx, it)
	record, _ := a.Record(it.ID())

	v, _, err := a.PostExecute(it, &res.Report)
	if err != nil {
		return nil, err
	}
	res.Verdict = v
	res.Record = record
	res.Repeated = true
	res.Symbol, res.Word = StatusLine(record, v, a.verbosity)
	return res, nil
}

func (a *Adapter) evaluateNative(ctx context.Context, it Item, res *Result) *Result {
	record := a.runner.Run(ctx, it.Executor(), 1, a.verbosity)
	res.Record = record
	res.Verdict = domain.Verdict{Outcome: domain.VerdictFail, Rule: domain.RuleThreshold}
	if record.AllPassed() {
		res.Verdict.Outcome = domain.VerdictPass
	}
	res.Report.Outcome = res.Verdict.Outcome
	res.Report.ShortRepr = res.Verdict.ShortRepr()
	if record.LastFailure != nil {
		res.Report.LongRepr = failureText(record, res.Verdict)
	}
	res.Symbol, res.Word = StatusLine(record, res.Verdict, a.verbosity)
	return res
}
