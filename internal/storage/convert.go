package storage

import (
	"time"

	"github.com/example/turboci-repeated/repeated/domain"
	"github.com/example/turboci-repeated/repeated/report"
)

// NewRun builds a storable Run from an evaluated result.
func NewRun(id, testID, command string, cfg domain.Config, res *report.Result, startedAt, finishedAt time.Time) *Run {
	run := &Run{
		ID:         id,
		TestID:     testID,
		Command:    command,
		Config:     cfg.String(),
		Times:      cfg.Times,
		Outcome:    res.Verdict.Outcome.String(),
		Summary:    res.Verdict.Summary,
		Value:      res.Verdict.Value,
		Method:     res.Verdict.Method,
		Overridden: res.Verdict.Overridden,
		StartedAt:  startedAt.UTC(),
		FinishedAt: finishedAt.UTC(),
	}
	if cfg.Rule != nil {
		run.Rule = cfg.Rule.Kind().String()
	}
	if res.Record != nil {
		run.Passes = res.Record.Passes
		run.ActualRuns = res.Record.ActualRuns
		for _, t := range res.Record.Trials {
			run.Trials = append(run.Trials, Trial{
				Index:    t.Index,
				Outcome:  t.Outcome.String(),
				Detail:   t.Detail,
				Duration: t.Duration,
			})
		}
	}
	return run
}
