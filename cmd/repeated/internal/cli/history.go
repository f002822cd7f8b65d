package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/turboci-repeated/internal/storage"
	"github.com/example/turboci-repeated/pkg/id"
)

type historyOptions struct {
	db       string
	testID   string
	outcomes []string
	limit    int
	summary  bool
}

func newHistoryCmd(a *app) *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded verdicts",
		Long: `List verdicts recorded with --history.

EXAMPLES:
  repeated history --db .repeated/history.db
  repeated history --db .repeated/history.db --test flaky-api --summary
  repeated history --db .repeated/history.db --outcome FAIL --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.db, "db", ".repeated/history.db", "sqlite history database")
	cmd.Flags().StringVar(&opts.testID, "test", "", "only show runs of this test")
	cmd.Flags().StringSliceVar(&opts.outcomes, "outcome", nil, "only show runs with these outcomes (PASS, FAIL)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", 20, "maximum runs shown (0 = all)")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "show aggregate pass rates for --test")
	return cmd
}

func (a *app) runHistory(cmd *cobra.Command, opts *historyOptions) error {
	ctx := cmd.Context()
	store, err := openHistory(ctx, opts.db)
	if err != nil {
		return err
	}
	defer store.Close()

	u := a.ui()
	return storage.WithTx(ctx, store, func(uow storage.UnitOfWork) error {
		if opts.summary {
			if opts.testID == "" {
				return errors.New("--summary requires --test")
			}
			s, err := uow.Runs().Summarize(ctx, opts.testID)
			if errors.Is(err, storage.ErrNotFound) {
				u.Warning(fmt.Sprintf("no runs recorded for %s", opts.testID))
				return nil
			}
			if err != nil {
				return err
			}
			u.Header(s.TestID)
			u.Info(fmt.Sprintf("Verdicts: %d of %d passed", s.PassedRuns, s.Runs))
			u.Info(fmt.Sprintf("Trials:   %d of %d passed (%.1f%%)", s.PassedTrials, s.Trials, s.PassRate()*100))
			u.Info(fmt.Sprintf("Last run: %s", s.LastRunAt.Local().Format("2006-01-02 15:04:05")))
			return nil
		}

		runs, err := uow.Runs().List(ctx, storage.ListOptions{
			TestID:   opts.testID,
			Outcomes: opts.outcomes,
			Limit:    opts.limit,
		})
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			u.Info("no runs recorded")
			return nil
		}

		rows := make([][]string, 0, len(runs))
		for _, r := range runs {
			outcome := r.Outcome
			if r.Overridden {
				outcome += "*"
			}
			rows = append(rows, []string{
				id.Short(r.ID),
				r.TestID,
				outcome,
				r.Summary,
				strconv.Itoa(r.Passes) + "/" + strconv.Itoa(r.ActualRuns),
				r.Rule,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			})
		}
		u.Table([]string{"RUN", "TEST", "OUTCOME", "SUMMARY", "PASSED", "RULE", "STARTED"}, rows)
		return nil
	})
}
