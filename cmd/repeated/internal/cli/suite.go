package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/turboci-repeated/internal/config"
	"github.com/example/turboci-repeated/repeated/report"
	"github.com/example/turboci-repeated/repeated/trial"
)

// exitInterrupted is the exit status of a suite cut short by a signal.
const exitInterrupted = 130

type suiteOptions struct {
	path     string
	history  string
	metrics  string
	only     []string
	failFast bool
}

func newSuiteCmd(a *app) *cobra.Command {
	opts := &suiteOptions{}
	cmd := &cobra.Command{
		Use:   "suite",
		Short: "Run every test declared in a suite file",
		Long: `Run every test declared in a YAML suite file.

SUITE FILE:
  version: 1
  env_file: .env
  tests:
    - id: flaky-api
      command: go test -run TestAPI ./api
      timeout: 2m
      options: {times: 20, "null": 0.8, ci: 0.95}

Options use the same names as test declarations: times/n, threshold,
null/H0, ci, posterior_threshold_probability, success_rate_threshold,
prior_alpha/prior_passes, prior_beta/prior_failures.

The exit status is 0 when every test passes and 1 otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSuite(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.path, "config", "c", config.DefaultPath, "suite file")
	cmd.Flags().StringVar(&opts.history, "history", "", "sqlite database to record verdicts in")
	cmd.Flags().StringVar(&opts.metrics, "metrics", "", "write a JSON metrics snapshot to this file")
	cmd.Flags().StringSliceVar(&opts.only, "only", nil, "run only the tests with these ids")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "stop after the first failing test")
	return cmd
}

func (a *app) runSuite(cmd *cobra.Command, opts *suiteOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	suite, err := config.Load(opts.path)
	if err != nil {
		return err
	}
	env, err := suite.Environment()
	if err != nil {
		return err
	}

	e, err := a.newEvaluator(ctx, opts.history)
	if err != nil {
		return err
	}
	defer e.Close()

	selected := map[string]bool{}
	for _, id := range opts.only {
		selected[id] = true
	}

	u := a.ui()
	var (
		rows    [][]string
		failed  int
		planned int
	)
	for _, spec := range suite.Tests {
		if len(selected) == 0 || selected[spec.ID] {
			planned++
		}
	}
	for _, spec := range suite.Tests {
		if len(selected) > 0 && !selected[spec.ID] {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		cfg, err := spec.Config()
		if err != nil {
			return fmt.Errorf("%s: %w", spec.ID, err)
		}
		exec := trial.NewCommand(spec.Command)
		if suite.Shell != "" {
			exec.Shell = suite.Shell
		}
		exec.Timeout = spec.TimeoutDuration()
		exec.WorkDir = suite.WorkDir(spec)
		exec.Environment = config.Merge(env, spec.Env)

		res, err := e.evaluate(ctx, spec.ID, cfg, exec)
		if err != nil {
			return err
		}
		rows = append(rows, summaryRow(spec.ID, res))
		if !res.Verdict.Passed() {
			failed++
			if opts.failFast {
				break
			}
		}
	}

	if len(rows) > 0 {
		u.Header("Summary")
		u.Table([]string{"TEST", "VERDICT", "PASSED", "RUNS", "METHOD"}, rows)
	}

	if opts.metrics != "" {
		f, err := os.Create(opts.metrics)
		if err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		defer f.Close()
		if err := e.metrics.WriteJSON(f); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if ctx.Err() != nil {
		msg := fmt.Sprintf("interrupted: %d of %d tests ran, %d failed", len(rows), planned, failed)
		u.Error(msg)
		return &ExitError{Code: exitInterrupted, Msg: msg}
	}
	if failed > 0 {
		u.Error(fmt.Sprintf("%d of %d tests failed", failed, len(rows)))
		return &ExitError{Code: 1, Msg: fmt.Sprintf("%d of %d tests failed", failed, len(rows))}
	}
	u.Success(fmt.Sprintf("%d tests passed", len(rows)))
	return nil
}

func summaryRow(testID string, res *report.Result) []string {
	passes, runs := "0", "0"
	if res.Record != nil {
		passes = strconv.Itoa(res.Record.Passes)
		runs = strconv.Itoa(res.Record.ActualRuns)
	}
	method := res.Verdict.Method
	if method == "" {
		method = res.Verdict.Rule.String()
	}
	return []string{testID, res.Verdict.ShortRepr(), passes, runs, method}
}
