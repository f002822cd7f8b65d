package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/turboci-repeated/repeated/proportion"
)

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Evaluate the proportion tests directly",
		Long: `Evaluate the proportion tests on explicit counts.

Arguments are the reference rate r, the number of passes n and the number
of trials N.

EXAMPLES:
  # Is 9/10 evidence that the pass rate exceeds 0.5?
  repeated stats freq 0.5 9 10

  # Posterior that the pass rate exceeds 0.7 after 10/10 passes
  repeated stats bayes 0.7 10 10`,
	}
	cmd.AddCommand(newStatsFreqCmd(a), newStatsBayesCmd(a))
	return cmd
}

func parseCounts(args []string) (r float64, n, N int, err error) {
	if r, err = strconv.ParseFloat(args[0], 64); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid rate %q", args[0])
	}
	if n, err = strconv.Atoi(args[1]); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid pass count %q", args[1])
	}
	if N, err = strconv.Atoi(args[2]); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid trial count %q", args[2])
	}
	return r, n, N, nil
}

func newStatsFreqCmd(a *app) *cobra.Command {
	var alpha float64
	cmd := &cobra.Command{
		Use:   "freq <r> <n> <N>",
		Short: "One-sided test of H0: p <= r",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, n, N, err := parseCounts(args)
			if err != nil {
				return err
			}
			res, err := proportion.FreqTest(r, n, N, alpha)
			if err != nil {
				return err
			}
			u := a.ui()
			u.Info(fmt.Sprintf("p-hat:   %.6f", res.PHat))
			u.Info(fmt.Sprintf("p-value: %.6f", res.PValue))
			u.Info(fmt.Sprintf("method:  %s", res.Method))
			u.Info(fmt.Sprintf("reject:  %t", res.Reject))
			if res.Warning != "" {
				u.Warning(res.Warning)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "significance level")
	return cmd
}

func newStatsBayesCmd(a *app) *cobra.Command {
	var priorAlpha, priorBeta, thresholdProb float64
	cmd := &cobra.Command{
		Use:   "bayes <r> <n> <N>",
		Short: "Posterior probability that p > r",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, n, N, err := parseCounts(args)
			if err != nil {
				return err
			}
			res, err := proportion.BayesTest(r, n, N, priorAlpha, priorBeta, thresholdProb)
			if err != nil {
				return err
			}
			u := a.ui()
			u.Info(fmt.Sprintf("posterior: Beta(%g, %g)", res.Alpha, res.Beta))
			u.Info(fmt.Sprintf("P(p>%g|data): %.6f", r, res.PosteriorProb))
			u.Info(fmt.Sprintf("passes:    %t", res.Passes))
			return nil
		},
	}
	cmd.Flags().Float64Var(&priorAlpha, "prior-alpha", 1, "prior pseudo-count of passes")
	cmd.Flags().Float64Var(&priorBeta, "prior-beta", 1, "prior pseudo-count of failures")
	cmd.Flags().Float64Var(&thresholdProb, "threshold-prob", 0.95, "posterior probability required to pass")
	return cmd
}
