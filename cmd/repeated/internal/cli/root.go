package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/turboci-repeated/internal/ui"
)

// ExitError carries a process exit code for a run whose verdict failed.
type ExitError struct {
	Code int
	Msg  string
}

func (e *ExitError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Msg
}

// app holds settings shared by every subcommand.
type app struct {
	out       io.Writer
	errOut    io.Writer
	verbosity int
	noColor   bool
}

func (a *app) ui() *ui.UI {
	return ui.New(a.out, a.noColor)
}

// NewRootCommand builds the command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "repeated",
		Short: "Run a test many times and decide with a statistical rule",
		Long: `repeated executes a test command several times and turns the outcomes
into a single PASS or FAIL verdict.

Three decision rules are available, exactly one per run:
  threshold    pass when at least K trials pass (default K=1)
  frequentist  pass when a one-sided test rejects H0: p <= null at level ci
  bayesian     pass when P(p > success-rate | data) >= posterior

An error that is not a plain test failure (timeout, command not found)
stops the run early and forces FAIL.

EXAMPLES:
  # Require 4 of 5 runs to pass
  repeated run -n 5 --threshold 4 -- go test -run TestFlaky ./pkg

  # Pass rate must exceed 80% with 95% confidence
  repeated run -n 50 --null 0.8 --ci 0.95 -- ./integration.sh

  # Run every test in .repeated.yml
  repeated suite

  # Evaluate the engine directly
  repeated stats freq 0.5 9 10`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "increase verbosity (-v, -vv, -vvv)")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newRunCmd(a))
	root.AddCommand(newSuiteCmd(a))
	root.AddCommand(newStatsCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newVersionCmd(a))
	return root
}

// Execute runs the root command against the process streams.
func Execute() error {
	return NewRootCommand(os.Stdout, os.Stderr).Execute()
}
