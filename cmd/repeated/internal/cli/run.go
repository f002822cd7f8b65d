package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/example/turboci-repeated/internal/config"
	"github.com/example/turboci-repeated/repeated/domain"
	"github.com/example/turboci-repeated/repeated/report"
	"github.com/example/turboci-repeated/repeated/trial"
)

// optionFlags maps command-line flags to declaration option names.
var optionFlags = []struct {
	flag   string
	option string
}{
	{"times", domain.OptTimes},
	{"threshold", domain.OptThreshold},
	{"null", domain.OptNull},
	{"h0", domain.OptH0},
	{"ci", domain.OptCI},
	{"posterior", domain.OptPosterior},
	{"success-rate", domain.OptSuccessRate},
	{"prior-alpha", domain.OptPriorAlpha},
	{"prior-beta", domain.OptPriorBeta},
}

type runOptions struct {
	id      string
	timeout time.Duration
	envFile string
	history string
	shell   string
	workDir string
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [flags] -- <command>",
		Short: "Run a command repeatedly and print the verdict",
		Long: `Run a command repeatedly and decide a verdict from the outcomes.

A zero exit status is a passing trial and a non-zero status is a failing
trial. A timeout or a command that cannot start stops the run early and
forces FAIL. Each trial sees REPEATED_TRIAL set to its 1-based index.

EXAMPLES:
  repeated run -n 10 -- ./flaky.sh
  repeated run -n 30 --null 0.5 --ci 0.99 -- go test -run TestX ./...
  repeated run -n 20 --posterior 0.9 --success-rate 0.7 -- make check
  repeated run -n 5 --history .repeated/history.db -- npm test

The exit status is 0 when the verdict is PASS and 1 when it is FAIL.

OPTIONS:
  ` + report.Register().Help(),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRun(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.IntP("times", "n", 1, "number of trials")
	f.Int("threshold", 1, "minimum passing trials (threshold rule)")
	f.Float64("null", 0, "null-hypothesis pass rate (frequentist rule)")
	f.Float64("h0", 0, "alias of --null")
	f.Float64("ci", 0.95, "confidence level (frequentist rule)")
	f.Float64("posterior", 0, "required posterior probability (bayesian rule)")
	f.Float64("success-rate", 0, "pass rate the test must exceed (bayesian rule)")
	f.Float64("prior-alpha", 1, "prior pseudo-count of passes (bayesian rule)")
	f.Float64("prior-beta", 1, "prior pseudo-count of failures (bayesian rule)")

	f.StringVar(&opts.id, "id", "", "test identifier (default: the command line)")
	f.DurationVar(&opts.timeout, "timeout", 0, "per-trial timeout (0 = none)")
	f.StringVar(&opts.envFile, "env-file", "", "dotenv file with extra environment for the command")
	f.StringVar(&opts.history, "history", "", "sqlite database to record the verdict in")
	f.StringVar(&opts.shell, "shell", "/bin/sh", "shell used to run the command")
	f.StringVar(&opts.workDir, "workdir", "", "working directory for the command")
	return cmd
}

// declaredOptions collects the rule flags the user actually set.
func declaredOptions(flags *pflag.FlagSet) (domain.Options, error) {
	opts := domain.Options{}
	for _, of := range optionFlags {
		if !flags.Changed(of.flag) {
			continue
		}
		var (
			v   any
			err error
		)
		switch flags.Lookup(of.flag).Value.Type() {
		case "int":
			v, err = flags.GetInt(of.flag)
		default:
			v, err = flags.GetFloat64(of.flag)
		}
		if err != nil {
			return nil, err
		}
		opts[of.option] = v
	}
	return opts, nil
}

func (a *app) runRun(cmd *cobra.Command, args []string, opts *runOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	declared, err := declaredOptions(cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := report.Register().Parse(declared)
	if err != nil {
		return err
	}

	command := shellJoin(args)
	testID := opts.id
	if testID == "" {
		testID = command
	}

	exec := trial.NewCommand(command)
	exec.Shell = opts.shell
	exec.Timeout = opts.timeout
	exec.WorkDir = opts.workDir
	if opts.envFile != "" {
		env, err := config.ReadEnvFile(opts.envFile)
		if err != nil {
			return err
		}
		exec.Environment = env
	}

	return a.evaluateOne(ctx, testID, cfg, exec, opts.history)
}

func (a *app) evaluateOne(ctx context.Context, testID string, cfg domain.Config, exec *trial.Command, history string) error {
	e, err := a.newEvaluator(ctx, history)
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.evaluate(ctx, testID, cfg, exec)
	if err != nil {
		return err
	}
	if !res.Verdict.Passed() {
		return &ExitError{Code: 1, Msg: fmt.Sprintf("%s %s", testID, res.Verdict.ShortRepr())}
	}
	return nil
}

// shellJoin joins arguments into one command line. A single argument is
// taken verbatim; otherwise arguments with shell metacharacters are quoted.
func shellJoin(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = shellQuote(arg)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("_-./=:,@%+", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
