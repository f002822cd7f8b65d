// Package repeated runs a Go test body many times and passes or fails the
// test by an aggregate rule instead of a single execution.
//
//	func TestFlakyEndpoint(t *testing.T) {
//		repeated.Run(t, func(t *trial.T) {
//			resp, err := client.Get(url)
//			require.NoError(t, err)
//			require.Equal(t, 200, resp.StatusCode)
//		}, repeated.Times(50), repeated.Null(0.9), repeated.CI(0.95))
//	}
//
// Trials run sequentially. An assertion failure fails only its trial; any
// other error or panic stops the run and fails the test.
package repeated

import (
	"flag"
	"os"
	"strconv"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/example/turboci-repeated/repeated/domain"
	"github.com/example/turboci-repeated/repeated/report"
	"github.com/example/turboci-repeated/repeated/trial"
)

// VerbosityEnv overrides the verbosity when -repeated.v is not given.
const VerbosityEnv = "REPEATED_VERBOSITY"

var verbosityFlag = flag.Int("repeated.v", -1, "repeated-trial report verbosity (0-3)")

// Run runs body as a repeated test under the given options. With no
// options the body runs once and must pass.
func Run(t testing.TB, body func(t *trial.T), opts ...Option) *report.Result {
	t.Helper()
	s := newSettings(opts)
	cfg, err := report.Register().Parse(s.options)
	if err != nil {
		t.Fatalf("repeated: %v", err)
		return nil
	}
	return run(t, cfg, trial.Body(t.Name(), body), s)
}

// RunOptions runs body as a repeated test configured by named options, e.g.
// {"times": 20, "null": 0.8, "ci": 0.95}.
func RunOptions(t testing.TB, options map[string]any, body func(t *trial.T)) *report.Result {
	t.Helper()
	cfg, err := report.Register().Parse(options)
	if err != nil {
		t.Fatalf("repeated: %v", err)
		return nil
	}
	return run(t, cfg, trial.Body(t.Name(), body), newSettings(nil))
}

// RunFunc runs fn as a repeated test. Returning an error wrapping a
// *domain.AssertionError fails the trial; any other error is unexpected.
func RunFunc(t testing.TB, fn func() error, opts ...Option) *report.Result {
	t.Helper()
	s := newSettings(opts)
	cfg, err := report.Register().Parse(s.options)
	if err != nil {
		t.Fatalf("repeated: %v", err)
		return nil
	}
	return run(t, cfg, trial.Func(fn), s)
}

func run(t testing.TB, cfg domain.Config, exec trial.Executor, s *settings) *report.Result {
	t.Helper()
	verbosity := s.verbosity
	if verbosity < 0 {
		verbosity = Verbosity()
	}
	logger := s.logger
	if logger == nil {
		level := zap.WarnLevel
		if verbosity >= domain.VerbosityTrials {
			level = zap.DebugLevel
		}
		logger = zaptest.NewLogger(t, zaptest.Level(level))
	}

	adapter := report.NewAdapter(logger, verbosity)
	res, err := adapter.Evaluate(t.Context(), report.NewItem(t.Name(), &cfg, exec))
	if err != nil {
		t.Fatalf("repeated: %v", err)
		return nil
	}

	report.Publish(report.TestingSink{TB: t}, res)
	if !res.Verdict.Passed() {
		t.Errorf("%s\n%s", res.Report.ShortRepr, res.Report.LongRepr)
	}
	return res
}

// Verbosity returns the report verbosity for the current test binary:
// -repeated.v if given, else $REPEATED_VERBOSITY, raised to at least 1
// under go test -v.
func Verbosity() int {
	v := *verbosityFlag
	if v < 0 {
		v = 0
		if env, ok := os.LookupEnv(VerbosityEnv); ok {
			if n, err := strconv.Atoi(env); err == nil && n >= 0 {
				v = n
			}
		}
	}
	if flag.Parsed() && testing.Verbose() && v < 1 {
		v = 1
	}
	return v
}
