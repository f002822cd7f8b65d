package repeated

import (
	"go.uber.org/zap"

	"github.com/example/turboci-repeated/repeated/domain"
)

// Option configures a repeated test.
type Option func(*settings)

type settings struct {
	options   domain.Options
	logger    *zap.Logger
	verbosity int
}

func newSettings(opts []Option) *settings {
	s := &settings{
		options:   make(domain.Options),
		verbosity: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Times sets the number of trials.
func Times(n int) Option {
	return func(s *settings) { s.options[domain.OptTimes] = n }
}

// Threshold passes the test when at least k trials pass.
func Threshold(k int) Option {
	return func(s *settings) { s.options[domain.OptThreshold] = k }
}

// Null passes the test when a one-sided binomial test rejects a true pass
// rate of at most p.
func Null(p float64) Option {
	return func(s *settings) { s.options[domain.OptNull] = p }
}

// CI sets the confidence level of the Null test.
func CI(c float64) Option {
	return func(s *settings) { s.options[domain.OptCI] = c }
}

// Posterior passes the test when the posterior probability that the pass
// rate exceeds the SuccessRate is at least p.
func Posterior(p float64) Option {
	return func(s *settings) { s.options[domain.OptPosterior] = p }
}

// SuccessRate sets the pass rate the Posterior test must exceed.
func SuccessRate(r float64) Option {
	return func(s *settings) { s.options[domain.OptSuccessRate] = r }
}

// Prior sets the Beta prior pseudo-counts of passes and failures.
func Prior(passes, failures float64) Option {
	return func(s *settings) {
		s.options[domain.OptPriorAlpha] = passes
		s.options[domain.OptPriorBeta] = failures
	}
}

// WithLogger sets the logger. By default warnings go to the test log.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithVerbosity overrides the report verbosity.
func WithVerbosity(v int) Option {
	return func(s *settings) { s.verbosity = v }
}
