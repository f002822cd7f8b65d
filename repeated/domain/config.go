package domain

import "fmt"

// Verbosity tiers understood by the trial runner and the report adapter.
const (
	VerbositySummary = 0 // Short representation only
	VerbosityCounts  = 2 // Adds the "N out of M runs passed" section
	VerbosityTrials  = 3 // Adds the run-by-run breakdown and live trial output
)

// Config is the repeated-trial configuration attached to a test.
type Config struct {
	// Times is the number of trials to run.
	// Default: 1
	Times int

	// Rule decides the verdict from the trial record.
	// Default: ThresholdRule{Threshold: 1}
	Rule Rule
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Times: 1,
		Rule:  ThresholdRule{Threshold: 1},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Times < 1 {
		return fmt.Errorf("%w: times must be at least 1, got %d",
			ErrInvalidConfig, c.Times)
	}
	switch rule := c.Rule.(type) {
	case nil:
		return fmt.Errorf("%w: no decision rule", ErrInvalidConfig)
	case ThresholdRule:
		_, err := NewThresholdRule(rule.Threshold)
		return err
	case FrequentistRule:
		_, err := NewFrequentistRule(rule.Null, rule.CI)
		return err
	case BayesianRule:
		_, err := NewBayesianRule(rule.SuccessRate, rule.PosteriorProbability, rule.PriorAlpha, rule.PriorBeta)
		return err
	default:
		return fmt.Errorf("%w: unsupported rule %T", ErrInvalidConfig, c.Rule)
	}
}

// WithDefaults returns a new config with the default rule applied when none
// is set. Times is left as given so that Validate rejects an explicit zero.
func (c Config) WithDefaults() Config {
	if c.Rule == nil {
		c.Rule = DefaultConfig().Rule
	}
	return c
}


func (c Config) String() string {
	if c.Rule == nil {
		return fmt.Sprintf("times=%d", c.Times)
	}
	return fmt.Sprintf("times=%d %s", c.Times, c.Rule)
}
