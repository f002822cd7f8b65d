package domain

import (
	"fmt"
	"math"
	"strconv"
)

// RuleKind identifies a decision rule family.
type RuleKind int

const (
	RuleUnknown     RuleKind = iota
	RuleThreshold            // Pass iff at least K trials pass
	RuleFrequentist          // Pass iff a one-sided test rejects the null proportion
	RuleBayesian             // Pass iff the posterior clears a credibility bar
)

func (k RuleKind) String() string {
	switch k {
	case RuleThreshold:
		return "threshold"
	case RuleFrequentist:
		return "frequentist"
	case RuleBayesian:
		return "bayesian"
	default:
		return "unknown"
	}
}

// Statistical returns true for rules that evaluate a hypothesis test.
func (k RuleKind) Statistical() bool {
	return k == RuleFrequentist || k == RuleBayesian
}

// Rule is the decision rule applied to a trial record. The set of
// implementations is closed: ThresholdRule, FrequentistRule and BayesianRule.
type Rule interface {
	Kind() RuleKind
	String() string
	isRule()
}

// ThresholdRule passes when at least Threshold trials pass.
type ThresholdRule struct {
	// Threshold is the minimum number of passing trials.
	// Default: 1
	Threshold int
}

// NewThresholdRule validates and constructs a ThresholdRule.
func NewThresholdRule(threshold int) (ThresholdRule, error) {
	if threshold < 0 {
		return ThresholdRule{}, fmt.Errorf("%w: threshold must be at least 0, got %d",
			ErrInvalidConfig, threshold)
	}
	return ThresholdRule{Threshold: threshold}, nil
}

func (ThresholdRule) Kind() RuleKind { return RuleThreshold }
func (ThresholdRule) isRule()        {}

func (r ThresholdRule) String() string {
	return fmt.Sprintf("threshold=%d", r.Threshold)
}

// FrequentistRule passes when a one-sided test rejects H0: p <= Null at the
// confidence level CI.
type FrequentistRule struct {
	// Null is the null-hypothesis success proportion.
	Null float64

	// CI is the confidence level; the significance level is 1-CI.
	// Default: 0.95
	CI float64
}

// NewFrequentistRule validates and constructs a FrequentistRule.
func NewFrequentistRule(null, ci float64) (FrequentistRule, error) {
	if !inUnitInterval(null) {
		return FrequentistRule{}, fmt.Errorf("%w: null must be between 0 and 1, got %g",
			ErrInvalidConfig, null)
	}
	if math.IsNaN(ci) || ci <= 0 || ci >= 1 {
		return FrequentistRule{}, fmt.Errorf("%w: ci must be strictly between 0 and 1, got %g",
			ErrInvalidConfig, ci)
	}
	return FrequentistRule{Null: null, CI: ci}, nil
}

func (FrequentistRule) Kind() RuleKind { return RuleFrequentist }
func (FrequentistRule) isRule()        {}

// Alpha returns the significance level of the test.
func (r FrequentistRule) Alpha() float64 {
	return 1 - r.CI
}

func (r FrequentistRule) String() string {
	return fmt.Sprintf("null=%s ci=%s", formatFloat(r.Null), formatFloat(r.CI))
}

// BayesianRule passes when the Beta-Binomial posterior probability that the
// true success rate exceeds SuccessRate is at least PosteriorProbability.
type BayesianRule struct {
	// SuccessRate is the success rate the test must exceed.
	SuccessRate float64

	// PosteriorProbability is the credibility bar for the posterior.
	PosteriorProbability float64

	// PriorAlpha is the prior pseudo-count of passes.
	// Default: 1
	PriorAlpha float64

	// PriorBeta is the prior pseudo-count of failures.
	// Default: 1
	PriorBeta float64
}

// NewBayesianRule validates and constructs a BayesianRule.
func NewBayesianRule(successRate, posterior, priorAlpha, priorBeta float64) (BayesianRule, error) {
	if !inUnitInterval(successRate) {
		return BayesianRule{}, fmt.Errorf("%w: success_rate_threshold must be between 0 and 1, got %g",
			ErrInvalidConfig, successRate)
	}
	if math.IsNaN(posterior) || posterior <= 0 || posterior > 1 {
		return BayesianRule{}, fmt.Errorf("%w: posterior_threshold_probability must be in (0, 1], got %g",
			ErrInvalidConfig, posterior)
	}
	if math.IsNaN(priorAlpha) || priorAlpha <= 0 {
		return BayesianRule{}, fmt.Errorf("%w: prior_alpha must be positive, got %g",
			ErrInvalidConfig, priorAlpha)
	}
	if math.IsNaN(priorBeta) || priorBeta <= 0 {
		return BayesianRule{}, fmt.Errorf("%w: prior_beta must be positive, got %g",
			ErrInvalidConfig, priorBeta)
	}
	return BayesianRule{
		SuccessRate:          successRate,
		PosteriorProbability: posterior,
		PriorAlpha:           priorAlpha,
		PriorBeta:            priorBeta,
	}, nil
}

func (BayesianRule) Kind() RuleKind { return RuleBayesian }
func (BayesianRule) isRule()        {}

func (r BayesianRule) String() string {
	return fmt.Sprintf("success_rate=%s posterior=%s prior=Beta(%s,%s)",
		formatFloat(r.SuccessRate), formatFloat(r.PosteriorProbability),
		formatFloat(r.PriorAlpha), formatFloat(r.PriorBeta))
}

func inUnitInterval(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
