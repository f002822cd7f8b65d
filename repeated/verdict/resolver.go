// Package verdict turns a trial record into a PASS or FAIL decision under a
// configured rule.
package verdict

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/example/turboci-repeated/repeated/domain"
	"github.com/example/turboci-repeated/repeated/proportion"
)

// Resolver decides verdicts from trial records.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a new Resolver. A nil logger discards log output.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// Resolve applies rule to record. An unexpected error in any trial forces
// the verdict to FAIL regardless of the rule outcome.
func (r *Resolver) Resolve(record *domain.TrialRecord, rule domain.Rule) (domain.Verdict, error) {
	if record == nil {
		return domain.Verdict{}, fmt.Errorf("%w: no trial record", domain.ErrInvalidArgument)
	}

	var (
		v   domain.Verdict
		err error
	)
	switch rule := rule.(type) {
	case domain.ThresholdRule:
		v = resolveThreshold(record, rule)
	case domain.FrequentistRule:
		v, err = r.resolveFrequentist(record, rule)
	case domain.BayesianRule:
		v, err = r.resolveBayesian(record, rule)
	case nil:
		return domain.Verdict{}, fmt.Errorf("%w: no decision rule", domain.ErrInvalidConfig)
	default:
		return domain.Verdict{}, fmt.Errorf("%w: unsupported rule %T", domain.ErrInvalidConfig, rule)
	}
	if err != nil {
		return domain.Verdict{}, err
	}

	if rule.Kind().Statistical() && record.Configured <= 1 {
		v.Warnings = append([]string{
			fmt.Sprintf("%s rule evaluated on %d trial; set times to more than 1 for a meaningful test",
				rule.Kind(), record.Configured),
		}, v.Warnings...)
	}
	// Warnings travel on the verdict; sinks publish them.
	for _, w := range v.Warnings {
		r.logger.Debug("verdict warning", zap.Stringer("rule", rule.Kind()), zap.String("warning", w))
	}

	if record.Unexpected() {
		if v.Passed() {
			r.logger.Debug("verdict overridden by unexpected error",
				zap.Stringer("rule", rule.Kind()),
				zap.Error(record.LastFailure))
		}
		v.Outcome = domain.VerdictFail
		v.Overridden = true
	}
	return v, nil
}

func resolveThreshold(record *domain.TrialRecord, rule domain.ThresholdRule) domain.Verdict {
	v := domain.Verdict{
		Outcome: domain.VerdictFail,
		Summary: record.Fraction(),
		Rule:    domain.RuleThreshold,
	}
	if record.Passes >= rule.Threshold {
		v.Outcome = domain.VerdictPass
	}
	return v
}

func (r *Resolver) resolveFrequentist(record *domain.TrialRecord, rule domain.FrequentistRule) (domain.Verdict, error) {
	if record.ActualRuns == 0 {
		return noTrials(record, domain.RuleFrequentist), nil
	}
	res, err := proportion.FreqTest(rule.Null, record.Passes, record.ActualRuns, rule.Alpha())
	if err != nil {
		return domain.Verdict{}, err
	}

	v := domain.Verdict{
		Outcome: domain.VerdictFail,
		Summary: fmt.Sprintf("(p=%.3f)", res.PValue),
		Value:   &res.PValue,
		Method:  res.Method,
		Rule:    domain.RuleFrequentist,
	}
	if res.Reject {
		v.Outcome = domain.VerdictPass
	}
	if res.Warning != "" {
		v.Warnings = append(v.Warnings, res.Warning)
	}
	return v, nil
}

func (r *Resolver) resolveBayesian(record *domain.TrialRecord, rule domain.BayesianRule) (domain.Verdict, error) {
	if record.ActualRuns == 0 {
		return noTrials(record, domain.RuleBayesian), nil
	}
	res, err := proportion.BayesTest(rule.SuccessRate, record.Passes, record.ActualRuns,
		rule.PriorAlpha, rule.PriorBeta, rule.PosteriorProbability)
	if err != nil {
		return domain.Verdict{}, err
	}

	v := domain.Verdict{
		Outcome: domain.VerdictFail,
		Summary: fmt.Sprintf("(P(p>%g|data)=%.3f)", rule.SuccessRate, res.PosteriorProb),
		Value:   &res.PosteriorProb,
		Method:  res.Method,
		Rule:    domain.RuleBayesian,
	}
	if res.Passes {
		v.Outcome = domain.VerdictPass
	}
	return v, nil
}

// noTrials is the verdict for a statistical rule with nothing to evaluate.
func noTrials(record *domain.TrialRecord, kind domain.RuleKind) domain.Verdict {
	return domain.Verdict{
		Outcome:  domain.VerdictFail,
		Summary:  record.Fraction(),
		Rule:     kind,
		Warnings: []string{"no trials completed"},
	}
}
