package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Option names accepted by the repeated declaration. Pairs on the same line
// are two spellings of one value.
const (
	OptTimes         = "times"
	OptN             = "n"
	OptThreshold     = "threshold"
	OptNull          = "null"
	OptH0            = "H0"
	OptCI            = "ci"
	OptPosterior     = "posterior_threshold_probability"
	OptSuccessRate   = "success_rate_threshold"
	OptPriorAlpha    = "prior_alpha"
	OptPriorPasses   = "prior_passes"
	OptPriorBeta     = "prior_beta"
	OptPriorFailures = "prior_failures"
)

const defaultCI = 0.95

var optionFamilies = map[string]RuleKind{
	OptTimes:         RuleUnknown,
	OptN:             RuleUnknown,
	OptThreshold:     RuleThreshold,
	OptNull:          RuleFrequentist,
	OptH0:            RuleFrequentist,
	OptCI:            RuleFrequentist,
	OptPosterior:     RuleBayesian,
	OptSuccessRate:   RuleBayesian,
	OptPriorAlpha:    RuleBayesian,
	OptPriorPasses:   RuleBayesian,
	OptPriorBeta:     RuleBayesian,
	OptPriorFailures: RuleBayesian,
}

// OptionNames returns every recognised option name in sorted order.
func OptionNames() []string {
	names := make([]string, 0, len(optionFamilies))
	for name := range optionFamilies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OptionFamily returns the rule family an option belongs to. Trial-count
// options belong to no family and return RuleUnknown with ok set.
func OptionFamily(name string) (kind RuleKind, ok bool) {
	kind, ok = optionFamilies[name]
	return kind, ok
}

// Options is a set of named options as written on a test declaration.
type Options map[string]any

// ParseOptions resolves named options into a validated Config. It fails
// before any trial runs when the options are ambiguous or incomplete.
func ParseOptions(opts Options) (Config, error) {
	families := make(map[RuleKind][]string)
	for name := range opts {
		kind, ok := optionFamilies[name]
		if !ok {
			return Config{}, fmt.Errorf("%w: unknown option %q (known options: %s)",
				ErrInvalidConfig, name, strings.Join(OptionNames(), ", "))
		}
		if kind != RuleUnknown {
			families[kind] = append(families[kind], name)
		}
	}
	if len(families) > 1 {
		return Config{}, conflictError(families)
	}

	cfg := DefaultConfig()
	times, err := aliasInt(opts, cfg.Times, OptTimes, OptN)
	if err != nil {
		return Config{}, err
	}
	cfg.Times = times

	switch {
	case len(families[RuleFrequentist]) > 0:
		cfg.Rule, err = parseFrequentist(opts)
	case len(families[RuleBayesian]) > 0:
		cfg.Rule, err = parseBayesian(opts)
	default:
		cfg.Rule, err = parseThreshold(opts)
	}
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseThreshold(opts Options) (Rule, error) {
	threshold, err := aliasInt(opts, 1, OptThreshold)
	if err != nil {
		return nil, err
	}
	return NewThresholdRule(threshold)
}

func parseFrequentist(opts Options) (Rule, error) {
	null, present, err := aliasFloat(opts, OptNull, OptH0)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, fmt.Errorf("%w: %w: null (or H0) is required when ci is set; add null=<proportion>, e.g. null=0.9",
			ErrInvalidConfig, ErrMissingCompanion)
	}
	ci, present, err := aliasFloat(opts, OptCI)
	if err != nil {
		return nil, err
	}
	if !present {
		ci = defaultCI
	}
	return NewFrequentistRule(null, ci)
}

func parseBayesian(opts Options) (Rule, error) {
	posterior, present, err := aliasFloat(opts, OptPosterior)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, fmt.Errorf("%w: %w: posterior_threshold_probability is required when Bayesian options are set; add posterior_threshold_probability=<credibility>, e.g. posterior_threshold_probability=0.95",
			ErrInvalidConfig, ErrMissingCompanion)
	}
	successRate, present, err := aliasFloat(opts, OptSuccessRate)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, fmt.Errorf("%w: %w: success_rate_threshold is required when posterior_threshold_probability is set; add success_rate_threshold=<minimum acceptable pass rate>, e.g. success_rate_threshold=0.7",
			ErrInvalidConfig, ErrMissingCompanion)
	}
	priorAlpha, present, err := aliasFloat(opts, OptPriorAlpha, OptPriorPasses)
	if err != nil {
		return nil, err
	}
	if !present {
		priorAlpha = 1
	}
	priorBeta, present, err := aliasFloat(opts, OptPriorBeta, OptPriorFailures)
	if err != nil {
		return nil, err
	}
	if !present {
		priorBeta = 1
	}
	return NewBayesianRule(successRate, posterior, priorAlpha, priorBeta)
}

func conflictError(families map[RuleKind][]string) error {
	kinds := make([]RuleKind, 0, len(families))
	for kind := range families {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names := families[kind]
		sort.Strings(names)
		parts = append(parts, fmt.Sprintf("%s (%s)", kind, strings.Join(names, ", ")))
	}
	return fmt.Errorf("%w: %w: choose one of %s", ErrInvalidConfig, ErrConflictingRules,
		strings.Join(parts, " or "))
}

// aliasInt resolves an integer option that may be spelled several ways.
func aliasInt(opts Options, fallback int, names ...string) (int, error) {
	value, present, err := alias(opts, names, toInt)
	if err != nil {
		return 0, err
	}
	if !present {
		return fallback, nil
	}
	return value, nil
}

func aliasFloat(opts Options, names ...string) (float64, bool, error) {
	return alias(opts, names, toFloat)
}

func alias[V comparable](opts Options, names []string, convert func(any) (V, error)) (V, bool, error) {
	var (
		zero    V
		value   V
		present bool
		from    string
	)
	for _, name := range names {
		raw, ok := opts[name]
		if !ok {
			continue
		}
		v, err := convert(raw)
		if err != nil {
			return zero, false, fmt.Errorf("%w: option %s: %v", ErrInvalidConfig, name, err)
		}
		if present && v != value {
			return zero, false, fmt.Errorf("%w: %s=%v and %s=%v name the same option with different values",
				ErrInvalidConfig, from, value, name, v)
		}
		value, present, from = v, true, name
	}
	return value, present, nil
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float32, float64:
		f, _ := toFloat(v)
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("expected an integer, got %v", raw)
		}
		return int(f), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", raw)
	}
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, err := toInt(v)
		return float64(n), err
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", raw)
	}
}
