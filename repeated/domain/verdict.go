package domain

import "strconv"

// VerdictOutcome is the terminal outcome of a repeated test.
type VerdictOutcome int

const (
	VerdictUnknown VerdictOutcome = iota
	VerdictPass
	VerdictFail
)

func (o VerdictOutcome) String() string {
	switch o {
	case VerdictPass:
		return "PASS"
	case VerdictFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// Verdict is the decision produced from a trial record and a rule.
type Verdict struct {
	Outcome VerdictOutcome

	// Summary is the parenthesised diagnostic, e.g. "(2/5)" or "(p=0.021)".
	Summary string

	// Value is the p-value or posterior probability. Nil for threshold rules.
	Value *float64

	// Method names the statistical method used, if any.
	Method string

	// Rule is the family of the rule that produced the verdict.
	Rule RuleKind

	// Overridden is set when an unexpected error forced the outcome to FAIL.
	Overridden bool

	// Warnings are the non-fatal diagnostics raised while resolving.
	Warnings []string
}

// Passed returns true if the verdict is PASS.
func (v Verdict) Passed() bool {
	return v.Outcome == VerdictPass
}

// ShortRepr returns the status text shown by the host runner, e.g.
// "PASSED (2/5)" or "FAILED (p=0.729)".
func (v Verdict) ShortRepr() string {
	word := "FAILED"
	if v.Passed() {
		word = "PASSED"
	}
	if v.Summary == "" {
		return word
	}
	return word + " " + v.Summary
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
