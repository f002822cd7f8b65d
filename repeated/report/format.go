package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/turboci-repeated/repeated/domain"
)

// Status symbols shown in compact progress output.
const (
	SymbolPassed  = "."
	SymbolFlaky   = "~"
	SymbolFailed  = "F"
	maxLastFailed = 100
)

// StatusLine returns the progress symbol and verbose status word for a
// resolved test. A passing test whose trials did not all pass gets a
// distinct symbol. The word embeds the p-value or posterior probability
// when the rule produced one, else the pass fraction.
func StatusLine(record *domain.TrialRecord, v domain.Verdict, verbosity int) (symbol, word string) {
	switch {
	case !v.Passed():
		symbol = SymbolFailed
	case record != nil && !record.AllPassed():
		symbol = SymbolFlaky
	default:
		symbol = SymbolPassed
	}
	word = v.ShortRepr()
	if verbosity >= domain.VerbosityCounts && v.Method != "" {
		word += " [" + v.Method + "]"
	}
	return symbol, word
}

// sectionText renders the diagnostic section for the given verbosity.
func sectionText(record *domain.TrialRecord, verbosity int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d out of %d runs passed", record.Passes, record.ActualRuns)
	if record.StoppedEarly() {
		fmt.Fprintf(&b, " (stopped early; %d configured)", record.Configured)
	}

	if verbosity >= domain.VerbosityTrials {
		b.WriteString("\n\nRun-by-run results:")
		for _, t := range record.Trials {
			fmt.Fprintf(&b, "\n  run %d: %s (%s)", t.Index, t.Outcome, t.Duration.Round(time.Microsecond))
			if t.Detail != "" {
				b.WriteString("\n")
				b.WriteString(indent(t.Detail, "    "))
			}
			if t.Output != "" {
				b.WriteString("\n    captured output:\n")
				b.WriteString(indent(strings.TrimRight(t.Output, "\n"), "      "))
			}
		}
		return b.String()
	}

	if record.LastFailure != nil {
		b.WriteString("\nlast failure: ")
		b.WriteString(truncate(firstLine(record.LastFailure.Error()), maxLastFailed))
	}
	return b.String()
}

// failureText renders the long representation of a failing test.
func failureText(record *domain.TrialRecord, v domain.Verdict) string {
	if record.LastFailure == nil {
		return "repeated test " + v.ShortRepr()
	}

	var b strings.Builder
	b.WriteString(record.LastFailure.Error())
	var panicErr *domain.PanicError
	if errors.As(record.LastFailure, &panicErr) && len(panicErr.Stack) > 0 {
		b.WriteString("\n\n")
		b.Write(panicErr.Stack)
	}
	if v.Overridden {
		b.WriteString("\n\nverdict forced to FAIL by an unexpected error")
	}
	if n := len(record.Trials); n > 0 && record.Trials[n-1].Output != "" {
		b.WriteString("\n\ncaptured output:\n")
		b.WriteString(record.Trials[n-1].Output)
	}
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
