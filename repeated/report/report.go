// Package report adapts repeated-trial verdicts to a host test runner's
// reporting pipeline.
package report

import "github.com/example/turboci-repeated/repeated/domain"

// SectionName is the name of the diagnostic section attached to a report.
const SectionName = "repeated"

// Section is a named block of diagnostic text.
type Section struct {
	Name string
	Text string
}

// Report is the host runner's view of one test invocation. PostExecute
// overwrites its outcome and short representation.
type Report struct {
	// ID identifies the test.
	ID string

	// Outcome is the final outcome.
	Outcome domain.VerdictOutcome

	// ShortRepr is the terminal summary, e.g. "PASSED (2/5)".
	ShortRepr string

	// LongRepr is the full failure text for failing tests.
	LongRepr string

	// Sections are the attached diagnostic blocks in order.
	Sections []Section
}

// AddSection appends a diagnostic block.
func (r *Report) AddSection(name, text string) {
	r.Sections = append(r.Sections, Section{Name: name, Text: text})
}

// Section returns the text of the named section.
func (r *Report) Section(name string) (string, bool) {
	for _, s := range r.Sections {
		if s.Name == name {
			return s.Text, true
		}
	}
	return "", false
}

// Passed returns true if the report outcome is PASS.
func (r *Report) Passed() bool {
	return r.Outcome == domain.VerdictPass
}
