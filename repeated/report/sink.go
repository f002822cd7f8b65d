package report

import (
	"fmt"
	"io"
	"sync"
	"testing"
)

// ReportSink receives report output.
type ReportSink interface {
	// Section writes a named diagnostic block.
	Section(name, text string)

	// Status writes the progress symbol and status line of a test.
	Status(symbol, line string)

	// Warn writes a non-fatal warning.
	Warn(msg string)
}

// TestingSink writes report output to a test log.
type TestingSink struct {
	TB testing.TB
}

func (s TestingSink) Section(name, text string) {
	s.TB.Helper()
	s.TB.Logf("--- %s ---\n%s", name, text)
}

func (s TestingSink) Status(symbol, line string) {
	s.TB.Helper()
	s.TB.Logf("%s %s", symbol, line)
}

func (s TestingSink) Warn(msg string) {
	s.TB.Helper()
	s.TB.Logf("warning: %s", msg)
}

// WriterSink writes report output to an io.Writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer

	// Style, if set, decorates the status symbol.
	Style func(symbol string) string
}

// NewWriterSink creates a WriterSink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Section(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "---- %s ----\n%s\n", name, text)
}

func (s *WriterSink) Status(symbol, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Style != nil {
		symbol = s.Style(symbol)
	}
	fmt.Fprintf(s.w, "%s %s\n", symbol, line)
}

func (s *WriterSink) Warn(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "warning: %s\n", msg)
}

// Publish writes an evaluated result to sink.
func Publish(sink ReportSink, res *Result) {
	for _, w := range res.Verdict.Warnings {
		sink.Warn(w)
	}
	for _, s := range res.Report.Sections {
		sink.Section(s.Name, s.Text)
	}
	sink.Status(res.Symbol, res.Report.ID+" "+res.Word)
}
