package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	u := New(&buf, true)

	u.Success("all good")
	u.Error("broken")
	u.Warning("careful")
	u.Info("detail")

	want := "✓ all good\n✗ broken\n⚠ careful\n  detail\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestNonTerminalDisablesColor(t *testing.T) {
	var buf bytes.Buffer
	u := New(&buf, false)
	if got := u.Symbol("F"); got != "F" {
		t.Errorf("Symbol on a buffer = %q, want plain F", got)
	}
	if IsTerminal(&buf) {
		t.Error("IsTerminal(buffer) = true")
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	u := New(&buf, true)
	u.Table([]string{"ID", "OUTCOME"}, [][]string{{"run-1", "PASS"}, {"r2", "FAIL"}})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID     OUTCOME") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[3], "r2     FAIL") {
		t.Errorf("row = %q", lines[3])
	}

	buf.Reset()
	u.Table([]string{"ID"}, nil)
	if buf.Len() != 0 {
		t.Errorf("empty table wrote %q", buf.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Microsecond, "2ms"},
		{2500 * time.Millisecond, "2.5s"},
		{90 * time.Second, "1m 30s"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
