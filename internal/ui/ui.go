// Package ui renders CLI output with lipgloss styles.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	colorGreen  = lipgloss.Color("42")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("196")
	colorBlue   = lipgloss.Color("33")
	colorGray   = lipgloss.Color("244")
)

// UI writes styled messages to a single writer.
type UI struct {
	out     io.Writer
	noColor bool
}

// New creates a UI. Color is disabled when noColor is set or out is not a terminal.
func New(out io.Writer, noColor bool) *UI {
	return &UI{out: out, noColor: noColor || !IsTerminal(out)}
}

// IsTerminal reports whether w is attached to a terminal.
func IsTerminal(w io.Writer) bool {
	if file, ok := w.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}

// Writer returns the underlying writer.
func (u *UI) Writer() io.Writer { return u.out }

func (u *UI) stylize(text string, style lipgloss.Style) string {
	if u.noColor {
		return text
	}
	return style.Render(text)
}

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

// Header prints a section header.
func (u *UI) Header(title string) {
	line := strings.Repeat("=", len(title)+4)
	style := fg(colorBlue).Bold(true)
	fmt.Fprintf(u.out, "\n%s\n%s\n%s\n\n",
		u.stylize(line, style), u.stylize("  "+title, style), u.stylize(line, style))
}

func (u *UI) Success(message string) {
	fmt.Fprintf(u.out, "%s %s\n", u.stylize("✓", fg(colorGreen)), message)
}

func (u *UI) Error(message string) {
	fmt.Fprintf(u.out, "%s %s\n", u.stylize("✗", fg(colorRed)), message)
}

func (u *UI) Warning(message string) {
	fmt.Fprintf(u.out, "%s %s\n", u.stylize("⚠", fg(colorYellow)), message)
}

func (u *UI) Info(message string) {
	fmt.Fprintf(u.out, "  %s\n", message)
}

// Muted renders secondary text.
func (u *UI) Muted(text string) string {
	return u.stylize(text, fg(colorGray))
}

// Symbol colors a progress symbol: "." green, "~" yellow, "F" red.
func (u *UI) Symbol(symbol string) string {
	switch symbol {
	case ".":
		return u.stylize(symbol, fg(colorGreen).Bold(true))
	case "~":
		return u.stylize(symbol, fg(colorYellow).Bold(true))
	case "F":
		return u.stylize(symbol, fg(colorRed).Bold(true))
	}
	return symbol
}

// Outcome colors a PASS/FAIL word.
func (u *UI) Outcome(word string, passed bool) string {
	if passed {
		return u.stylize(word, fg(colorGreen))
	}
	return u.stylize(word, fg(colorRed))
}

// Table prints a simple aligned table.
func (u *UI) Table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	bold := lipgloss.NewStyle().Bold(true)
	for i, h := range headers {
		fmt.Fprint(u.out, u.stylize(fmt.Sprintf("%-*s", widths[i], h), bold)+"  ")
	}
	fmt.Fprintln(u.out)
	for _, w := range widths {
		fmt.Fprint(u.out, strings.Repeat("-", w)+"  ")
	}
	fmt.Fprintln(u.out)
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(u.out, "%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(u.out)
	}
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
