// Package ui provides the CLI's terminal styling and gated verbose
// logging, grounded on log_set/log_print/log_bytes in
// _examples/original_source/src/tools.c and the lipgloss usage in
// guiperry-HASHER's internal/cli/ui package — used here purely for
// static string styling, not its bubbletea-driven chat UI.
package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// Error renders msg in the CLI's error style.
func Error(msg string) string {
	return errorStyle.Render(msg)
}

// Logger gates verbose output the way the original tool's log_set
// verbosity flag does: silent unless enabled.
type Logger struct {
	verbose bool
}

// NewLogger returns a Logger that only prints when verbose is true.
func NewLogger(verbose bool) *Logger {
	return &Logger{verbose: verbose}
}

// Logf prints a styled, formatted line to stderr if verbose logging is
// enabled.
func (l *Logger) Logf(format string, args ...any) {
	if !l.verbose {
		return
	}
	fmt.Fprintln(os.Stderr, infoStyle.Render(fmt.Sprintf(format, args...)))
}

// Printf prints a styled, formatted line unconditionally, for the small
// set of status lines (firmware banner, target summary) the original
// tool always emits regardless of verbosity.
func (l *Logger) Printf(format string, args ...any) {
	fmt.Println(infoStyle.Render(fmt.Sprintf(format, args...)))
}
