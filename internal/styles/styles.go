// Package styles holds the lipgloss styles shared by the printer, the TUI and
// the CLI.
package styles

import (
	"github.com/amonks/taskopy/internal/color"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Log is for taskopy's own lines in a task's output.
	Log = lipgloss.NewStyle().
		Foreground(color.Text).
		Italic(true)

	Warn  = lipgloss.NewStyle().Foreground(color.Yellow).Bold(true)
	Alert = lipgloss.NewStyle().Foreground(color.Red).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(color.Faint)

	// Glyphs in the menu.
	Failed    = lipgloss.NewStyle().Foreground(color.Red)
	Succeeded = lipgloss.NewStyle().Foreground(color.Green)
)
