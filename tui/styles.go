package tui

import (
	"strings"

	"github.com/amonks/taskopy/internal/color"
	"github.com/amonks/taskopy/internal/help"
	istyles "github.com/amonks/taskopy/internal/styles"
	"github.com/charmbracelet/lipgloss"
)

const (
	headerHeight     = 2
	inlineHelpHeight = 2
	footerHeight     = 2 + inlineHelpHeight
)

type styles struct {
	menuWidth, logWidth, logHeight int

	headerLeft, headerRight lipgloss.Style
	headerLine, footerLine  string
	enabled, disabled       lipgloss.Style

	menu, menuHeader, menuItem, item lipgloss.Style

	log        lipgloss.Style
	lineStatus lipgloss.Style
	alert      lipgloss.Style
	inlineHelp *help.Styles
}

// styles lays out the screen. While the logs have focus, the menu shrinks to
// make room for them.
func (m *Model) styles(width, height int, focus focusArea) *styles {
	longest := len(InterleavedID)
	for _, ts := range m.c.Status().Tasks {
		longest = max(longest, lipgloss.Width(ts.Name))
	}

	out := &styles{}
	switch {
	case focus == focusLogs && width < 64:
		out.menuWidth = 0
	case focus == focusLogs:
		out.menuWidth = min(width/3, longest+11)
	case width < 32:
		out.menuWidth = width
	default:
		out.menuWidth = min(width/2, longest+11)
	}
	out.logWidth = max(0, width-out.menuWidth)
	out.logHeight = max(0, height-headerHeight-footerHeight)

	out.headerLeft = lipgloss.NewStyle().
		Width(out.menuWidth).
		Bold(true)
	out.headerRight = lipgloss.NewStyle().
		Width(out.logWidth).
		Align(lipgloss.Right)
	out.headerLine = lipgloss.NewStyle().
		Foreground(color.Faint).
		Render(strings.Repeat("─", width))
	out.footerLine = out.headerLine
	out.enabled = lipgloss.NewStyle().Foreground(color.Green)
	out.disabled = istyles.Warn

	out.menu = lipgloss.NewStyle().
		Width(out.menuWidth).
		MaxWidth(out.menuWidth).
		Height(out.logHeight).
		MaxHeight(out.logHeight)
	out.menuHeader = lipgloss.NewStyle().
		Foreground(color.Dim).
		Bold(true).
		Underline(true).
		MarginLeft(2)
	out.menuItem = lipgloss.NewStyle().
		Foreground(color.Text).
		Inline(true).
		MaxWidth(out.menuWidth)
	out.item = lipgloss.NewStyle().Inline(true)

	out.log = lipgloss.NewStyle().
		Width(out.logWidth).
		Height(out.logHeight)
	out.lineStatus = istyles.Muted
	out.alert = istyles.Alert
	out.inlineHelp = help.Monochrome

	return out
}
