package tui

import (
	"github.com/amonks/taskopy/runner"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type Model struct {
	tui *TUI
	c   Controller

	focus    focusArea
	selected int

	width   int
	height  int
	gotSize bool

	quitKey string
	lastkey string

	// alert is shown in the footer until the next keypress.
	alert string

	// follow keeps the log scrolled to the bottom as it grows.
	follow bool
	log    viewport.Model

	spinner spinner.Model
	help    viewport.Model
}

func (m *Model) Init() tea.Cmd {
	m.log = viewport.New(0, 0)
	m.help = viewport.New(0, 0)
	m.follow = true

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Jump

	return m.spinner.Tick
}

// A menuItem is either a task or a submenu header.
type menuItem struct {
	id     string
	header string
}

// menuItems lists the selectable entries: the runner's own log, the
// interleaved log, then the menu tasks grouped by submenu.
func (m *Model) menuItems() []menuItem {
	items := []menuItem{{id: runner.LogID}, {id: InterleavedID}}
	for _, group := range m.c.Library().Menu() {
		if group.Submenu != "" {
			items = append(items, menuItem{header: group.Submenu})
		}
		for _, id := range group.IDs {
			items = append(items, menuItem{id: id})
		}
	}
	return items
}

// selectable is menuItems without the headers.
func (m *Model) selectable() []string {
	var ids []string
	for _, item := range m.menuItems() {
		if item.id != "" {
			ids = append(ids, item.id)
		}
	}
	return ids
}

func (m *Model) activeTaskID() string {
	ids := m.selectable()
	if m.selected >= len(ids) {
		m.selected = len(ids) - 1
	}
	return ids[m.selected]
}

func (m *Model) move(by int) {
	n := len(m.selectable())
	m.selected = ((m.selected+by)%n + n) % n
	m.follow = true
}

type focusArea int

const (
	focusMenu focusArea = iota
	focusLogs
	focusHelp
)
