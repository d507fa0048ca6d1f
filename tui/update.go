package tui

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/amonks/taskopy/internal/ansi"
	"github.com/amonks/taskopy/internal/help"
	istyles "github.com/amonks/taskopy/internal/styles"
	"github.com/amonks/taskopy/runner"
	"github.com/amonks/taskopy/tasks"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.MouseMsg:
		if m.focus == focusHelp {
			return m.passthroughToHelp(msg)
		}

		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress {
			for i, id := range m.selectable() {
				if zone.Get(id).InBounds(msg) {
					m.selected, m.focus, m.follow = i, focusMenu, true
					m.runSelected()
					return m, nil
				}
			}
			return m, nil
		}

		if zone.Get(uiZoneLogs).InBounds(msg) {
			return m.passthroughToLog(msg)
		}
		return m, nil

	case tea.KeyMsg:
		if !m.gotSize {
			return m, nil
		}
		m.alert = ""

		// ctrl+c always quits, whatever has focus.
		if msg.String() == "ctrl+c" {
			return m.handleQuitAttempt(msg.String())
		}
		if m.quitKey == msg.String() {
			return m, tea.Quit
		}
		m.quitKey = ""

		if m.focus == focusHelp {
			switch msg.String() {
			case "?", "esc", "q":
				m.focus = focusMenu
				return m, nil
			default:
				return m.passthroughToHelp(msg)
			}
		}

		lastkey := m.lastkey
		m.lastkey = msg.String()

		switch msg.String() {
		case "esc", "q":
			switch m.focus {
			case focusLogs:
				m.focus = focusMenu
			case focusMenu:
				return m.handleQuitAttempt(msg.String())
			}
			return m, nil

		case "?":
			m.focus = focusHelp
			return m, nil

		case "tab":
			switch m.focus {
			case focusLogs:
				m.focus = focusMenu
			case focusMenu:
				m.focus = focusLogs
			}
			return m, nil

		case "l":
			m.focus = focusLogs
			return m, nil

		case "h":
			m.focus = focusMenu
			return m, nil

		case "enter":
			m.runSelected()
			return m, nil

		case "x":
			if len(m.c.LeftClick()) == 0 {
				m.alert = "no left_click task ran"
			}
			return m, nil

		case "e":
			m.c.SetEnabled(!m.c.Enabled())
			return m, nil

		case "r":
			if err := m.c.Reload(); err != nil {
				m.alert = err.Error()
			}
			m.move(0)
			return m, nil

		case "s":
			m.writeFile()
			return m, nil

		case "g":
			if lastkey != "g" {
				return m, nil
			}
			switch m.focus {
			case focusLogs:
				m.log.GotoTop()
				m.follow = false
			case focusMenu:
				m.selected = 0
			}
			return m, nil
		case "G":
			switch m.focus {
			case focusLogs:
				m.log.GotoBottom()
				m.follow = true
			case focusMenu:
				m.selected = len(m.selectable()) - 1
			}
			return m, nil

		case "k", "up":
			switch m.focus {
			case focusLogs:
				m.log.LineUp(1)
				m.follow = false
			case focusMenu:
				m.move(-1)
			}
			return m, nil
		case "j", "down":
			switch m.focus {
			case focusLogs:
				m.log.LineDown(1)
				m.follow = m.log.AtBottom()
			case focusMenu:
				m.move(1)
			}
			return m, nil

		case "pgup", "ctrl+u":
			m.log.HalfViewUp()
			m.follow = false
			return m, nil
		case "pgdown", "ctrl+d":
			m.log.HalfViewDown()
			m.follow = m.log.AtBottom()
			return m, nil

		case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
			n, _ := strconv.Atoi(msg.String())
			if n < len(m.selectable()) {
				m.selected, m.follow = n, true
			}
			return m, nil
		}
		return m, nil

	case msgWrite:
		return m, nil

	case msgAlert:
		m.alert = msg.title + ": " + firstLine(msg.message)
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width, m.help.Height = msg.Width, msg.Height
		m.help.SetContent(helpMenu.Render(help.Colored, msg.Width))
		m.width, m.height = msg.Width, msg.Height
		m.gotSize = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		return m.passthroughToLog(msg)
	}
}

// runSelected runs the selected task as if it were picked from a tray menu.
func (m *Model) runSelected() {
	id := m.activeTaskID()
	if strings.HasPrefix(id, "@") {
		return
	}
	if _, err := m.c.Run(id, tasks.Call{Caller: tasks.CallerMenu}); err != nil {
		m.alert = fmt.Sprintf("%s: %s", id, err)
	}
}

func (m *Model) passthroughToLog(msg tea.Msg) (*Model, tea.Cmd) {
	var cmd tea.Cmd
	m.log, cmd = m.log.Update(msg)
	m.follow = m.log.AtBottom()
	return m, cmd
}

func (m *Model) passthroughToHelp(msg tea.Msg) (*Model, tea.Cmd) {
	var cmd tea.Cmd
	m.help, cmd = m.help.Update(msg)
	return m, cmd
}

func (m *Model) handleQuitAttempt(key string) (*Model, tea.Cmd) {
	if m.quitKey == key {
		return m, tea.Quit
	}
	m.quitKey = key
	return m, nil
}

// writeFile saves the active log, without escape codes, to <id>.log in the
// working directory.
func (m *Model) writeFile() {
	id := m.activeTaskID()
	filename := strings.ReplaceAll(strings.TrimPrefix(id, "@"), string(os.PathSeparator), "-") + ".log"

	var out strings.Builder
	for _, l := range m.tui.Lines(id) {
		out.WriteString(ansi.Strip(l) + "\n")
	}
	if err := os.WriteFile(filename, []byte(out.String()), 0o644); err != nil {
		m.alert = err.Error()
		return
	}
	m.tui.Writer(runner.LogID).Write([]byte(istyles.Log.Render(fmt.Sprintf("wrote %s to '%s'", id, filename)) + "\n"))
}

func firstLine(s string) string {
	l, _, _ := strings.Cut(s, "\n")
	return l
}
