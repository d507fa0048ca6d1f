package tui

import (
	"fmt"
	"strings"

	"github.com/amonks/taskopy/internal/color"
	istyles "github.com/amonks/taskopy/internal/styles"
	"github.com/amonks/taskopy/runner"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/reflow/wrap"
)

type uiZone = string

const (
	uiZoneLogs uiZone = "logs"
)

func (m *Model) View() string {
	if !m.gotSize {
		return ""
	}

	if m.focus == focusHelp {
		return m.help.View()
	}

	var (
		status = m.c.Status()
		styles = m.styles(m.width, m.height, m.focus)
	)
	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(styles, status),
		lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderMenu(styles, status),
			zone.Mark(uiZoneLogs, m.renderLog(styles)),
		),
		m.renderFooter(styles),
	))
}

func (m *Model) renderHeader(styles *styles, status runner.Status) string {
	state := styles.enabled.Render("enabled")
	if !status.Enabled {
		state = styles.disabled.Render("disabled")
	}
	id := m.activeTaskID()
	right := styles.headerRight.Copy().Foreground(color.Hash(id)).Render(id)
	return styles.headerLeft.Render("taskopy "+state) + right + "\n" + styles.headerLine
}

func (m *Model) renderMenu(styles *styles, status runner.Status) string {
	byID := map[string]runner.TaskStatus{}
	for _, ts := range status.Tasks {
		byID[ts.ID] = ts
	}

	var out strings.Builder
	i := 0
	for _, item := range m.menuItems() {
		if item.header != "" {
			out.WriteString(styles.menuHeader.Render(item.header) + "\n")
			continue
		}
		out.WriteString(m.renderMenuItem(styles, byID[item.id], i, item.id) + "\n")
		i++
	}
	return styles.menu.Render(out.String())
}

func (m *Model) renderMenuItem(styles *styles, ts runner.TaskStatus, index int, id string) string {
	marker := " "
	if index == m.selected {
		marker = ">"
	}
	name := id
	if ts.Name != "" {
		name = ts.Name
	}
	taskStyle := styles.item.Copy().Foreground(color.Hash(id))
	line := fmt.Sprintf("%s %s %2.1d %s", marker, m.renderGlyph(ts), index, taskStyle.Render("• "+name))
	return zone.Mark(id, styles.menuItem.Render(line))
}

func (m *Model) renderGlyph(ts runner.TaskStatus) string {
	switch {
	case ts.Running > 0:
		return m.spinner.View()
	case ts.ErrCount > 0:
		return istyles.Failed.Render("×")
	case ts.Runs > 0:
		return istyles.Succeeded.Render("✓")
	default:
		return " "
	}
}

func (m *Model) renderLog(styles *styles) string {
	var (
		lines   = m.tui.Lines(m.activeTaskID())
		content = wrap.String(strings.Join(lines, "\n"), max(1, styles.logWidth))
	)
	m.log.Width, m.log.Height = styles.logWidth, styles.logHeight
	m.log.SetContent(content)
	if m.follow {
		m.log.GotoBottom()
	}
	return styles.log.Render(m.log.View())
}

func (m *Model) renderFooter(styles *styles) string {
	var footer string
	switch {
	case m.quitKey != "":
		footer = "press " + m.quitKey + " again to quit"
	case m.alert != "":
		footer = styles.alert.Render(m.alert)
	default:
		footer = styles.lineStatus.Render(fmt.Sprintf("%d%%", int(m.log.ScrollPercent()*100)))
	}
	return styles.footerLine + "\n" + footer + "\n" +
		helpMenu[0].RenderInline(styles.inlineHelp, m.width, inlineHelpHeight)
}
