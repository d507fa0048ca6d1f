// Package help renders the TUI's key binding reference, both as a full-screen
// menu and as a one-or-two line strip for the footer.
package help

import (
	"strings"

	"github.com/amonks/taskopy/internal/color"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

type Menu []Section

type Section struct {
	Title string
	Keys  []Key
}

type Key struct {
	Keys string
	Desc string
}

type Styles struct {
	Container lipgloss.Style
	Header    lipgloss.Style
	Keys      lipgloss.Style
	Desc      lipgloss.Style
}

var (
	Monochrome = &Styles{
		Container: lipgloss.NewStyle(),
		Header:    lipgloss.NewStyle().Transform(strings.ToUpper),
		Keys:      lipgloss.NewStyle().Bold(true),
		Desc:      lipgloss.NewStyle().Italic(true),
	}
	Colored = &Styles{
		Container: lipgloss.NewStyle().Padding(1, 2),
		Header: lipgloss.NewStyle().
			Transform(strings.ToUpper).
			Bold(true).
			MarginBottom(1).
			Foreground(color.Yellow),
		Keys: lipgloss.NewStyle().Bold(true).Foreground(color.Dim),
		Desc: lipgloss.NewStyle().Italic(true).Foreground(color.Text),
	}
)

// inlineGap separates keys in RenderInline.
const inlineGap = "    "

// Render lays out every section with its keys in a column. Descriptions that
// would run past width wrap under themselves.
func (m Menu) Render(styles *Styles, width int) string {
	keyWidth := 0
	for _, section := range m {
		for _, k := range section.Keys {
			keyWidth = max(keyWidth, lipgloss.Width(k.Keys))
		}
	}

	// "  " + keys + " "
	descIndent := keyWidth + 3
	descWidth := width - descIndent - styles.Container.GetHorizontalFrameSize()

	var out strings.Builder
	for _, section := range m {
		out.WriteString(styles.Header.Render(section.Title) + "\n")
		for _, k := range section.Keys {
			desc := k.Desc
			if descWidth > 0 {
				desc = wordwrap.String(desc, descWidth)
			}
			for i, line := range strings.Split(desc, "\n") {
				if i == 0 {
					out.WriteString("  " + styles.Keys.Render(k.Keys))
					out.WriteString(strings.Repeat(" ", keyWidth-lipgloss.Width(k.Keys)+1))
				} else {
					out.WriteString(strings.Repeat(" ", descIndent))
				}
				out.WriteString(styles.Desc.Render(line) + "\n")
			}
		}
		out.WriteString("\n")
	}
	return styles.Container.Render(out.String())
}

// RenderInline lays the section's keys out in rows, as many to a row as fit
// in width, for exactly height rows. Keys that don't fit are left out.
func (s Section) RenderInline(styles *Styles, width, height int) string {
	var (
		out  strings.Builder
		keys = s.Keys
	)
	for range height {
		used := 0
		for len(keys) > 0 {
			entry := styles.Keys.Render(keys[0].Keys) + ": " + styles.Desc.Render(keys[0].Desc) + inlineGap
			w := lipgloss.Width(entry)
			if used+w > width {
				break
			}
			used += w
			out.WriteString(entry)
			keys = keys[1:]
		}
		out.WriteString("\n")
	}
	return out.String()
}
