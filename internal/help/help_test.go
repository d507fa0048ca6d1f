package help_test

import (
	"strings"
	"testing"

	"github.com/amonks/taskopy/internal/help"
	"github.com/stretchr/testify/assert"
)

var sec = help.Section{
	Title: "Menu",
	Keys: []help.Key{
		{Keys: "a", Desc: "one"},
		{Keys: "b", Desc: "two"},
		{Keys: "c", Desc: "three"},
	},
}

func TestRenderInline(t *testing.T) {
	assert.Equal(t, "a: one    b: two    \nc: three    \n", sec.RenderInline(help.Monochrome, 20, 2))
	assert.Equal(t, "a: one    b: two    \n", sec.RenderInline(help.Monochrome, 20, 1))
	assert.Equal(t, "\n\n", sec.RenderInline(help.Monochrome, 4, 2))
}

func TestRender(t *testing.T) {
	out := help.Menu{sec, {Title: "Help", Keys: []help.Key{{Keys: "esc or q", Desc: "exit help"}}}}.
		Render(help.Monochrome, 80)
	assert.Contains(t, out, "MENU")
	assert.Contains(t, out, "  a        one")
	assert.Contains(t, out, "  esc or q exit help")
}

func TestRenderWraps(t *testing.T) {
	menu := help.Menu{{Title: "Log", Keys: []help.Key{
		{Keys: "s", Desc: "save the selected log to a file in the working directory"},
	}}}
	var lines []string
	for _, l := range strings.Split(menu.Render(help.Monochrome, 26), "\n") {
		lines = append(lines, strings.TrimRight(l, " "))
	}
	assert.Equal(t, []string{
		"LOG",
		"  s save the selected log",
		"    to a file in the",
		"    working directory",
		"",
		"",
	}, lines)
}
