// Package printer interleaves the output of every task on one stream, with
// each line prefixed by a gutter naming the task it came from.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/amonks/taskopy/internal/color"
	"github.com/amonks/taskopy/internal/mutex"
	"github.com/amonks/taskopy/internal/styles"
	"github.com/amonks/taskopy/runner"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

type Printer struct {
	mu          *mutex.Mutex
	stdout      io.Writer
	gutterWidth int
	lastKey     string
	keyStyle    lipgloss.Style
	alertStyle  lipgloss.Style
}

// New returns a Printer whose gutter is gutterWidth cells wide. Colors are
// used only if stdout is a terminal that supports them.
func New(gutterWidth int, stdout io.Writer) *Printer {
	renderer := lipgloss.NewRenderer(stdout, termenv.WithColorCache(true))
	return &Printer{
		mu:          mutex.New("printer"),
		gutterWidth: gutterWidth,
		stdout:      stdout,
		keyStyle: renderer.NewStyle().
			Height(1).
			Align(lipgloss.Right).
			Margin(0, 2),
		alertStyle: renderer.NewStyle().Inherit(styles.Alert),
	}
}

// GutterWidth is wide enough for the longest of ids.
func GutterWidth(ids []string) int {
	w := len(runner.LogID)
	for _, id := range ids {
		w = max(w, lipgloss.Width(id))
	}
	return w
}

func (p *Printer) Write(key, message string) {
	defer p.mu.Lock("Write:" + key).Unlock()

	for _, l := range strings.Split(message, "\n") {
		if l == "" {
			continue
		}
		k, space := "", ""
		if key != p.lastKey {
			if p.lastKey != "" {
				space = "\n"
			}
			k, p.lastKey = key, key
		}
		gutter := p.keyStyle.Copy().
			Foreground(color.Hash(key)).
			Width(p.gutterWidth).
			Render(k)
		fmt.Fprintln(p.stdout, space+lipgloss.JoinHorizontal(lipgloss.Top, gutter, l))
	}
}

var _ runner.MultiWriter = &Printer{}
var _ runner.Notifier = &Printer{}

func (p *Printer) Writer(id string) io.Writer {
	return printerWriter{p, id}
}

// Alert prints the alert under the runner's own gutter.
func (p *Printer) Alert(title, message string) {
	p.Write(runner.LogID, p.alertStyle.Render(title+":"))
	p.Write(runner.LogID, message)
}

var _ io.Writer = printerWriter{}

type printerWriter struct {
	printer *Printer
	id      string
}

func (w printerWriter) Write(bs []byte) (int, error) {
	w.printer.Write(w.id, string(bs))
	return len(bs), nil
}
