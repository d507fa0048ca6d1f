// Package tui is the interactive front end: a menu of tasks beside the
// output of the selected one. It stands in for a tray icon.
package tui

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/amonks/taskopy/internal/mutex"
	istyles "github.com/amonks/taskopy/internal/styles"
	"github.com/amonks/taskopy/printer"
	"github.com/amonks/taskopy/runner"
	"github.com/amonks/taskopy/tasks"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

// InterleavedID is the pseudo-task whose log shows every task's output.
const InterleavedID = "@interleaved"

// maxLines bounds each log kept in memory.
const maxLines = 5000

// A Controller is what the menu acts on. It's satisfied by *runner.Runner.
type Controller interface {
	Library() tasks.Library
	Status() runner.Status
	Run(id string, call tasks.Call) (*runner.Execution, error)
	LeftClick() []*runner.Execution
	Enabled() bool
	SetEnabled(bool)
	Reload() error
}

// TUI collects output and alerts from the moment it's created, so that it
// can be handed to a runner before the program starts.
type TUI struct {
	mu          *mutex.Mutex
	p           *tea.Program
	logs        map[string][]string
	interleaved *printer.Printer
}

func New() *TUI {
	t := &TUI{
		mu:   mutex.New("tui"),
		logs: map[string][]string{},
	}
	t.interleaved = printer.New(len(runner.LogID), t.Writer(InterleavedID))
	return t
}

// Run shows the UI until the user quits or ctx is canceled.
func (t *TUI) Run(ctx context.Context, stdin io.Reader, stdout io.Writer, c Controller) error {
	zone.NewGlobal()

	p := tea.NewProgram(
		&Model{tui: t, c: c},
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(stdin),
		tea.WithOutput(stdout),
		tea.WithMouseCellMotion())

	t.mu.Lock("Run")
	t.p = p
	t.interleaved = printer.New(max(len(runner.LogID), c.Library().LongestID()), t.Writer(InterleavedID))
	t.mu.Unlock()

	defer func() {
		t.mu.Lock("Run:done")
		t.p = nil
		t.mu.Unlock()
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

var (
	_ runner.MultiWriter = &TUI{}
	_ runner.Notifier    = &TUI{}
)

func (t *TUI) Writer(id string) io.Writer {
	return tuiWriter{t, id}
}

func (t *TUI) Alert(title, message string) {
	t.write(runner.LogID, istyles.Alert.Render(title+":")+"\n"+message+"\n")
	t.send(msgAlert{title: title, message: message})
}

// Lines returns the log of id.
func (t *TUI) Lines(id string) []string {
	defer t.mu.Lock("Lines:" + id).Unlock()
	return append([]string(nil), t.logs[id]...)
}

func (t *TUI) write(id, content string) {
	t.mu.Lock("write:" + id)
	lines := append(t.logs[id], strings.Split(strings.TrimSuffix(content, "\n"), "\n")...)
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	t.logs[id] = lines
	interleaved := t.interleaved
	t.mu.Unlock()

	if id != InterleavedID {
		interleaved.Writer(id).Write([]byte(content))
	}
	t.send(msgWrite{key: id})
}

func (t *TUI) send(msg tea.Msg) {
	t.mu.Lock("send")
	p := t.p
	t.mu.Unlock()
	if p != nil {
		go p.Send(msg)
	}
}

type tuiWriter struct {
	tui *TUI
	id  string
}

var _ io.Writer = tuiWriter{}

func (w tuiWriter) Write(bs []byte) (int, error) {
	w.tui.write(w.id, string(bs))
	return len(bs), nil
}

type (
	msgWrite struct{ key string }
	msgAlert struct{ title, message string }
)
