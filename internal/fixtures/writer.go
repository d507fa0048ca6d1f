package fixtures

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/amonks/taskopy/internal/mutex"
)

// MultiWriter is an in-memory console. It hands out one writer per task ID,
// tees every write into a combined log prefixed with "[id] ", and records
// alerts, so it can stand in for the printer in tests.
type MultiWriter struct {
	combined *bytes.Buffer
	bufs     map[string]*writer
	alerts   []Alert
	mu       *mutex.Mutex
}

// An Alert is one recorded notification.
type Alert struct {
	Title, Message string
}

func NewWriter() *MultiWriter {
	return &MultiWriter{
		combined: &bytes.Buffer{},
		bufs:     map[string]*writer{},
		mu:       mutex.New("testwriter"),
	}
}

func (w *MultiWriter) Write(bs []byte) (int, error) {
	defer w.mu.Lock("Write").Unlock()
	return w.combined.Write(bs)
}

// Alert records a notification and also writes it to the combined log as
// "[alert] title: message".
func (w *MultiWriter) Alert(title, message string) {
	defer w.mu.Lock("Alert").Unlock()
	w.alerts = append(w.alerts, Alert{title, message})
	fmt.Fprintf(w.combined, "[alert] %s: %s\n", title, message)
}

// Alerts returns the recorded alerts, oldest first.
func (w *MultiWriter) Alerts() []Alert {
	defer w.mu.Lock("Alerts").Unlock()
	return append([]Alert(nil), w.alerts...)
}

// String returns everything written by the task with the given ID.
func (w *MultiWriter) String(id string) string {
	w.mu.Lock("String")
	writer, hasWriter := w.bufs[id]
	w.mu.Unlock()
	if !hasWriter {
		return ""
	}

	defer writer.bufMu.Lock("String").Unlock()
	return writer.buf.String()
}

// Lines returns the non-empty lines of the combined log.
func (w *MultiWriter) Lines() []string {
	var lines []string
	for _, l := range strings.Split(w.CombinedString(), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func (w *MultiWriter) CombinedString() string {
	defer w.mu.Lock("CombinedString").Unlock()
	return w.combined.String()
}

func (w *MultiWriter) Writer(id string) io.Writer {
	defer w.mu.Lock("Writer:" + id).Unlock()

	if w, exists := w.bufs[id]; exists {
		return w
	}
	w.bufs[id] = newWriter(id, w.combined, w.mu)
	return w.bufs[id]
}

type writer struct {
	tee   io.Writer
	teeMu *mutex.Mutex

	id    string
	buf   *bytes.Buffer
	bufMu *mutex.Mutex
}

func newWriter(id string, tee io.Writer, teeMu *mutex.Mutex) *writer {
	return &writer{
		tee:   tee,
		teeMu: teeMu,
		id:    id,
		buf:   &bytes.Buffer{},
		bufMu: mutex.New("mwwriter"),
	}
}

func (w *writer) Write(bs []byte) (int, error) {
	w.teeMu.Lock("Write")
	fmt.Fprintf(w.tee, "[%s] %s", w.id, bs)
	w.teeMu.Unlock()

	defer w.bufMu.Lock("Write").Unlock()
	return w.buf.Write(bs)
}
