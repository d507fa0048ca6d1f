package runner

import (
	"io"

	"github.com/amonks/taskopy/internal/mutex"
	"github.com/amonks/taskopy/internal/outputwriter"
)

// A MultiWriter hands out one output stream per task ID. The runner's own
// messages go to the stream with ID [LogID].
type MultiWriter interface {
	Writer(id string) io.Writer
}

// A Notifier shows an alert to the user.
type Notifier interface {
	Alert(title, message string)
}

// lineWriters wraps a MultiWriter so that every stream is line-buffered.
type lineWriters struct {
	base    MultiWriter
	writers map[string]*outputwriter.Writer
	mu      *mutex.Mutex
}

func newLineWriters(mw MultiWriter) *lineWriters {
	return &lineWriters{
		base:    mw,
		writers: map[string]*outputwriter.Writer{},
		mu:      mutex.New("linewriters"),
	}
}

var _ MultiWriter = &lineWriters{}

func (lw *lineWriters) Writer(id string) io.Writer {
	return lw.writer(id)
}

func (lw *lineWriters) writer(id string) *outputwriter.Writer {
	defer lw.mu.Lock("Writer").Unlock()

	if w, has := lw.writers[id]; has {
		return w
	}
	lw.writers[id] = outputwriter.New(lw.base.Writer(id))
	return lw.writers[id]
}

// flush passes on any partial line a task left behind.
func (lw *lineWriters) flush(id string) {
	lw.writer(id).Flush()
}
