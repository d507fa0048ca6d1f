// Package outputwriter line-buffers task output so that concurrent tasks
// never interleave within a line on a shared console.
package outputwriter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/amonks/taskopy/internal/mutex"
)

// Writer buffers writes and passes them on one complete line at a time. A
// line holding a JSON object or array is re-indented.
type Writer struct {
	buf *bufio.Writer
	mu  *mutex.Mutex
}

func New(w io.Writer) *Writer {
	return &Writer{
		buf: bufio.NewWriter(&jsonWriter{w: w}),
		mu:  mutex.New("outputwriter"),
	}
}

func (w *Writer) Write(bs []byte) (n int, err error) {
	defer w.mu.Lock("Write").Unlock()

	for _, b := range bs {
		if err = w.buf.WriteByte(b); err != nil {
			return n, err
		}
		n++
		if b == '\n' {
			if err = w.buf.Flush(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// Flush passes on a trailing partial line, terminating it with a newline.
func (w *Writer) Flush() error {
	defer w.mu.Lock("Flush").Unlock()

	if w.buf.Buffered() == 0 {
		return nil
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return err
	}
	return w.buf.Flush()
}

// jsonWriter receives exactly one line per Write.
type jsonWriter struct {
	w io.Writer
}

func (w *jsonWriter) Write(bs []byte) (int, error) {
	line := bytes.TrimSpace(bs)
	if len(line) > 0 && (line[0] == '{' || line[0] == '[') {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, line, "", "  "); err == nil {
			pretty.WriteByte('\n')
			if _, err := w.w.Write(pretty.Bytes()); err != nil {
				return 0, err
			}
			return len(bs), nil
		}
	}
	if _, err := w.w.Write(bs); err != nil {
		return 0, err
	}
	return len(bs), nil
}
