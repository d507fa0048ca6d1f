// Package safebuffer is a bytes.Buffer that tasks can write to from their own
// goroutines while a test reads it.
package safebuffer

import (
	"bytes"
	"sync"
)

type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func New() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Write(bs []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(bs)
}

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
