package tasks

import (
	"context"
	"io"
)

// FuncTask wraps a function and a Config into a Task. It's intended for
// programs that embed taskopy and declare their tasks in Go.
type FuncTask struct {
	config Config
	fn     func(ctx context.Context, call Call, w io.Writer) (string, error)
}

// NewTaskFromFunc turns a config and a start function into a task.
func NewTaskFromFunc(config Config, fn func(ctx context.Context, call Call, w io.Writer) (string, error)) FuncTask {
	return FuncTask{config, fn}
}

var _ Task = FuncTask{}

// Config implements [tasks.Task].
func (t FuncTask) Config() Config { return t.config }

// Start implements [tasks.Task].
func (t FuncTask) Start(ctx context.Context, call Call, w io.Writer) (string, error) {
	return t.fn(ctx, call, w)
}

// Simple adapts a function that doesn't care about its Call or output.
func Simple(fn func(ctx context.Context) error) func(context.Context, Call, io.Writer) (string, error) {
	return func(ctx context.Context, _ Call, _ io.Writer) (string, error) {
		return "", fn(ctx)
	}
}

// WithData adapts a function that only needs the trigger payload.
func WithData(fn func(ctx context.Context, data string) error) func(context.Context, Call, io.Writer) (string, error) {
	return func(ctx context.Context, call Call, _ io.Writer) (string, error) {
		return "", fn(ctx, call.Data)
	}
}

// WithResult adapts a function that produces a result from its Call.
func WithResult(fn func(ctx context.Context, call Call) (string, error)) func(context.Context, Call, io.Writer) (string, error) {
	return func(ctx context.Context, call Call, _ io.Writer) (string, error) {
		return fn(ctx, call)
	}
}
