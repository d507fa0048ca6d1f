package executor_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amonks/taskopy/internal/executor"
	"github.com/amonks/taskopy/internal/fixtures"
	"github.com/amonks/taskopy/internal/seq"
	"github.com/amonks/taskopy/tasks"
	"github.com/stretchr/testify/assert"
)

func thunk(task tasks.Task, buf *bytes.Buffer) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		return task.Start(ctx, tasks.Call{Caller: tasks.CallerCLI}, buf)
	}
}

func TestExecutor(t *testing.T) {
	t.Run("start and wait", func(t *testing.T) {
		var (
			buf  bytes.Buffer
			task = fixtures.NewTask("task").WithResult("42")
			e    = executor.New(context.Background(), thunk(task, &buf))
		)
		e.Execute()
		result, err := e.Wait(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, "42", result)
		assert.True(t, e.IsDone())
		seq.AssertStringContainsSequence(t, buf.String(), "! task: start (cli)", "! task: execute")
	})

	t.Run("start and cancel", func(t *testing.T) {
		var (
			buf     bytes.Buffer
			release = make(chan struct{})
			task    = fixtures.NewTask("task").WithRelease(release)
			e       = executor.New(context.Background(), thunk(task, &buf))
		)
		e.Execute()
		assert.Eventually(t, func() bool { return task.Starts() == 1 }, time.Second, time.Millisecond)
		err := e.Cancel()
		assert.ErrorIs(t, err, context.Canceled)
		seq.AssertStringContainsSequence(t, buf.String(), "! task: canceled")
	})

	t.Run("canceling the parent cancels the execution", func(t *testing.T) {
		var (
			buf         bytes.Buffer
			release     = make(chan struct{})
			task        = fixtures.NewTask("task").WithRelease(release)
			ctx, cancel = context.WithCancel(context.Background())
			e           = executor.New(ctx, thunk(task, &buf))
		)
		e.Execute()
		cancel()
		_, err := e.Wait(context.Background())
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("wait times out", func(t *testing.T) {
		var (
			buf     bytes.Buffer
			release = make(chan struct{})
			task    = fixtures.NewTask("task").WithRelease(release)
			e       = executor.New(context.Background(), thunk(task, &buf))
		)
		e.Execute()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := e.Wait(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.False(t, e.IsDone())

		close(release)
		result, err := e.Wait(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, "", result)
	})

	t.Run("wait again", func(t *testing.T) {
		var (
			buf  bytes.Buffer
			task = fixtures.NewTask("task").WithFailure("fail")
			e    = executor.New(context.Background(), thunk(task, &buf))
		)
		e.Execute()
		_, err := e.Wait(context.Background())
		assert.ErrorContains(t, err, "fail")
		_, err = e.Wait(context.Background())
		assert.ErrorContains(t, err, "fail")
	})

	t.Run("start again", func(t *testing.T) {
		var (
			buf  bytes.Buffer
			task = fixtures.NewTask("task").WithFailure("fail")
			e    = executor.New(context.Background(), thunk(task, &buf))
		)
		e.Execute()
		<-e.Done()

		e.Execute() // should no-op
		_, err := e.Wait(context.Background())
		assert.ErrorContains(t, err, "fail")
		assert.Equal(t, "! task: start (cli)\n! task: triggered failure\n", buf.String())
	})

	t.Run("panic", func(t *testing.T) {
		var (
			buf  bytes.Buffer
			task = fixtures.NewTask("task").WithPanic("boom")
			e    = executor.New(context.Background(), thunk(task, &buf))
		)
		e.Execute()
		_, err := e.Wait(context.Background())
		var perr *executor.PanicError
		assert.True(t, errors.As(err, &perr))
		assert.Equal(t, "boom", perr.Value)
		assert.ErrorContains(t, err, "panic: boom")
	})

	t.Run("identity", func(t *testing.T) {
		a := executor.New(context.Background(), nil)
		b := executor.New(context.Background(), nil)
		assert.True(t, a.Is(a))
		assert.False(t, a.Is(b))
		assert.False(t, a.Is(nil))
	})
}
