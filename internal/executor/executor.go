// Executor takes the execution of a cancelable long-running function that
// produces a result and wraps it into an object that can be passed around,
// canceled, and waited for. A panic in the function is recovered and turned
// into a [*PanicError].
package executor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/amonks/taskopy/internal/mutex"
)

type Executor struct {
	fn func(context.Context) (string, error)

	ctx    context.Context
	cancel context.CancelFunc
	mu     *mutex.Mutex
	token  int64

	started bool
	done    chan struct{}
	result  string
	err     error
}

var tokenIncr atomic.Int64

// New prepares fn to run with a context derived from parent. Canceling parent
// cancels the execution.
func New(parent context.Context, fn func(ctx context.Context) (string, error)) *Executor {
	ctx, cancel := context.WithCancel(parent)
	return &Executor{
		fn:     fn,
		ctx:    ctx,
		cancel: cancel,
		mu:     mutex.New("executor"),
		token:  tokenIncr.Add(1),
		done:   make(chan struct{}),
	}
}

// Is reports whether e and other are the same execution.
func (e *Executor) Is(other *Executor) bool {
	return other != nil && e.token == other.token
}

// Execute starts the function on its own goroutine. Calling it again is a
// no-op.
func (e *Executor) Execute() {
	defer e.mu.Lock("Execute").Unlock()

	if e.started {
		return
	}
	e.started = true

	go func() {
		result, err := e.call()
		e.handleExit(result, err)
	}()
}

func (e *Executor) call() (result string, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return e.fn(e.ctx)
}

// Done is closed once the function has returned.
func (e *Executor) Done() <-chan struct{} { return e.done }

// Wait blocks until the function has returned or ctx is done, whichever comes
// first. In the latter case it returns ctx's error and the execution keeps
// going.
func (e *Executor) Wait(ctx context.Context) (string, error) {
	select {
	case <-e.done:
		defer e.mu.Lock("Wait").Unlock()
		return e.result, e.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Cancel cancels the execution's context and waits for the function to
// return. It returns the function's error.
func (e *Executor) Cancel() error {
	e.cancel()

	e.mu.Lock("Cancel")
	started := e.started
	e.mu.Unlock()
	if !started {
		return context.Canceled
	}

	_, err := e.Wait(context.Background())
	return err
}

func (e *Executor) IsDone() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

func (e *Executor) handleExit(result string, err error) {
	e.mu.Lock("handleExit")
	e.result, e.err = result, err
	e.mu.Unlock()

	e.cancel()
	close(e.done)
}

// PanicError is returned by an execution whose function panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (err *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", err.Value, err.Stack)
}
