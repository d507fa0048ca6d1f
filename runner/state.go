package runner

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amonks/taskopy/internal/executor"
	"github.com/amonks/taskopy/tasks"
)

// state is the runtime state of one task. It passes from generation to
// generation for as long as the task's ID stays in the taskfile.
type state struct {
	// running counts runs in flight. Single tasks take it from 0 to 1
	// with a compare-and-set.
	running atomic.Int32

	mu        sync.Mutex
	errCount  int
	runs      int
	failures  int
	lastStart time.Time
	lastErr   error
	current   map[string]*Execution
}

func newState() *state {
	return &state{current: map[string]*Execution{}}
}

// acquire marks a run as started. It fails if single is set and the task is
// already running.
func (st *state) acquire(single bool) bool {
	if single {
		return st.running.CompareAndSwap(0, 1)
	}
	st.running.Add(1)
	return true
}

func (st *state) release() {
	st.running.Add(-1)
}

func (st *state) isRunning() bool {
	return st.running.Load() > 0
}

func (st *state) begin(e *Execution) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.runs++
	st.lastStart = e.Started
	st.current[e.ID] = e
}

// end records the outcome of a run. It reports whether the failure pushed
// the error counter past threshold, in which case the counter is reset.
func (st *state) end(e *Execution, err error, threshold int) (alert bool) {
	st.mu.Lock()
	delete(st.current, e.ID)
	if err == nil {
		st.errCount = 0
	} else {
		st.failures++
		st.lastErr = err
		st.errCount++
		if st.errCount > threshold {
			st.errCount = 0
			alert = true
		}
	}
	st.mu.Unlock()

	st.release()
	return alert
}

func (st *state) status(id string, cfg tasks.Config) TaskStatus {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := TaskStatus{
		ID:        id,
		Name:      cfg.DisplayName(),
		Submenu:   cfg.Submenu,
		Menu:      cfg.Menu,
		Running:   int(st.running.Load()),
		LastStart: st.lastStart,
		Runs:      st.runs,
		Failures:  st.failures,
		ErrCount:  st.errCount,
	}
	if st.lastErr != nil {
		s.LastError = st.lastErr.Error()
	}
	for runID := range st.current {
		s.Current = append(s.Current, runID)
	}
	sort.Strings(s.Current)
	return s
}

// An Execution is one run of a task. It is a future for the run's result.
type Execution struct {
	ID      string
	TaskID  string
	Caller  tasks.Caller
	Started time.Time

	x      *executor.Executor
	done   chan struct{}
	result string
	err    error
}

// Wait blocks until the run has finished and its outcome has been recorded,
// or until ctx is done. In the latter case it returns ctx's error and the
// run keeps going.
func (e *Execution) Wait(ctx context.Context) (string, error) {
	select {
	case <-e.done:
		return e.result, e.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Done is closed once the run has finished.
func (e *Execution) Done() <-chan struct{} { return e.done }

// Cancel cancels the run's context and waits for the task to return.
func (e *Execution) Cancel() error {
	e.x.Cancel()
	<-e.done
	return e.err
}

// minutes remembers the calendar minute in which each date trigger last
// fired, keyed by task ID and pattern.
type minutes struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func newMinutes() *minutes {
	return &minutes{last: map[string]time.Time{}}
}

func dateKey(id, pattern string) string { return id + " " + pattern }

// mark records a fire at now. It reports false if key already fired in now's
// minute.
func (m *minutes) mark(key string, now time.Time) bool {
	minute := now.Truncate(time.Minute)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last[key].Equal(minute) {
		return false
	}
	m.last[key] = minute
	return true
}

// retain forgets every key not in keep.
func (m *minutes) retain(keep map[string]bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.last {
		if !keep[key] {
			delete(m.last, key)
		}
	}
}
