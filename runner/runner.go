// Package runner is the task dispatcher. It binds every task in a library to
// its triggers, decides whether each trigger may run its task, runs it, and
// keeps per-task state across reloads of the taskfile.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amonks/taskopy/internal/allowlist"
	"github.com/amonks/taskopy/internal/executor"
	"github.com/amonks/taskopy/internal/metrics"
	"github.com/amonks/taskopy/internal/mutex"
	"github.com/amonks/taskopy/internal/styles"
	"github.com/amonks/taskopy/internal/sysinfo"
	"github.com/amonks/taskopy/internal/watcher"
	"github.com/amonks/taskopy/schedule"
	"github.com/amonks/taskopy/subscribe"
	"github.com/amonks/taskopy/tasks"
	"github.com/charmbracelet/lipgloss"
)

// LogID is the output stream the runner writes its own messages to.
const LogID = "@taskopy"

var (
	ErrNotFound       = errors.New("task not found")
	ErrDisabled       = errors.New("runner is disabled")
	ErrAlreadyRunning = errors.New("task is already running")
	ErrRejected       = errors.New("rule rejected the run")
	ErrClosed         = errors.New("runner is shut down")
)

// A Loader builds a fresh library, typically by reading the taskfile.
// Warnings describe tasks that were skipped; an error means nothing could be
// loaded.
type Loader func() (lib tasks.Library, warnings []error, err error)

// Static returns a Loader that always yields lib.
func Static(lib tasks.Library) Loader {
	return func() (tasks.Library, []error, error) { return lib, nil, nil }
}

// A Recorder keeps a history of runs. It's satisfied by *history.Store.
type Recorder interface {
	RecordStart(ctx context.Context, id, taskID, caller string, at time.Time) error
	RecordFinish(ctx context.Context, id string, at time.Time, result string, runErr error) error
}

// Options configures a Runner. Only Load is required.
type Options struct {
	Load Loader

	// Output receives task output and the runner's own messages. Notifier
	// receives alerts; if it's nil, alerts are written to Output.
	Output   MultiWriter
	Notifier Notifier

	Recorder   Recorder
	Subscriber subscribe.Subscriber
	Metrics    *metrics.Metrics
	Logger     *slog.Logger

	// ErrThreshold applies to tasks that don't set their own.
	ErrThreshold int

	// Tasks flagged sys_startup run at Start if the system has been up for
	// less than SysStartupWindow.
	SysStartupWindow time.Duration

	// Taskfile, if set, is watched, and the runner reloads when it
	// changes.
	Taskfile string

	// Ticker drives schedule, date and idle triggers. Tests pass their
	// own and call Tick.
	Ticker *schedule.Ticker

	// WatchOptions is the template for file change triggers. Each task's
	// action overrides its Action.
	WatchOptions *watcher.Options

	Uptime func() (time.Duration, error)

	// A Passive runner only runs tasks when asked to with Run. It binds no
	// triggers and fires no lifecycle tasks.
	Passive bool
}

type Runner struct {
	load             Loader
	mw               *lineWriters
	notifier         Notifier
	recorder         Recorder
	subscriber       subscribe.Subscriber
	metrics          *metrics.Metrics
	logger           *slog.Logger
	ticker           *schedule.Ticker
	watchOptions     watcher.Options
	uptime           func() (time.Duration, error)
	errThreshold     int
	sysStartupWindow time.Duration
	taskfile         string
	passive          bool

	enabled  atomic.Bool
	reloadMu sync.Mutex

	// Take mu to touch gen, closed, or the swapped-in generation's
	// warnings and bindings.
	mu         *mutex.Mutex
	gen        *generation
	closed     bool
	ctx        context.Context
	cancel     context.CancelFunc
	runs       sync.WaitGroup
	stopTicker context.CancelFunc
	stopWatch  func()

	// dates outlives generations so a reload can't refire a date trigger
	// within the minute.
	dates *minutes
}

func New(opts Options) *Runner {
	if opts.Output == nil {
		opts.Output = discard{}
	}
	r := &Runner{
		load:             opts.Load,
		mw:               newLineWriters(opts.Output),
		notifier:         opts.Notifier,
		recorder:         opts.Recorder,
		subscriber:       opts.Subscriber,
		metrics:          opts.Metrics,
		logger:           opts.Logger,
		ticker:           opts.Ticker,
		watchOptions:     watcher.DefaultOptions,
		uptime:           opts.Uptime,
		errThreshold:     opts.ErrThreshold,
		sysStartupWindow: opts.SysStartupWindow,
		taskfile:         opts.Taskfile,
		passive:          opts.Passive,
		mu:               mutex.New("runner"),
		dates:            newMinutes(),
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.ticker == nil {
		r.ticker = schedule.NewTicker()
	}
	if opts.WatchOptions != nil {
		r.watchOptions = *opts.WatchOptions
	}
	if r.uptime == nil {
		r.uptime = sysinfo.Uptime
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.enabled.Store(true)
	return r
}

// Start loads the taskfile, fires the startup tasks, and starts the tick
// loop, which runs until ctx is canceled or the runner is shut down. It
// returns an error only if the first load fails.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.Reload(); err != nil {
		return err
	}

	r.lifecycle(tasks.CallerStartup, func(c tasks.Config) bool { return c.Startup })
	if r.sysStartupWindow > 0 {
		up, err := r.uptime()
		switch {
		case err != nil:
			r.logger.Warn("reading system uptime", "error", err)
		case up < r.sysStartupWindow:
			r.lifecycle(tasks.CallerSysStartup, func(c tasks.Config) bool { return c.SysStartup })
		}
	}

	if r.taskfile != "" {
		opts := watcher.DefaultOptions
		opts.Action = "any"
		c, stop, err := watcher.Watch(r.taskfile, opts)
		if err != nil {
			r.printf(LogID, styles.Warn, "not watching %s: %s", r.taskfile, err)
		} else {
			r.mu.Lock("watch taskfile")
			r.stopWatch = stop
			r.mu.Unlock()
			go func() {
				for range c {
					r.printf(LogID, styles.Log, "%s changed, reloading", r.taskfile)
					r.Reload()
				}
			}()
		}
	}

	tickCtx, stopTicker := context.WithCancel(ctx)
	r.mu.Lock("start ticker")
	r.stopTicker = stopTicker
	r.mu.Unlock()
	r.ticker.Start(tickCtx)

	return nil
}

// Shutdown fires the on_exit tasks and waits for them, then unregisters
// every trigger, cancels the runs still in flight and waits for them to
// return. If ctx is done first, Shutdown stops waiting and returns its
// error.
func (r *Runner) Shutdown(ctx context.Context) error {
	for _, e := range r.lifecycle(tasks.CallerOnExit, func(c tasks.Config) bool { return c.OnExit }) {
		if _, err := e.Wait(ctx); err != nil && ctx.Err() != nil {
			break
		}
	}

	r.mu.Lock("Shutdown")
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	gen, stopTicker, stopWatch := r.gen, r.stopTicker, r.stopWatch
	r.mu.Unlock()

	if stopWatch != nil {
		stopWatch()
	}
	if stopTicker != nil {
		stopTicker()
		r.ticker.Wait()
	}
	if gen != nil {
		r.stopBindings(gen)
	}
	r.cancel()

	done := make(chan struct{})
	go func() { r.runs.Wait(); close(done) }()
	select {
	case <-done:
		r.printf(LogID, styles.Log, "done")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reload builds a new generation from the loader and swaps it in. If the
// load fails, the current generation stays in place, the user is alerted,
// and the error is returned. Runs in flight are never canceled. Each task's
// state (runs in flight and counters) carries over to the task with the same
// ID, if there is one, as does the record of which date and idle triggers
// already fired.
func (r *Runner) Reload() error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	lib, warnings, err := r.load()
	if err != nil {
		r.metrics.Reloaded(false)
		r.logger.Error("reload failed", "error", err)
		r.alert("Reload failed", err)
		return fmt.Errorf("reload: %w", err)
	}

	gen := r.plan(lib, warnings)

	r.mu.Lock("Reload")
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	old := r.gen
	if old != nil {
		// A Run may still hold the old generation, so a task keeps its
		// state for as long as its ID exists; otherwise single could be
		// acquired twice.
		for id, st := range old.states {
			if _, has := gen.states[id]; has {
				gen.states[id] = st
			}
		}
	}
	r.gen = gen
	r.mu.Unlock()

	if old != nil {
		r.stopBindings(old)
	}
	r.dates.retain(gen.dateKeys)
	if !r.passive {
		r.startBindings(gen, old)
	}
	r.metrics.Reloaded(true)

	for _, w := range r.Warnings() {
		r.printf(LogID, styles.Warn, "%s", w)
		r.logger.Warn("task warning", "error", w)
	}
	r.printf(LogID, styles.Log, "loaded %d tasks", lib.Size())
	r.logger.Info("loaded tasks", "count", lib.Size(), "warnings", len(r.Warnings()))

	r.lifecycle(tasks.CallerOnLoad, func(c tasks.Config) bool { return c.OnLoad })
	return nil
}

func (r *Runner) Enabled() bool { return r.enabled.Load() }

// SetEnabled turns the runner on or off. While it's off, only hyperactive
// tasks run.
func (r *Runner) SetEnabled(enabled bool) {
	if r.enabled.Swap(enabled) != enabled {
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		r.printf(LogID, styles.Log, "%s", state)
		r.logger.Info("runner "+state)
	}
}

// Library returns the current library.
func (r *Runner) Library() tasks.Library {
	defer r.mu.Lock("Library").Unlock()
	if r.gen == nil {
		return tasks.NewLibrary()
	}
	return r.gen.lib
}

// Warnings returns the problems found by the last successful load.
func (r *Runner) Warnings() []error {
	defer r.mu.Lock("Warnings").Unlock()
	if r.gen == nil {
		return nil
	}
	return append([]error(nil), r.gen.warnings...)
}

// Bindings lists the triggers that are currently registered.
func (r *Runner) Bindings() []Binding {
	defer r.mu.Lock("Bindings").Unlock()
	if r.gen == nil {
		return nil
	}
	return append([]Binding(nil), r.gen.active...)
}

// An HTTPRoute is a task served over HTTP.
type HTTPRoute struct {
	ID     string
	Result bool
	Allow  allowlist.List
}

// Route finds the HTTP task served at name: either the task whose route is
// name, or the HTTP-enabled task whose ID is name.
func (r *Runner) Route(name string) (HTTPRoute, bool) {
	r.mu.Lock("Route")
	gen := r.gen
	r.mu.Unlock()
	if gen == nil {
		return HTTPRoute{}, false
	}

	t := gen.lib.HTTPTask(name)
	if t == nil {
		if t = gen.lib.Task(name); t == nil || !t.Config().HTTP {
			return HTTPRoute{}, false
		}
	}
	cfg := t.Config()
	allow, ok := gen.allow[cfg.ID]
	if !ok {
		return HTTPRoute{}, false
	}
	return HTTPRoute{ID: cfg.ID, Result: cfg.Result, Allow: allow}, true
}

// LeftClick runs the tasks flagged left_click.
func (r *Runner) LeftClick() []*Execution {
	return r.runAll(tasks.CallerLeftClick, func(c tasks.Config) bool { return c.LeftClick })
}

// lifecycle is runAll, except that passive runners skip it.
func (r *Runner) lifecycle(caller tasks.Caller, pred func(tasks.Config) bool) []*Execution {
	if r.passive {
		return nil
	}
	return r.runAll(caller, pred)
}

// runAll runs, in library order, every task whose config satisfies pred.
func (r *Runner) runAll(caller tasks.Caller, pred func(tasks.Config) bool) []*Execution {
	var execs []*Execution
	for _, id := range r.Library().Filter(pred) {
		if e, err := r.Run(id, tasks.Call{Caller: caller}); err == nil {
			execs = append(execs, e)
		}
	}
	return execs
}

// fire runs a task on behalf of a trigger, which has nobody to hand errors
// to. Run has already logged them.
func (r *Runner) fire(id string, call tasks.Call) {
	r.Run(id, call)
}

func (r *Runner) printf(id string, style lipgloss.Style, f string, args ...any) {
	s := fmt.Sprintf(f, args...)
	r.mw.Writer(id).Write([]byte(style.Render(s) + "\n"))
}

// alert notifies the user of err, showing only the last few lines. For a
// panic, that's the panic value without the stack.
func (r *Runner) alert(title string, err error) {
	msg := tail(err.Error(), alertLines)
	var pe *executor.PanicError
	if errors.As(err, &pe) {
		msg = fmt.Sprintf("panic: %v", pe.Value)
	}
	if r.notifier != nil {
		r.notifier.Alert(title, msg)
		return
	}
	r.printf(LogID, styles.Alert, "%s: %s", title, msg)
}

const alertLines = 5

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

type discard struct{}

func (discard) Writer(string) io.Writer { return io.Discard }
