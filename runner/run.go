package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/amonks/taskopy/history"
	"github.com/amonks/taskopy/internal/executor"
	"github.com/amonks/taskopy/internal/styles"
	"github.com/amonks/taskopy/tasks"
)

// Run starts a run of the task with the given ID, unless one of these stops
// it, checked in order:
//
//   - there is no such task: [ErrNotFound]
//   - the runner is disabled and the task isn't hyperactive: [ErrDisabled]
//   - the task is single and already running: [ErrAlreadyRunning]
//   - the task's rule returns false, fails, or panics: [ErrRejected]
//
// The rule is evaluated synchronously. The task itself runs on its own
// goroutine; wait for it with the returned Execution.
func (r *Runner) Run(id string, call tasks.Call) (*Execution, error) {
	r.mu.Lock("Run")
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	gen, ctx := r.gen, r.ctx
	r.runs.Add(1)
	r.mu.Unlock()

	e, err := r.run(ctx, gen, id, call)
	if err != nil {
		r.runs.Done()
		r.reject(id, call, err)
		return nil, err
	}
	return e, nil
}

func (r *Runner) run(ctx context.Context, gen *generation, id string, call tasks.Call) (*Execution, error) {
	if gen == nil || !gen.lib.Has(id) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	var (
		task = gen.lib.Task(id)
		cfg  = task.Config()
		st   = gen.states[id]
	)

	if !r.enabled.Load() && !cfg.Hyperactive {
		return nil, ErrDisabled
	}
	if !st.acquire(cfg.Single) {
		return nil, ErrAlreadyRunning
	}
	if cfg.Rule != nil {
		if ok, err := checkRule(ctx, cfg.Rule, call); !ok || err != nil {
			st.release()
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrRejected, err)
			}
			return nil, ErrRejected
		}
	}

	var w io.Writer = io.Discard
	if !cfg.NoPrint {
		w = r.mw.Writer(id)
	}

	e := &Execution{
		ID:      history.NewID(),
		TaskID:  id,
		Caller:  call.Caller,
		Started: time.Now(),
		done:    make(chan struct{}),
	}
	e.x = executor.New(ctx, func(ctx context.Context) (string, error) {
		return task.Start(ctx, call, w)
	})

	if cfg.Log {
		r.printf(id, styles.Log, "run (%s)", call.Caller)
		r.logger.Info("task run", "task", id, "caller", call.Caller, "run", e.ID)
	}
	st.begin(e)
	r.metrics.RunStarted(id)
	if r.recorder != nil {
		if err := r.recorder.RecordStart(ctx, e.ID, id, string(call.Caller), e.Started); err != nil {
			r.logger.Warn("recording run", "task", id, "error", err)
		}
	}

	e.x.Execute()
	go func() {
		defer r.runs.Done()
		result, err := e.x.Wait(context.Background())
		r.finish(cfg, st, e, result, err)
	}()

	return e, nil
}

// finish records the outcome of a run and applies the alert policy: only a
// failure that takes the task's error counter past its threshold alerts.
func (r *Runner) finish(cfg tasks.Config, st *state, e *Execution, result string, err error) {
	var (
		id        = cfg.ID
		d         = time.Since(e.Started)
		outcome   = history.OK
		ended     = e.Started.Add(d)
		threshold = cfg.ErrThreshold
	)
	if threshold < 0 {
		threshold = r.errThreshold
	}

	if !cfg.NoPrint {
		r.mw.flush(id)
	}
	alert := st.end(e, err, threshold)
	if errors.Is(err, context.Canceled) && r.ctx.Err() != nil {
		// Canceled by Shutdown.
		alert = false
	}

	if err != nil {
		outcome = history.Failed
		if !cfg.NoPrint {
			r.printf(id, styles.Alert, "failed: %s", err)
		}
		r.logger.Error("task failed", "task", id, "caller", e.Caller, "run", e.ID, "error", err)
	} else if cfg.Log {
		r.printf(id, styles.Log, "done in %s", d.Round(time.Millisecond))
	}

	r.metrics.RunFinished(id, string(e.Caller), outcome, d)
	if r.recorder != nil {
		if rerr := r.recorder.RecordFinish(context.Background(), e.ID, ended, result, err); rerr != nil {
			r.logger.Warn("recording run", "task", id, "error", rerr)
		}
	}
	if alert {
		r.metrics.Alerted(id)
		r.alert(cfg.DisplayName(), err)
	}

	e.result, e.err = result, err
	close(e.done)
}

func (r *Runner) reject(id string, call tasks.Call, err error) {
	var reason string
	switch {
	case errors.Is(err, ErrNotFound):
		reason = "not_found"
	case errors.Is(err, ErrDisabled):
		reason = "disabled"
	case errors.Is(err, ErrAlreadyRunning):
		reason = "already_running"
	case errors.Is(err, ErrRejected):
		reason = "rule"
	default:
		reason = "closed"
	}
	r.metrics.Rejected(id, reason)
	r.logger.Debug("run rejected", "task", id, "caller", call.Caller, "reason", reason, "error", err)
}

// checkRule evaluates a rule. A panic counts as a rejection.
func checkRule(ctx context.Context, rule tasks.Rule, call tasks.Call) (ok bool, err error) {
	defer func() {
		if v := recover(); v != nil {
			ok, err = false, fmt.Errorf("rule panicked: %v", v)
		}
	}()
	return rule(ctx, call)
}
