package runner

import (
	"errors"
	"time"

	"github.com/amonks/taskopy/eventlog"
	"github.com/amonks/taskopy/hotkey"
	"github.com/amonks/taskopy/idle"
	"github.com/amonks/taskopy/internal/allowlist"
	"github.com/amonks/taskopy/internal/watcher"
	"github.com/amonks/taskopy/schedule"
	"github.com/amonks/taskopy/tasks"
)

var errNoBroker = errors.New("no message broker is configured")

// A binding ties one trigger source to one task. Bindings are planned
// without side effects; start registers with the source and returns the
// function that unregisters.
type binding struct {
	Binding
	start func() (stop func(), err error)
	stop  func()
}

// A Binding describes an active trigger.
type Binding struct {
	TaskID  string `json:"task"`
	Trigger string `json:"trigger"`
	Spec    string `json:"spec,omitempty"`
}

// generation is everything built from one load of the taskfile.
type generation struct {
	lib      tasks.Library
	states   map[string]*state
	allow    map[string]allowlist.List
	bindings []*binding
	idle     *idle.Watcher
	dateKeys map[string]bool

	// Once the generation is swapped in, take r.mu to touch warnings,
	// active, or idleStop.
	warnings []error
	active   []Binding
	idleStop func()
}

func (gen *generation) bind(id, trigger, spec string, start func() (func(), error)) {
	gen.bindings = append(gen.bindings, &binding{
		Binding: Binding{TaskID: id, Trigger: trigger, Spec: spec},
		start:   start,
	})
}

// plan builds a generation from lib. Trigger syntax errors become warnings,
// and the offending trigger is left out.
func (r *Runner) plan(lib tasks.Library, warnings []error) *generation {
	gen := &generation{
		lib:      lib,
		states:   map[string]*state{},
		allow:    map[string]allowlist.List{},
		idle:     idle.New(),
		dateKeys: map[string]bool{},
		warnings: append([]error(nil), warnings...),
	}

	for _, id := range lib.IDs() {
		var (
			cfg  = lib.Task(id).Config()
			warn = func(trigger string, err error) {
				gen.warnings = append(gen.warnings, tasks.Warn(cfg, trigger, err))
			}
			fire = func(caller tasks.Caller, data string) {
				r.fire(id, tasks.Call{Caller: caller, Data: data})
			}
		)
		gen.states[id] = newState()

		for _, expr := range cfg.Schedule {
			sched, err := schedule.Parse(expr)
			if err != nil {
				warn("schedule", err)
				continue
			}
			gen.bind(id, "schedule", expr, func() (func(), error) {
				entry := r.ticker.Add(sched, func(time.Time) { fire(tasks.CallerScheduler, "") })
				return func() { r.ticker.Remove(entry) }, nil
			})
		}

		for _, expr := range cfg.Date {
			pattern, err := schedule.ParseDate(expr)
			if err != nil {
				warn("date", err)
				continue
			}
			key := dateKey(id, pattern.String())
			gen.dateKeys[key] = true
			gen.bind(id, "date", pattern.String(), func() (func(), error) {
				entry := r.ticker.AddDate(pattern, func(now time.Time) {
					if r.dates.mark(key, now) {
						fire(tasks.CallerDate, "")
					}
				})
				return func() { r.ticker.Remove(entry) }, nil
			})
		}

		if cfg.Hotkey != "" {
			if combo, err := hotkey.Parse(cfg.Hotkey); err != nil {
				warn("hotkey", err)
			} else {
				gen.bind(id, "hotkey", combo.String(), func() (func(), error) {
					b, err := hotkey.Register(combo, cfg.HotkeySuppress, func() { fire(tasks.CallerHotkey, "") })
					if err != nil {
						return nil, err
					}
					return func() { b.Close() }, nil
				})
			}
		}

		if cfg.HTTP {
			if list, err := allowlist.Parse(cfg.HTTPWhiteList); err != nil {
				warn("http_white_list", err)
			} else {
				gen.allow[id] = list
			}
		}

		if cfg.FileChange != "" {
			opts := r.watchOptions
			opts.Action = cfg.FileChangeAction
			if _, err := watcher.ParseAction(opts.Action); err != nil {
				warn("on_file_change", err)
			} else {
				gen.bind(id, "on_file_change", cfg.FileChange, func() (func(), error) {
					c, stop, err := watcher.Watch(cfg.FileChange, opts)
					if err != nil {
						return nil, err
					}
					go func() {
						for ev := range c {
							fire(tasks.CallerFileChange, ev.Path)
						}
					}()
					return stop, nil
				})
			}
		}

		if cfg.Idle > 0 {
			threshold := cfg.Idle
			gen.bind(id, "idle", threshold.String(), func() (func(), error) {
				if _, err := idle.IdleTime(); err != nil {
					return nil, err
				}
				gen.idle.Add(id, threshold, func() { fire(tasks.CallerIdle, "") })
				return func() {}, nil
			})
		}

		if cfg.EventLog != "" {
			gen.bind(id, "event_log", cfg.EventLog, func() (func(), error) {
				sub, err := eventlog.Subscribe(cfg.EventLog, cfg.EventQuery, func(xml string) {
					fire(tasks.CallerEventLog, xml)
				})
				if err != nil {
					return nil, err
				}
				return func() { sub.Close() }, nil
			})
		}

		if cfg.Subscribe != "" {
			gen.bind(id, "subscribe", cfg.Subscribe, func() (func(), error) {
				if r.subscriber == nil {
					return nil, errNoBroker
				}
				sub, err := r.subscriber.Subscribe(cfg.Subscribe, func(data []byte) {
					fire(tasks.CallerSubscribe, string(data))
				})
				if err != nil {
					return nil, err
				}
				return func() { sub.Close() }, nil
			})
		}
	}

	return gen
}

// startBindings registers every planned binding. A binding that fails to
// start becomes a warning; the rest still start. If prev is the generation
// being replaced, gen's idle triggers continue its idle session.
func (r *Runner) startBindings(gen, prev *generation) {
	var (
		warnings []error
		active   []Binding
	)
	for _, b := range gen.bindings {
		stop, err := b.start()
		if err != nil {
			cfg := gen.lib.Task(b.TaskID).Config()
			warnings = append(warnings, tasks.Warn(cfg, b.Trigger, err))
			continue
		}
		b.stop = stop
		active = append(active, b.Binding)
	}

	if prev != nil {
		gen.idle.Resume(prev.idle)
	}

	var idleStop func()
	if interval := gen.idle.Interval(); interval > 0 {
		entry := r.ticker.AddEvery(interval, func(now time.Time) {
			if err := gen.idle.Poll(now); err != nil {
				r.logger.Debug("reading idle time", "error", err)
			}
		})
		idleStop = func() { r.ticker.Remove(entry) }
	}

	defer r.mu.Lock("startBindings").Unlock()
	gen.warnings = append(gen.warnings, warnings...)
	gen.active = active
	gen.idleStop = idleStop
}

// stopBindings unregisters every started binding, newest first.
func (r *Runner) stopBindings(gen *generation) {
	r.mu.Lock("stopBindings")
	idleStop := gen.idleStop
	gen.idleStop = nil
	gen.active = nil
	r.mu.Unlock()

	if idleStop != nil {
		idleStop()
	}
	for i := len(gen.bindings) - 1; i >= 0; i-- {
		if b := gen.bindings[i]; b.stop != nil {
			b.stop()
			b.stop = nil
		}
	}
}
