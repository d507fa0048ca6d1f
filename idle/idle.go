// Package idle fires callbacks once the user has been idle for long enough.
//
// An idle session starts at the user's last input. Each callback fires at
// most once per session, on the first check at which the session has lasted
// at least the callback's threshold.
package idle

import (
	"sync"
	"time"

	"github.com/amonks/taskopy/internal/sysinfo"
)

// IdleTime reads the current idle duration. It's a variable so tests can
// replace it.
var IdleTime = sysinfo.IdleTime

// MinInterval is the shortest check interval.
const MinInterval = time.Second

type Watcher struct {
	mu           sync.Mutex
	entries      []*entry
	sessionStart time.Time
}

type entry struct {
	key       string
	threshold time.Duration
	fn        func()
	fired     bool
}

func New() *Watcher {
	return &Watcher{}
}

// Add registers fn to fire once per idle session of at least threshold. key
// names the callback for [Watcher.Resume].
func (w *Watcher) Add(key string, threshold time.Duration, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, &entry{key: key, threshold: threshold, fn: fn})
}

// Resume continues prev's idle session in w: an entry that matches, by key
// and threshold, one that already fired in prev's session doesn't fire
// again until the session ends.
func (w *Watcher) Resume(prev *Watcher) {
	if prev == nil || prev == w {
		return
	}
	type id struct {
		key       string
		threshold time.Duration
	}

	prev.mu.Lock()
	start := prev.sessionStart
	fired := map[id]bool{}
	for _, e := range prev.entries {
		if e.fired {
			fired[id{e.key, e.threshold}] = true
		}
	}
	prev.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.sessionStart = start
	for _, e := range w.entries {
		if fired[id{e.key, e.threshold}] {
			e.fired = true
		}
	}
}

func (w *Watcher) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Interval is how often the watcher should be checked: the smallest
// threshold, but no less than MinInterval. It is 0 if there are no entries.
func (w *Watcher) Interval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	var min time.Duration
	for _, e := range w.entries {
		if min == 0 || e.threshold < min {
			min = e.threshold
		}
	}
	if min != 0 && min < MinInterval {
		min = MinInterval
	}
	return min
}

// Check fires the callbacks that are due given that, at now, the user has
// been idle for idleFor. If the user has been active since the previous
// check, every callback is re-armed first. Callbacks are called
// synchronously, in the order they were added.
func (w *Watcher) Check(now time.Time, idleFor time.Duration) {
	var due []func()

	w.mu.Lock()
	start := now.Add(-idleFor)
	// Input readings are only accurate to the tick, so a session that
	// starts within a second of the previous one is the same session.
	if start.Sub(w.sessionStart) > time.Second {
		for _, e := range w.entries {
			e.fired = false
		}
	}
	w.sessionStart = start
	for _, e := range w.entries {
		if !e.fired && idleFor >= e.threshold {
			e.fired = true
			due = append(due, e.fn)
		}
	}
	w.mu.Unlock()

	for _, fn := range due {
		fn()
	}
}

// Poll reads the idle time with IdleTime and checks it.
func (w *Watcher) Poll(now time.Time) error {
	d, err := IdleTime()
	if err != nil {
		return err
	}
	w.Check(now, d)
	return nil
}
