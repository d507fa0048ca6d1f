package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// EntryID identifies an entry in a Ticker.
type EntryID int

// Ticker is the scheduler tick loop. Once per interval it fires every due
// entry. There are two kinds of entry:
//
//   - schedule entries fire once per due time of their cron.Schedule. If a
//     tick comes late, a missed due time fires once, and the next due time
//     is computed from the late tick.
//   - date entries fire on ticks whose local time matches their Pattern, at
//     most once per calendar minute.
//
// Callbacks run on the tick goroutine, outside of the Ticker's lock, so they
// may add and remove entries. They should return quickly.
type Ticker struct {
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	nextID  EntryID
	entries map[EntryID]*entry
	order   []EntryID

	wg sync.WaitGroup
}

type entry struct {
	id EntryID
	fn func(time.Time)

	sched cron.Schedule
	next  time.Time

	date       *Pattern
	lastMinute time.Time
}

// NewTicker creates a Ticker that ticks once per second.
func NewTicker() *Ticker {
	return &Ticker{
		interval: time.Second,
		now:      time.Now,
		entries:  map[EntryID]*entry{},
	}
}

// WithClock replaces the Ticker's clock, which is read when entries are
// added. It's for tests, which drive the Ticker with Tick.
func (t *Ticker) WithClock(now func() time.Time) *Ticker {
	t.now = now
	return t
}

// Add registers fn to run at each due time of sched.
func (t *Ticker) Add(sched cron.Schedule, fn func(time.Time)) EntryID {
	return t.add(&entry{sched: sched, next: sched.Next(t.now()), fn: fn})
}

// AddFunc parses expr with [Parse] and registers fn.
func (t *Ticker) AddFunc(expr string, fn func(time.Time)) (EntryID, error) {
	sched, err := Parse(expr)
	if err != nil {
		return 0, err
	}
	return t.Add(sched, fn), nil
}

// AddDate registers fn to run once per minute matching p.
func (t *Ticker) AddDate(p Pattern, fn func(time.Time)) EntryID {
	return t.add(&entry{date: &p, fn: fn})
}

// AddEvery registers fn to run every d, starting d from now. d is rounded
// down to whole seconds and is at least one second.
func (t *Ticker) AddEvery(d time.Duration, fn func(time.Time)) EntryID {
	return t.Add(cron.Every(d), fn)
}

func (t *Ticker) add(e *entry) EntryID {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	e.id = t.nextID
	t.entries[e.id] = e
	t.order = append(t.order, e.id)
	return e.id
}

// Remove unregisters an entry. Removing an unknown entry is a no-op.
func (t *Ticker) Remove(id EntryID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[id]; !ok {
		return
	}
	delete(t.entries, id)
	for i, other := range t.order {
		if other == id {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered entries.
func (t *Ticker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Tick fires every entry that is due at now, in the order in which they
// were added.
func (t *Ticker) Tick(now time.Time) {
	var due []func(time.Time)

	t.mu.Lock()
	minute := now.Truncate(time.Minute)
	for _, id := range t.order {
		e := t.entries[id]
		switch {
		case e.date != nil:
			if !e.date.Match(now) || e.lastMinute.Equal(minute) {
				continue
			}
			e.lastMinute = minute
		default:
			if e.next.IsZero() || now.Before(e.next) {
				continue
			}
			e.next = e.sched.Next(now)
		}
		due = append(due, e.fn)
	}
	t.mu.Unlock()

	for _, fn := range due {
		fn(now)
	}
}

// Start runs the tick loop on its own goroutine until ctx is canceled.
func (t *Ticker) Start(ctx context.Context) {
	t.wg.Add(1)
	go t.loop(ctx)
}

// Wait blocks until a started tick loop has exited.
func (t *Ticker) Wait() { t.wg.Wait() }

func (t *Ticker) loop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.Tick(now)
		}
	}
}
