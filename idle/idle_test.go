package idle_test

import (
	"errors"
	"testing"
	"time"

	"github.com/amonks/taskopy/idle"
	"github.com/stretchr/testify/assert"
)

func TestInterval(t *testing.T) {
	w := idle.New()
	assert.Equal(t, time.Duration(0), w.Interval())

	w.Add("a", 5*time.Minute, func() {})
	w.Add("b", 2*time.Minute, func() {})
	assert.Equal(t, 2*time.Minute, w.Interval())

	w.Add("c", 10*time.Millisecond, func() {})
	assert.Equal(t, idle.MinInterval, w.Interval())
	assert.Equal(t, 3, w.Len())
}

func TestCheck(t *testing.T) {
	var (
		w      = idle.New()
		fired  []string
		origin = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.Local)
	)
	w.Add("short", time.Minute, func() { fired = append(fired, "short") })
	w.Add("long", 5*time.Minute, func() { fired = append(fired, "long") })

	// The user went idle at origin.
	check := func(after time.Duration) { w.Check(origin.Add(after), after) }

	check(30 * time.Second)
	assert.Empty(t, fired)

	check(time.Minute)
	assert.Equal(t, []string{"short"}, fired)

	t.Run("fires once per session", func(t *testing.T) {
		check(2 * time.Minute)
		check(5 * time.Minute)
		check(10 * time.Minute)
		assert.Equal(t, []string{"short", "long"}, fired)
	})

	t.Run("activity re-arms", func(t *testing.T) {
		fired = nil
		// Active at origin+11m, idle again since.
		w.Check(origin.Add(11*time.Minute+30*time.Second), 30*time.Second)
		assert.Empty(t, fired)
		w.Check(origin.Add(12*time.Minute), time.Minute)
		assert.Equal(t, []string{"short"}, fired)
	})

	t.Run("activity between checks re-arms", func(t *testing.T) {
		fired = nil
		// The user was active briefly at origin+15m, and the next check
		// happens to read a longer idle time than the last one did.
		w.Check(origin.Add(21*time.Minute), 6*time.Minute)
		assert.Equal(t, []string{"short", "long"}, fired)
	})
}

func TestResume(t *testing.T) {
	var (
		origin = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.Local)
		fired  []string
		add    = func(w *idle.Watcher, key string, threshold time.Duration) {
			w.Add(key, threshold, func() { fired = append(fired, key) })
		}
		prev = idle.New()
		next = idle.New()
	)
	add(prev, "lock", time.Minute)
	add(prev, "sleep", 10*time.Minute)
	prev.Check(origin.Add(2*time.Minute), 2*time.Minute)
	assert.Equal(t, []string{"lock"}, fired)

	add(next, "lock", time.Minute)
	add(next, "sleep", 10*time.Minute)
	add(next, "dim", time.Minute)
	next.Resume(prev)

	t.Run("same session", func(t *testing.T) {
		fired = nil
		next.Check(origin.Add(3*time.Minute), 3*time.Minute)
		assert.Equal(t, []string{"dim"}, fired)

		next.Check(origin.Add(10*time.Minute), 10*time.Minute)
		assert.Equal(t, []string{"dim", "sleep"}, fired)
	})

	t.Run("new session", func(t *testing.T) {
		fired = nil
		next.Check(origin.Add(20*time.Minute), 5*time.Minute)
		assert.Equal(t, []string{"lock", "dim"}, fired)
	})
}

func TestPoll(t *testing.T) {
	defer func(orig func() (time.Duration, error)) { idle.IdleTime = orig }(idle.IdleTime)

	var (
		w = idle.New()
		n int
	)
	w.Add("n", time.Minute, func() { n++ })

	idle.IdleTime = func() (time.Duration, error) { return 2 * time.Minute, nil }
	assert.NoError(t, w.Poll(time.Now()))
	assert.Equal(t, 1, n)

	idle.IdleTime = func() (time.Duration, error) { return 0, errors.New("nope") }
	assert.EqualError(t, w.Poll(time.Now()), "nope")
}
