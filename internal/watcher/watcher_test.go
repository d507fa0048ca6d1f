package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Run("plain file", func(t *testing.T) {
		dir, match, err := split("/home/me/notes.txt")
		require.NoError(t, err)
		assert.Equal(t, "/home/me", dir)
		assert.True(t, match("/home/me/notes.txt"))
		assert.False(t, match("/home/me/other.txt"))
	})

	t.Run("glob", func(t *testing.T) {
		dir, match, err := split("/src/website/**/*.js")
		require.NoError(t, err)
		assert.Equal(t, "/src/website/...", dir)
		assert.True(t, match("/src/website/js/app.js"))
		assert.False(t, match("/src/website/css/app.css"))
	})

	t.Run("bad glob", func(t *testing.T) {
		_, _, err := split("/src/[")
		assert.Error(t, err)
	})
}

func TestParseAction(t *testing.T) {
	for _, a := range []string{"", "write", "Modified", "create", "remove", "rename", "any"} {
		_, err := ParseAction(a)
		assert.NoError(t, err, a)
	}
	_, err := ParseAction("explode")
	assert.EqualError(t, err, `unknown file change action "explode"`)
}

func TestDebounce(t *testing.T) {
	t.Run("settle folds bursts", func(t *testing.T) {
		in := make(chan EventInfo)
		out := debounce(Options{Settle: 50 * time.Millisecond}, in)

		in <- EventInfo{Path: "a"}
		in <- EventInfo{Path: "b"}
		in <- EventInfo{Path: "c"}

		assert.Equal(t, EventInfo{Path: "c"}, <-out)
		close(in)
		_, ok := <-out
		assert.False(t, ok)
	})

	t.Run("min interval drops", func(t *testing.T) {
		in := make(chan EventInfo)
		out := debounce(Options{MinInterval: time.Hour}, in)

		in <- EventInfo{Path: "a"}
		assert.Equal(t, EventInfo{Path: "a"}, <-out)

		in <- EventInfo{Path: "b"}
		in <- EventInfo{Path: "c"}
		close(in)
		_, ok := <-out
		assert.False(t, ok)
	})

	t.Run("events after the interval pass", func(t *testing.T) {
		in := make(chan EventInfo)
		out := debounce(Options{MinInterval: 20 * time.Millisecond}, in)

		in <- EventInfo{Path: "a"}
		<-out
		time.Sleep(30 * time.Millisecond)
		in <- EventInfo{Path: "b"}
		assert.Equal(t, EventInfo{Path: "b"}, <-out)
		close(in)
	})
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(p, []byte("one"), 0o644))

	evs, stop, err := Watch(p, Options{Action: "write", Settle: 10 * time.Millisecond})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(p, []byte("two"), 0o644))

	select {
	case ev := <-evs:
		assert.Equal(t, "notes.txt", filepath.Base(ev.Path))
		assert.Equal(t, "write", ev.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
	}
}

func TestMock(t *testing.T) {
	Mock()
	defer Unmock()

	evs, stop, err := Watch("notes.txt", Options{})
	require.NoError(t, err)
	assert.True(t, IsWatched("notes.txt"))

	go Dispatch("notes.txt")
	assert.Equal(t, EventInfo{Path: "notes.txt", Event: "write"}, <-evs)

	stop()
	assert.False(t, IsWatched("notes.txt"))
	_, ok := <-evs
	assert.False(t, ok)

	_, _, err = Watch("notes.txt", Options{Action: "nope"})
	assert.Error(t, err)
}
