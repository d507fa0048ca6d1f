package taskfile

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/amonks/taskopy/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTOML(t *testing.T) {
	tf, err := Load("testdata/basic")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "basic", "tasks.toml"), tf.Path)
	assert.Len(t, tf.Tasks, 7)
	assert.Equal(t, StringList{`every().day.at("10:30")`}, tf.find("backup_files").Schedule)
	assert.Equal(t, StringList{"every(5).minutes", "@hourly"}, tf.find("Ping_Router").Schedule)
	assert.Equal(t, Duration("90"), tf.find("idle_secs").Idle)
}

func TestToLibrary(t *testing.T) {
	tf, err := Load("testdata/basic/tasks.toml")
	require.NoError(t, err)

	lib, warnings := tf.ToLibrary()

	t.Run("inactive and broken tasks are left out", func(t *testing.T) {
		assert.Equal(t, []string{"backup_files", "Ping_Router", "watcher", "idle_secs"}, lib.IDs())
	})

	t.Run("warnings name the task", func(t *testing.T) {
		require.Len(t, warnings, 2)
		assert.EqualError(t, warnings[0], `Bad idle: idle: bad duration "soon"`)
		assert.EqualError(t, warnings[1], `Backup files: duplicate task id "backup_files"`)

		var w tasks.Warning
		assert.True(t, errors.As(warnings[0], &w))
		assert.Equal(t, "bad_idle", w.TaskID)
	})

	t.Run("first duplicate wins", func(t *testing.T) {
		assert.Equal(t, `"echo backing up"`, lib.Task("backup_files").Config().Description)
	})

	t.Run("defaults", func(t *testing.T) {
		cfg := lib.Task("backup_files").Config()
		assert.True(t, cfg.Menu)
		assert.True(t, cfg.Log)
		assert.True(t, cfg.Single)
		assert.Equal(t, 2, cfg.ErrThreshold)
		assert.Equal(t, "Backup files", cfg.DisplayName())

		cfg = lib.Task("idle_secs").Config()
		assert.Equal(t, -1, cfg.ErrThreshold)
		assert.False(t, cfg.Log)
		assert.Equal(t, 90*time.Second, cfg.Idle)
	})

	t.Run("http", func(t *testing.T) {
		cfg := lib.Task("Ping_Router").Config()
		assert.True(t, cfg.HTTP)
		assert.True(t, cfg.Result)
		assert.Equal(t, []string{"127.0.0.1", "10.0.0.0/8"}, cfg.HTTPWhiteList)
		assert.Equal(t, "Ping", cfg.DisplayName())
		assert.Equal(t, "Network", cfg.Submenu)
		assert.Equal(t, "Ping_Router", lib.HTTPTask("Ping_Router").Config().ID)
	})

	t.Run("paths are relative to the taskfile", func(t *testing.T) {
		cfg := lib.Task("watcher").Config()
		assert.Equal(t, filepath.Join("testdata", "basic", "notes.txt"), cfg.FileChange)
		assert.Equal(t, 5*time.Minute, cfg.Idle)
		assert.False(t, cfg.Menu)
	})
}

func TestLoadYAML(t *testing.T) {
	tf, err := Load("testdata/yaml")
	require.NoError(t, err)

	lib, warnings := tf.ToLibrary()
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"greet", "listen"}, lib.IDs())

	greet := lib.Task("greet").Config()
	assert.Equal(t, []string{"*.*.01 12:30"}, greet.Date)
	assert.Equal(t, "ctrl+alt+g", greet.Hotkey)
	assert.True(t, greet.HotkeySuppress)

	listen := lib.Task("listen").Config()
	assert.Equal(t, "jobs.done", listen.Subscribe)
	assert.Equal(t, "System", listen.EventLog)
	assert.Equal(t, "*[System[Level=2]]", listen.EventQuery)
	assert.Equal(t, 30*time.Second, listen.Idle)
	assert.True(t, listen.Hyperactive)
}

func TestLoadErrors(t *testing.T) {
	t.Run("syntax error fails the whole load", func(t *testing.T) {
		_, err := Load("testdata/broken")
		assert.ErrorContains(t, err, "tasks.toml")
	})

	t.Run("no taskfile", func(t *testing.T) {
		_, err := Load("testdata/empty")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown keys", func(t *testing.T) {
		_, err := Parse(".toml", []byte("[[task]]\nid = \"a\"\nschedul = \"@hourly\"\n"))
		assert.ErrorContains(t, err, "unknown keys: task.schedul")
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := Parse(".toml", []byte("[[task]]\nid = \"a\"\nschedule = 3\n"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tf, err := Parse(".toml", []byte(`
[[task]]
  cmd = "echo no id"

[[task]]
  id = "has space"
`))
	require.NoError(t, err)

	err = tf.Validate()
	assert.ErrorContains(t, err, "(unnamed task): task has no id")
	assert.ErrorContains(t, err, `task id "has space" contains whitespace`)
}

func TestInactiveEntries(t *testing.T) {
	tf, err := Parse(".toml", []byte(`
[[task]]
  id = "backup"
  active = false
  idle = "later"
  cmd = "echo old"

[[task]]
  id = "backup"
  cmd = "echo new"

[[task]]
  id = "has space"
  active = false
`))
	require.NoError(t, err)

	lib, warnings := tf.ToLibrary()
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"backup"}, lib.IDs())
	assert.NoError(t, tf.Validate())
}

func TestDuration(t *testing.T) {
	for _, tc := range []struct {
		in     Duration
		expect time.Duration
		err    bool
	}{
		{in: "5m", expect: 5 * time.Minute},
		{in: "1h30m", expect: 90 * time.Minute},
		{in: "45", expect: 45 * time.Second},
		{in: "0.5", expect: 500 * time.Millisecond},
		{in: "0", err: true},
		{in: "-5m", err: true},
		{in: "later", err: true},
	} {
		t.Run(string(tc.in), func(t *testing.T) {
			d, err := tc.in.Parse()
			if tc.err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expect, d)
		})
	}
}

func TestStringListSplit(t *testing.T) {
	l := StringList{"a, b", "c", " , "}
	assert.Equal(t, []string{"a", "b", "c"}, l.Split(","))
}
