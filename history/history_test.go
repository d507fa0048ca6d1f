package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecord(t *testing.T) {
	var (
		s     = newTestStore(t)
		ctx   = context.Background()
		start = time.Date(2024, time.March, 4, 10, 30, 0, 0, time.UTC)
	)

	ok, failed := NewID(), NewID()
	require.NoError(t, s.RecordStart(ctx, ok, "backup", "scheduler", start))
	require.NoError(t, s.RecordStart(ctx, failed, "backup", "hotkey", start.Add(time.Minute)))
	require.NoError(t, s.RecordStart(ctx, NewID(), "ping", "http", start.Add(2*time.Minute)))

	require.NoError(t, s.RecordFinish(ctx, ok, start.Add(3*time.Second), "done", nil))
	require.NoError(t, s.RecordFinish(ctx, failed, start.Add(time.Minute+time.Second), "", errors.New("exit 1")))

	t.Run("list by task, newest first", func(t *testing.T) {
		runs, err := s.List(ctx, Query{TaskID: "backup"})
		require.NoError(t, err)
		require.Len(t, runs, 2)

		assert.Equal(t, failed, runs[0].ID)
		assert.Equal(t, Failed, runs[0].Outcome)
		assert.Equal(t, "exit 1", runs[0].Error)
		assert.Equal(t, "hotkey", runs[0].Caller)

		assert.Equal(t, ok, runs[1].ID)
		assert.Equal(t, OK, runs[1].Outcome)
		assert.Equal(t, "done", runs[1].Result)
		assert.True(t, start.Equal(runs[1].StartedAt))
		assert.Equal(t, 3*time.Second, runs[1].Duration())
	})

	t.Run("list all with limit", func(t *testing.T) {
		runs, err := s.List(ctx, Query{Limit: 1})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "ping", runs[0].TaskID)
		assert.Equal(t, Running, runs[0].Outcome)
		assert.True(t, runs[0].EndedAt.IsZero())
		assert.Equal(t, time.Duration(0), runs[0].Duration())
	})

	t.Run("finish unknown run", func(t *testing.T) {
		err := s.RecordFinish(ctx, "nope", start, "", nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("prune keeps running runs", func(t *testing.T) {
		n, err := s.Prune(ctx, start.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		runs, err := s.List(ctx, Query{})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "ping", runs[0].TaskID)
	})
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordStart(context.Background(), NewID(), "a", "cli", time.Now()))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.List(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
