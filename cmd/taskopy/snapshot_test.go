package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amonks/taskopy/taskfile"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/require"
)

// TestSnapshots runs taskopy against each directory in testdata/snapshots.
// A snapshot holds a taskfile, the arguments to pass (one per line), the
// expected stdout and, optionally, text the returned error must contain.
func TestSnapshots(t *testing.T) {
	dirs, err := os.ReadDir(filepath.Join("testdata", "snapshots"))
	require.NoError(t, err)

	for _, d := range dirs {
		name := d.Name()
		t.Run(name, func(t *testing.T) {
			testSnapshot(t, filepath.Join("testdata", "snapshots", name))
		})
	}
}

func testSnapshot(t *testing.T, dir string) {
	path, err := taskfile.Find(dir)
	require.NoError(t, err)

	args := strings.Split(strings.TrimSpace(read(t, dir, "args")), "\n")
	args = append(args, "--config", filepath.Join(t.TempDir(), "taskopy.toml"), "--taskfile", path)

	stdout, _, err := execute(args...)

	if want := read(t, dir, "error"); want != "" {
		require.Error(t, err)
		require.Contains(t, err.Error(), strings.TrimSpace(want))
	} else {
		require.NoError(t, err)
	}

	if want := read(t, dir, "stdout"); stdout != want {
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(want, stdout, false)
		t.Errorf("stdout differs from %s:\n%s", filepath.Join(dir, "stdout"), dmp.DiffPrettyText(diffs))
	}
}

// read returns the contents of dir/name, or "" if there is no such file.
func read(t *testing.T, dir, name string) string {
	t.Helper()
	bs, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return ""
	}
	require.NoError(t, err)
	return string(bs)
}
