package seq_test

import (
	"testing"

	"github.com/amonks/taskopy/internal/seq"
	"github.com/stretchr/testify/assert"
)

func TestContainsSequence(t *testing.T) {
	log := []string{
		"ping run by scheduler",
		"ping: hello",
		"backup run by hotkey",
		"ping done",
		"backup failed",
	}
	for _, tc := range []struct {
		name  string
		lines []string
		seq   []string
		ok    bool
	}{
		{"in order with gaps", log, []string{"ping run by scheduler", "ping done"}, true},
		{"interleaved tasks", log, []string{"ping run by scheduler", "backup run by hotkey", "backup failed"}, true},
		{"out of order", log, []string{"ping done", "ping run by scheduler"}, false},
		{"missing", log, []string{"ping run by scheduler", "ping failed"}, false},
		{"repeated before its turn", []string{"ping run", "ping run", "ping done"}, []string{"ping run", "ping done"}, false},
		{"repeated after the end", []string{"ping run", "ping done", "ping run"}, []string{"ping run", "ping done"}, false},
		{"repeated on purpose", []string{"ping run", "ping run", "ping done"}, []string{"ping run", "ping run", "ping done"}, true},
		{"empty sequence", log, nil, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := seq.ContainsSequence(tc.lines, tc.seq...)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestStringContainsSequence(t *testing.T) {
	seq.AssertStringContainsSequence(t, "ping run\nping: hello\nping done\n", "ping run", "ping done")
}

func TestCount(t *testing.T) {
	lines := []string{"[a] start", "[b] start", "[a] start"}
	assert.Equal(t, 2, seq.Count(lines, "[a] start"))
	assert.Equal(t, 0, seq.Count(lines, "[c] start"))
}

func TestMismatchMessage(t *testing.T) {
	err := seq.ContainsSequence([]string{"a", "b"}, "b", "a")
	assert.ErrorContains(t, err, "Found sequenced item outside of the sequence.")
	assert.ErrorContains(t, err, "Sequence:\nb\na")
}
