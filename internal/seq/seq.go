// Package seq asserts that log lines appear in a given order.
//
// A sequence matches when its items appear in order, and none of the items
// appears anywhere else: an item showing up before its turn, or again after
// the sequence is consumed, is a mismatch. Lines that are not sequence items
// are ignored.
package seq

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func AssertStringContainsSequence(t *testing.T, str string, seq ...string) {
	t.Helper()
	assert.NoError(t, StringContainsSequence(str, seq...))
}

func AssertContainsSequence(t *testing.T, lines []string, seq ...string) {
	t.Helper()
	assert.NoError(t, ContainsSequence(lines, seq...))
}

func StringContainsSequence(str string, seq ...string) error {
	return ContainsSequence(strings.Split(str, "\n"), seq...)
}

func ContainsSequence(lines []string, seq ...string) error {
	assertedLines := map[string]struct{}{}
	for _, l := range seq {
		assertedLines[l] = struct{}{}
	}

	lineIndex := 0
seqloop:
	for seqIndex, expect := range seq {
		for ; lineIndex < len(lines); lineIndex++ {
			line := lines[lineIndex]
			if line == expect {
				lineIndex++
				continue seqloop
			} else if _, isAsserted := assertedLines[line]; isAsserted {
				return mismatch(seq, lines,
					"Found sequenced item outside of the sequence.",
					fmt.Sprintf("Found: '%s'", line),
					fmt.Sprintf("Looking for sequence item %d: '%s'", seqIndex+1, expect))
			}
		}
		return mismatch(seq, lines,
			"Not found in sequence.",
			fmt.Sprintf("Item %d: '%s'", seqIndex+1, expect))
	}

	// The sequence is consumed; no item may recur.
	for ; lineIndex < len(lines); lineIndex++ {
		line := lines[lineIndex]
		if _, isAsserted := assertedLines[line]; isAsserted {
			return mismatch(seq, lines,
				"Found outside of sequence.",
				fmt.Sprintf("Found: '%s'", line),
				"Entire sequence already consumed.")
		}
	}
	return nil
}

// Count returns how many lines equal line.
func Count(lines []string, line string) int {
	n := 0
	for _, l := range lines {
		if l == line {
			n++
		}
	}
	return n
}

func mismatch(seq, lines []string, headline ...string) error {
	return fmt.Errorf("%s\n\nSequence:\n%s\n\nActual:\n%s",
		strings.Join(headline, "\n"),
		strings.Join(seq, "\n"),
		strings.Join(lines, "\n"))
}
