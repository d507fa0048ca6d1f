//go:build !windows

package eventlog_test

import (
	"testing"

	"github.com/amonks/taskopy/eventlog"
	"github.com/stretchr/testify/assert"
)

func TestUnsupported(t *testing.T) {
	_, err := eventlog.Subscribe("System", "", func(string) {})
	assert.ErrorIs(t, err, eventlog.ErrUnsupported)
}
