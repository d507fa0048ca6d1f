//go:build linux

package sysinfo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseProcUptime(t *testing.T) {
	d, err := parseProcUptime("12.5 3.25\n")
	assert.NoError(t, err)
	assert.Equal(t, 12500*time.Millisecond, d)

	_, err = parseProcUptime("")
	assert.Error(t, err)
	_, err = parseProcUptime("soon 1")
	assert.Error(t, err)
}

func TestUptime(t *testing.T) {
	d, err := Uptime()
	assert.NoError(t, err)
	assert.Greater(t, d, time.Duration(0))

	_, err = IdleTime()
	assert.ErrorIs(t, err, ErrUnsupported)
}
