//go:build linux

package sysinfo

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// IdleTime is unsupported: Linux has no session-independent notion of user
// input.
func IdleTime() (time.Duration, error) {
	return 0, ErrUnsupported
}

// Uptime reads /proc/uptime.
func Uptime() (time.Duration, error) {
	bs, err := os.ReadFile("/proc/uptime")
	if err != nil {
		return 0, err
	}
	return parseProcUptime(string(bs))
}

func parseProcUptime(s string) (time.Duration, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("bad /proc/uptime: %q", s)
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("bad /proc/uptime: %w", err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
