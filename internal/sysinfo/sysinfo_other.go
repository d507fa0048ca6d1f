//go:build !windows && !linux

package sysinfo

import "time"

func IdleTime() (time.Duration, error) { return 0, ErrUnsupported }

func Uptime() (time.Duration, error) { return 0, ErrUnsupported }
