// Package sysinfo reads the idle time and uptime of the machine.
package sysinfo

import "errors"

// ErrUnsupported is returned on platforms where a value can't be read.
var ErrUnsupported = errors.New("not supported on this platform")
