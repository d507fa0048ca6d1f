// Package mutex provides a named mutex whose lock traffic can be traced.
//
// When TASKOPY_MUTEX_DEBUG is set, every Lock and Unlock logs a debug record
// through slog's default logger, carrying the mutex's name and the call site
// that took it. cmd/lockfinder reads those records back to find deadlocks.
package mutex

import (
	"log/slog"
	"os"
	"sync"
)

var debug = os.Getenv("TASKOPY_MUTEX_DEBUG") != ""

// Mutex wraps sync.Mutex so it can be locked and released in one line:
//
//	defer mu.Lock("Reload").Unlock()
type Mutex struct {
	name string
	mu   sync.Mutex

	// site is whoever holds mu; only written while mu is held.
	site string
}

func New(name string) *Mutex {
	mu := &Mutex{name: name}
	mu.trace("created", "")
	return mu
}

// Lock takes the mutex on behalf of site and returns it, for chaining into
// Unlock.
func (mu *Mutex) Lock(site string) *Mutex {
	mu.trace("seeks lock", site)
	mu.mu.Lock()
	mu.site = site
	mu.trace("receives lock", site)
	return mu
}

func (mu *Mutex) Unlock() {
	site := mu.site
	mu.site = ""
	mu.trace("releases lock", site)
	mu.mu.Unlock()
}

func (mu *Mutex) trace(msg, site string) {
	if !debug {
		return
	}
	slog.Debug(msg, "mutex", mu.name, "site", site)
}
