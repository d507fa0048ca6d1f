package watcher

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/rjeczalik/notify"
)

type EventInfo struct {
	Path  string
	Event string
}

// Options controls which notifications a watch reports, and how often.
type Options struct {
	// Action is one of "create", "write", "remove", "rename", or "any".
	// The empty string means "write".
	Action string

	// MinInterval drops notifications that arrive within this long of
	// the last reported one.
	MinInterval time.Duration

	// Settle is how long to wait after a notification before reporting
	// it, so that the writer is done and its data is visible. Further
	// notifications during the wait are folded into the reported one.
	Settle time.Duration
}

// DefaultOptions reports writes, at most once per second, after a short
// settle delay.
var DefaultOptions = Options{
	Action:      "write",
	MinInterval: time.Second,
	Settle:      100 * time.Millisecond,
}

var actions = map[string]notify.Event{
	"":         notify.Write,
	"write":    notify.Write,
	"modified": notify.Write,
	"create":   notify.Create,
	"remove":   notify.Remove,
	"rename":   notify.Rename,
	"any":      notify.All,
}

// ParseAction checks an action name.
func ParseAction(action string) (notify.Event, error) {
	ev, ok := actions[strings.ToLower(action)]
	if !ok {
		return 0, fmt.Errorf("unknown file change action %q", action)
	}
	return ev, nil
}

// Watch watches a single file, or every file matching a glob, and reports
// notifications on the returned channel until the returned stop function is
// called, at which point the channel is closed.
//
// A plain file is watched through its parent directory, so that the watch
// survives the file being replaced.
var Watch = func(inputPath string, opts Options) (<-chan EventInfo, func(), error) {
	mask, err := ParseAction(opts.Action)
	if err != nil {
		return nil, nil, err
	}

	inputPath, err = filepath.Abs(inputPath)
	if err != nil {
		return nil, nil, err
	}
	watchPath, match, err := split(inputPath)
	if err != nil {
		return nil, nil, err
	}

	c := make(chan notify.EventInfo, 16)
	if err := notify.Watch(watchPath, c, mask); err != nil {
		return nil, nil, fmt.Errorf("watching %s: %w", watchPath, err)
	}

	out := make(chan EventInfo)
	go func() {
		for ev := range c {
			if match(ev.Path()) {
				out <- EventInfo{
					Path:  ev.Path(),
					Event: strings.ToLower(strings.TrimPrefix(ev.Event().String(), "notify.")),
				}
			}
		}
		close(out)
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			notify.Stop(c)
			close(c)
		})
	}

	return debounce(opts, out), stop, nil
}

// debounce applies opts' minimum interval and settle delay. The returned
// channel is closed when c is.
func debounce(opts Options, c <-chan EventInfo) <-chan EventInfo {
	out := make(chan EventInfo)

	go func() {
		defer close(out)

		var last time.Time
		for ev := range c {
			if !last.IsZero() && time.Since(last) < opts.MinInterval {
				continue
			}

			timer := time.NewTimer(opts.Settle)
		settle:
			for {
				select {
				case next, ok := <-c:
					if !ok {
						timer.Stop()
						return
					}
					ev = next
				case <-timer.C:
					break settle
				}
			}

			last = time.Now()
			out <- ev
		}
	}()

	return out
}

// split breaks a given absolute input path (which may contain a glob) into
// two parts: a watch path and a matcher for the watch's events.
//
// For example, given the input "/src/website/**/*.js",
//   - we will set up a recursive watch at /src/website
//   - we will match events from that watch against the glob "/src/website/**/*.js"
//
// Given a plain file "/home/notes.txt", we watch "/home" and match events on
// files named "notes.txt".
func split(input string) (string, func(string) bool, error) {
	input = filepath.Clean(input)
	segments := strings.Split(filepath.ToSlash(input), "/")
	for i, seg := range segments {
		if strings.ContainsAny(seg, "*?[{") {
			g, err := glob.Compile(filepath.ToSlash(input))
			if err != nil {
				return "", nil, fmt.Errorf("bad glob %q: %w", input, err)
			}
			w := filepath.FromSlash(strings.Join(segments[:i], "/"))
			return filepath.Join(w, "..."), func(p string) bool { return g.Match(filepath.ToSlash(p)) }, nil
		}
	}
	base := filepath.Base(input)
	return filepath.Dir(input), func(p string) bool { return filepath.Base(p) == base }, nil
}
