package watcher

import (
	"fmt"
	"sync"
)

var OriginalWatch = Watch

var (
	mocks    map[string]chan EventInfo
	mockOpts map[string]Options
	mocksmu  sync.Mutex
)

// Mock replaces Watch with a fake that reports only what Dispatch sends.
// Options are ignored: every dispatched event is reported.
func Mock() {
	mocksmu.Lock()
	defer mocksmu.Unlock()

	mocks = map[string]chan EventInfo{}
	mockOpts = map[string]Options{}
	Watch = func(inputPath string, opts Options) (<-chan EventInfo, func(), error) {
		if _, err := ParseAction(opts.Action); err != nil {
			return nil, nil, err
		}

		mocksmu.Lock()
		defer mocksmu.Unlock()

		mock := make(chan EventInfo)
		mocks[inputPath] = mock
		mockOpts[inputPath] = opts
		var once sync.Once
		stop := func() {
			once.Do(func() {
				mocksmu.Lock()
				defer mocksmu.Unlock()
				if mocks[inputPath] == mock {
					delete(mocks, inputPath)
				}
				close(mock)
			})
		}
		return mock, stop, nil
	}
}

// Dispatch sends a write event on a watched path and blocks until the
// watcher has received it.
func Dispatch(path string) {
	mocksmu.Lock()
	mock, hasMock := mocks[path]
	mocksmu.Unlock()
	if !hasMock {
		panic(fmt.Errorf("can't dispatch on unwatched path '%s'", path))
	}
	mock <- EventInfo{Path: path, Event: "write"}
}

// IsWatched reports whether a mocked watch is active on path.
func IsWatched(path string) bool {
	mocksmu.Lock()
	defer mocksmu.Unlock()
	_, ok := mocks[path]
	return ok
}

// WatchedWith returns the options of the active mocked watch on path.
func WatchedWith(path string) (Options, bool) {
	mocksmu.Lock()
	defer mocksmu.Unlock()
	if _, ok := mocks[path]; !ok {
		return Options{}, false
	}
	return mockOpts[path], true
}

func Unmock() {
	mocksmu.Lock()
	defer mocksmu.Unlock()

	mocks = nil
	mockOpts = nil
	Watch = OriginalWatch
}
