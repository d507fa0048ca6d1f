package eventlog

import "sync"

var OriginalSubscribe = Subscribe

var (
	mocks   map[int]mockSubscription
	mockID  int
	mocksmu sync.Mutex
)

type mockSubscription struct {
	channel, query string
	fn             func(string)
}

// Mock replaces Subscribe with a fake that delivers what Emit sends.
func Mock() {
	mocksmu.Lock()
	defer mocksmu.Unlock()

	mocks = map[int]mockSubscription{}
	Subscribe = func(channel, query string, fn func(string)) (Subscription, error) {
		mocksmu.Lock()
		defer mocksmu.Unlock()

		mockID++
		id := mockID
		mocks[id] = mockSubscription{channel, query, fn}
		return closer(func() error {
			mocksmu.Lock()
			defer mocksmu.Unlock()
			delete(mocks, id)
			return nil
		}), nil
	}
}

// Emit delivers xml synchronously to every subscription on channel,
// ignoring queries, and returns how many received it.
func Emit(channel, xml string) int {
	mocksmu.Lock()
	var fns []func(string)
	for _, s := range mocks {
		if s.channel == channel {
			fns = append(fns, s.fn)
		}
	}
	mocksmu.Unlock()

	for _, fn := range fns {
		fn(xml)
	}
	return len(fns)
}

func Unmock() {
	mocksmu.Lock()
	defer mocksmu.Unlock()

	mocks = nil
	Subscribe = OriginalSubscribe
}
