package hotkey

import (
	"fmt"
	"sync"
)

var OriginalRegister = Register

var (
	mocks   map[int]*mockBinding
	mockID  int
	mocksmu sync.Mutex
)

type mockBinding struct {
	combo    Combo
	suppress bool
	fn       func()
}

// A Registration describes one mocked binding.
type Registration struct {
	Combo    string
	Suppress bool
}

// Mock replaces Register with a fake that works on every platform. Like the
// real thing, it refuses a second exclusive registration of a combo.
func Mock() {
	mocksmu.Lock()
	defer mocksmu.Unlock()

	mocks = map[int]*mockBinding{}
	Register = func(c Combo, suppress bool, fn func()) (Binding, error) {
		mocksmu.Lock()
		defer mocksmu.Unlock()

		if suppress {
			for _, b := range mocks {
				if b.suppress && b.combo == c {
					return nil, fmt.Errorf("registering %s: %w", c, ErrConflict)
				}
			}
		}
		mockID++
		id := mockID
		mocks[id] = &mockBinding{c, suppress, fn}
		return closer(func() error {
			mocksmu.Lock()
			defer mocksmu.Unlock()
			delete(mocks, id)
			return nil
		}), nil
	}
}

// Press simulates one physical press of combo. Matching callbacks are called
// synchronously. It returns how many were called.
func Press(combo string) int {
	c, err := Parse(combo)
	if err != nil {
		panic(err)
	}

	mocksmu.Lock()
	var fns []func()
	for _, b := range mocks {
		if b.combo == c {
			fns = append(fns, b.fn)
		}
	}
	mocksmu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// Registered lists the active mocked bindings.
func Registered() []Registration {
	mocksmu.Lock()
	defer mocksmu.Unlock()

	var rs []Registration
	for _, b := range mocks {
		rs = append(rs, Registration{b.combo.String(), b.suppress})
	}
	return rs
}

func Unmock() {
	mocksmu.Lock()
	defer mocksmu.Unlock()

	mocks = nil
	Register = OriginalRegister
}
