//go:build !windows

package hotkey

func register(Combo, bool, func()) (Binding, error) {
	return nil, ErrUnsupported
}
