//go:build !windows

package eventlog

func subscribe(string, string, func(string)) (Subscription, error) {
	return nil, ErrUnsupported
}
