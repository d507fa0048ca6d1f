// Package eventlog subscribes to OS event-log channels.
package eventlog

import "errors"

// ErrUnsupported is returned by Subscribe on platforms without an event log.
var ErrUnsupported = errors.New("event log subscriptions are not supported on this platform")

// A Subscription delivers events until it is closed.
type Subscription interface {
	// Close stops the subscription. When it returns, the callback will
	// not be invoked again. Errors releasing OS handles are swallowed.
	Close() error
}

// Subscribe delivers every future event on channel that matches query (an
// XPath filter; empty means every event) to fn, rendered as XML. fn is
// called on the subscription's own goroutine, one event at a time.
var Subscribe = subscribe

type closer func() error

func (c closer) Close() error { return c() }
