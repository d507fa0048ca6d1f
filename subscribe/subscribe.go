// Package subscribe runs tasks on messages published to a subject.
package subscribe

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// A Subscriber delivers the payload of every message on a subject to fn.
type Subscriber interface {
	Subscribe(subject string, fn func(data []byte)) (Subscription, error)
}

// A Subscription delivers messages until it is closed.
type Subscription interface {
	Close() error
}

// NATS is a Subscriber backed by a NATS connection. The connection is
// shared by every subscription and reconnects forever.
type NATS struct {
	nc     *nats.Conn
	logger *slog.Logger
}

var _ Subscriber = &NATS{}

// Connect dials the NATS server at url.
func Connect(url string, logger *slog.Logger) (*NATS, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.Name("taskopy"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATS{nc: nc, logger: logger}, nil
}

func (n *NATS) Subscribe(subject string, fn func([]byte)) (Subscription, error) {
	sub, err := n.nc.Subscribe(subject, func(msg *nats.Msg) {
		fn(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	return closer(sub.Unsubscribe), nil
}

// Close drains the connection, letting in-flight callbacks finish.
func (n *NATS) Close() error {
	return n.nc.Drain()
}

// Local is an in-process Subscriber. Messages are delivered synchronously
// by Publish. Subjects follow NATS rules: tokens are separated by ".", "*"
// matches one token, and a trailing ">" matches one or more.
type Local struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]localSub
}

type localSub struct {
	subject string
	fn      func([]byte)
}

var _ Subscriber = &Local{}

func NewLocal() *Local {
	return &Local{subs: map[int]localSub{}}
}

func (l *Local) Subscribe(subject string, fn func([]byte)) (Subscription, error) {
	if !validSubject(subject) {
		return nil, fmt.Errorf("subscribe to %s: %w", subject, nats.ErrBadSubject)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	l.subs[id] = localSub{subject, fn}
	return closer(func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
		return nil
	}), nil
}

// Publish delivers data to every matching subscription and returns how
// many received it.
func (l *Local) Publish(subject string, data []byte) int {
	l.mu.Lock()
	var fns []func([]byte)
	for _, s := range l.subs {
		if Match(s.subject, subject) {
			fns = append(fns, s.fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(data)
	}
	return len(fns)
}

// Match reports whether a published subject matches a subscription
// pattern.
func Match(pattern, subject string) bool {
	ps, ss := strings.Split(pattern, "."), strings.Split(subject, ".")
	for i, p := range ps {
		if p == ">" {
			return i == len(ps)-1 && len(ss) > i
		}
		if i >= len(ss) {
			return false
		}
		if p != "*" && p != ss[i] {
			return false
		}
	}
	return len(ps) == len(ss)
}

func validSubject(s string) bool {
	if s == "" {
		return false
	}
	for _, tok := range strings.Split(s, ".") {
		if tok == "" || strings.ContainsAny(tok, " \t\r\n") {
			return false
		}
	}
	return true
}

type closer func() error

func (c closer) Close() error { return c() }
