package subscribe_test

import (
	"testing"

	"github.com/amonks/taskopy/subscribe"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	for _, tc := range []struct {
		pattern, subject string
		match            bool
	}{
		{"jobs.done", "jobs.done", true},
		{"jobs.done", "jobs.failed", false},
		{"jobs.*", "jobs.done", true},
		{"jobs.*", "jobs.done.now", false},
		{"jobs.>", "jobs.done.now", true},
		{"jobs.>", "jobs", false},
		{"*.done", "jobs.done", true},
		{"jobs", "jobs.done", false},
	} {
		t.Run(tc.pattern+" "+tc.subject, func(t *testing.T) {
			assert.Equal(t, tc.match, subscribe.Match(tc.pattern, tc.subject))
		})
	}
}

func TestLocal(t *testing.T) {
	var (
		broker = subscribe.NewLocal()
		got    []string
	)
	sub, err := broker.Subscribe("jobs.*", func(data []byte) { got = append(got, string(data)) })
	require.NoError(t, err)

	assert.Equal(t, 1, broker.Publish("jobs.done", []byte("a")))
	assert.Equal(t, 0, broker.Publish("other", []byte("b")))
	assert.Equal(t, []string{"a"}, got)

	require.NoError(t, sub.Close())
	assert.Equal(t, 0, broker.Publish("jobs.done", []byte("c")))

	_, err = broker.Subscribe("jobs..done", func([]byte) {})
	assert.ErrorIs(t, err, nats.ErrBadSubject)
}
