package schedule_test

import (
	"testing"
	"time"

	"github.com/amonks/taskopy/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, mo time.Month, d, h, mi, s int) time.Time {
	return time.Date(y, mo, d, h, mi, s, 0, time.Local)
}

func TestTranslate(t *testing.T) {
	for _, tc := range []struct {
		in, out string
	}{
		{`every().day.at("10:30")`, "0 30 10 * * *"},
		{`every().day.at('07:05:09')`, "9 5 7 * * *"},
		{`every(5).minutes`, "@every 5m"},
		{`every().minute.at(":17")`, "17 * * * * *"},
		{`every().hour`, "@every 1h"},
		{`every(3).hours`, "@every 3h"},
		{`every().hour.at(":15")`, "0 15 * * * *"},
		{`every(10).seconds`, "@every 10s"},
		{`every(2).days`, "@every 48h"},
		{`every().monday.at("08:00")`, "0 0 8 * * 1"},
		{`every().sunday`, "0 0 0 * * 0"},
		{`every().week`, "@every 168h"},
		{`every( 2 ).days`, "@every 48h"},
	} {
		t.Run(tc.in, func(t *testing.T) {
			out, err := schedule.Translate(tc.in)
			assert.NoError(t, err)
			assert.Equal(t, tc.out, out)
		})
	}
}

func TestTranslateErrors(t *testing.T) {
	for _, in := range []string{
		`every().fortnight`,
		`every(0).minutes`,
		`every().day.at("25:00")`,
		`every().day.at("10")`,
		`every(2).days.at("10:30")`,
		`every(2).mondays`,
		`every().seconds.at(":10")`,
		`every().hour.at("10:30:00")`,
		`every.day`,
	} {
		t.Run(in, func(t *testing.T) {
			_, err := schedule.Parse(in)
			assert.Error(t, err)
		})
	}
}

func TestParse(t *testing.T) {
	from := at(2024, time.March, 4, 10, 29, 30) // a monday

	for _, tc := range []struct {
		in   string
		next time.Time
	}{
		{`every().day.at("10:30")`, at(2024, time.March, 4, 10, 30, 0)},
		{`every().day.at("10:00")`, at(2024, time.March, 5, 10, 0, 0)},
		{`every().tuesday.at("08:00")`, at(2024, time.March, 5, 8, 0, 0)},
		{`every(5).minutes`, at(2024, time.March, 4, 10, 34, 30)},
		{"*/15 * * * *", at(2024, time.March, 4, 10, 30, 0)},
		{"@hourly", at(2024, time.March, 4, 11, 0, 0)},
		{"@every 90s", at(2024, time.March, 4, 10, 31, 0)},
	} {
		t.Run(tc.in, func(t *testing.T) {
			sched, err := schedule.Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.next, sched.Next(from))
		})
	}

	_, err := schedule.Parse("")
	assert.Error(t, err)
	_, err = schedule.Parse("61 * * * *")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	p, err := schedule.ParseDate("*.*.01 12:30")
	require.NoError(t, err)
	assert.Equal(t, "*.*.01 12:30", p.String())

	assert.True(t, p.Match(at(2024, time.January, 1, 12, 30, 0)))
	assert.True(t, p.Match(at(1999, time.July, 1, 12, 30, 59)))
	assert.False(t, p.Match(at(2024, time.January, 2, 12, 30, 0)))
	assert.False(t, p.Match(at(2024, time.January, 1, 12, 31, 0)))

	p, err = schedule.ParseDate("2025.12.25 *:00")
	require.NoError(t, err)
	assert.True(t, p.Match(at(2025, time.December, 25, 7, 0, 0)))
	assert.False(t, p.Match(at(2024, time.December, 25, 7, 0, 0)))

	for _, bad := range []string{"", "2024.01.01", "2024.13.01 10:00", "*.*.* 24:00", "*.*.* 10", "a.b.c d:e"} {
		_, err := schedule.ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestTicker(t *testing.T) {
	t.Run("daily schedule fires once at its time", func(t *testing.T) {
		var (
			now    = at(2024, time.March, 4, 10, 29, 0)
			ticker = schedule.NewTicker().WithClock(func() time.Time { return now })
			fired  []time.Time
		)
		_, err := ticker.AddFunc(`every().day.at("10:30")`, func(t time.Time) { fired = append(fired, t) })
		require.NoError(t, err)
		assert.Equal(t, 1, ticker.Len())

		ticker.Tick(at(2024, time.March, 4, 10, 29, 59))
		assert.Empty(t, fired)

		ticker.Tick(at(2024, time.March, 4, 10, 30, 0))
		ticker.Tick(at(2024, time.March, 4, 10, 30, 1))
		ticker.Tick(at(2024, time.March, 4, 10, 31, 0))
		assert.Equal(t, []time.Time{at(2024, time.March, 4, 10, 30, 0)}, fired)

		ticker.Tick(at(2024, time.March, 5, 10, 30, 0))
		assert.Len(t, fired, 2)
	})

	t.Run("late ticks fire once", func(t *testing.T) {
		var (
			now    = at(2024, time.March, 4, 10, 0, 0)
			ticker = schedule.NewTicker().WithClock(func() time.Time { return now })
			n      int
		)
		_, err := ticker.AddFunc("@every 1m", func(time.Time) { n++ })
		require.NoError(t, err)

		ticker.Tick(at(2024, time.March, 4, 10, 10, 0))
		assert.Equal(t, 1, n)
		ticker.Tick(at(2024, time.March, 4, 10, 10, 30))
		assert.Equal(t, 1, n)
		ticker.Tick(at(2024, time.March, 4, 10, 11, 0))
		assert.Equal(t, 2, n)
	})

	t.Run("date entries fire once per matching minute", func(t *testing.T) {
		var (
			ticker = schedule.NewTicker()
			n      int
		)
		p, err := schedule.ParseDate("*.*.01 12:30")
		require.NoError(t, err)
		ticker.AddDate(p, func(time.Time) { n++ })

		for s := 0; s < 60; s++ {
			ticker.Tick(at(2024, time.May, 1, 12, 30, s))
		}
		assert.Equal(t, 1, n)

		ticker.Tick(at(2024, time.May, 1, 12, 31, 0))
		assert.Equal(t, 1, n)

		ticker.Tick(at(2024, time.June, 1, 12, 30, 5))
		assert.Equal(t, 2, n)
	})

	t.Run("remove", func(t *testing.T) {
		var (
			now    = at(2024, time.March, 4, 10, 0, 0)
			ticker = schedule.NewTicker().WithClock(func() time.Time { return now })
			n      int
		)
		id := ticker.AddEvery(time.Second, func(time.Time) { n++ })
		ticker.Tick(now.Add(time.Second))
		ticker.Remove(id)
		ticker.Remove(id)
		ticker.Tick(now.Add(2 * time.Second))
		assert.Equal(t, 1, n)
		assert.Equal(t, 0, ticker.Len())
	})

	t.Run("callbacks may add entries", func(t *testing.T) {
		var (
			now    = at(2024, time.March, 4, 10, 0, 0)
			ticker = schedule.NewTicker().WithClock(func() time.Time { return now })
		)
		ticker.AddEvery(time.Second, func(time.Time) {
			ticker.AddEvery(time.Hour, func(time.Time) {})
		})
		ticker.Tick(now.Add(time.Second))
		assert.Equal(t, 2, ticker.Len())
	})
}
