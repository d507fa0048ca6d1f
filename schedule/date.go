package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// wildcard marks a Pattern field that matches any value.
const wildcard = -1

// A Pattern is an absolute date pattern, "YYYY.MM.DD HH:MM", in which any
// field may be "*". It is matched against local time at minute granularity.
type Pattern struct {
	Year, Month, Day, Hour, Minute int

	src string
}

// ParseDate parses a date pattern such as "*.*.01 12:30".
func ParseDate(s string) (Pattern, error) {
	src := strings.TrimSpace(s)
	date, clock, ok := strings.Cut(src, " ")
	if !ok {
		return Pattern{}, fmt.Errorf("bad date pattern %q: want \"YYYY.MM.DD HH:MM\"", s)
	}
	ds := strings.Split(date, ".")
	cs := strings.Split(strings.TrimSpace(clock), ":")
	if len(ds) != 3 || len(cs) != 2 {
		return Pattern{}, fmt.Errorf("bad date pattern %q: want \"YYYY.MM.DD HH:MM\"", s)
	}

	p := Pattern{src: src}
	for _, f := range []struct {
		dst      *int
		s        string
		min, max int
	}{
		{&p.Year, ds[0], 1, 9999},
		{&p.Month, ds[1], 1, 12},
		{&p.Day, ds[2], 1, 31},
		{&p.Hour, cs[0], 0, 23},
		{&p.Minute, cs[1], 0, 59},
	} {
		if f.s == "*" {
			*f.dst = wildcard
			continue
		}
		n, err := strconv.Atoi(f.s)
		if err != nil || n < f.min || n > f.max {
			return Pattern{}, fmt.Errorf("bad date pattern %q: field %q", s, f.s)
		}
		*f.dst = n
	}
	return p, nil
}

// Match reports whether t, in local time, falls within the pattern.
func (p Pattern) Match(t time.Time) bool {
	t = t.Local()
	return matches(p.Year, t.Year()) &&
		matches(p.Month, int(t.Month())) &&
		matches(p.Day, t.Day()) &&
		matches(p.Hour, t.Hour()) &&
		matches(p.Minute, t.Minute())
}

func (p Pattern) String() string { return p.src }

func matches(field, v int) bool {
	return field == wildcard || field == v
}
