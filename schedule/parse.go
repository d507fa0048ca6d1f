// Package schedule parses schedule expressions and date patterns, and runs
// the tick loop that fires them.
//
// Three schedule syntaxes are accepted:
//
//	every().day.at("10:30")      chained form
//	every(5).minutes
//	every().monday.at("08:00")
//	every().hour.at(":15")
//	30 10 * * 1-5                cron, with an optional leading seconds field
//	@hourly, @every 90s          descriptors
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Parse parses a schedule expression.
func Parse(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("empty schedule")
	}
	if strings.HasPrefix(expr, "every(") {
		spec, err := Translate(expr)
		if err != nil {
			return nil, err
		}
		expr = spec
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("bad schedule %q: %w", expr, err)
	}
	return sched, nil
}

var (
	everyRE = regexp.MustCompile(`^every\(\s*(\d*)\s*\)\.([a-z]+)(?:\.at\(\s*["']([0-9:]*)["']\s*\))?$`)

	weekdays = map[string]int{
		"sunday": 0, "monday": 1, "tuesday": 2, "wednesday": 3,
		"thursday": 4, "friday": 5, "saturday": 6,
	}
)

// Translate rewrites a chained expression as a cron spec that Parse
// understands.
//
// Interval units without an at() run every n units, counted from the time
// the schedule is bound. Weekday units without an at() run at midnight.
func Translate(expr string) (string, error) {
	m := everyRE.FindStringSubmatch(strings.ReplaceAll(expr, " ", ""))
	if m == nil {
		return "", fmt.Errorf("bad schedule %q", expr)
	}

	n := 1
	if m[1] != "" {
		var err error
		if n, err = strconv.Atoi(m[1]); err != nil || n < 1 {
			return "", fmt.Errorf("bad interval in %q", expr)
		}
	}
	unit, at := m[2], m[3]
	hasAt := strings.Contains(m[0], ".at(")

	// Plural units read naturally only with an interval and vice versa,
	// but both spellings are accepted.
	singular := strings.TrimSuffix(unit, "s")

	if dow, isWeekday := weekdays[singular]; isWeekday {
		if n != 1 {
			return "", fmt.Errorf("%q: weekday schedules can't have an interval", expr)
		}
		h, min, sec := 0, 0, 0
		if hasAt {
			var err error
			if h, min, sec, err = parseClock(at); err != nil {
				return "", fmt.Errorf("%q: %w", expr, err)
			}
		}
		return fmt.Sprintf("%d %d %d * * %d", sec, min, h, dow), nil
	}

	switch singular {
	case "second":
		if hasAt {
			return "", fmt.Errorf("%q: at() is not allowed with seconds", expr)
		}
		return fmt.Sprintf("@every %ds", n), nil

	case "minute":
		if !hasAt {
			return fmt.Sprintf("@every %dm", n), nil
		}
		sec, err := parseSecond(at)
		if err != nil || n != 1 {
			return "", fmt.Errorf("%q: minutely at() takes \":SS\" and no interval", expr)
		}
		return fmt.Sprintf("%d * * * * *", sec), nil

	case "hour":
		if !hasAt {
			return fmt.Sprintf("@every %dh", n), nil
		}
		min, sec, err := parseMinute(at)
		if err != nil || n != 1 {
			return "", fmt.Errorf("%q: hourly at() takes \":MM\" and no interval", expr)
		}
		return fmt.Sprintf("%d %d * * * *", sec, min), nil

	case "day":
		if !hasAt {
			return fmt.Sprintf("@every %dh", 24*n), nil
		}
		if n != 1 {
			return "", fmt.Errorf("%q: at() is only supported for every().day", expr)
		}
		h, min, sec, err := parseClock(at)
		if err != nil {
			return "", fmt.Errorf("%q: %w", expr, err)
		}
		return fmt.Sprintf("%d %d %d * * *", sec, min, h), nil

	case "week":
		if hasAt {
			return "", fmt.Errorf("%q: use a weekday to run at a time", expr)
		}
		return fmt.Sprintf("@every %dh", 7*24*n), nil
	}

	return "", fmt.Errorf("%q: unknown unit %q", expr, unit)
}

// parseClock parses "HH:MM" or "HH:MM:SS".
func parseClock(s string) (h, m, sec int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, fmt.Errorf("bad time %q", s)
	}
	if h, err = field(parts[0], 23); err != nil {
		return 0, 0, 0, fmt.Errorf("bad time %q", s)
	}
	if m, err = field(parts[1], 59); err != nil {
		return 0, 0, 0, fmt.Errorf("bad time %q", s)
	}
	if len(parts) == 3 {
		if sec, err = field(parts[2], 59); err != nil {
			return 0, 0, 0, fmt.Errorf("bad time %q", s)
		}
	}
	return h, m, sec, nil
}

// parseMinute parses ":MM" or "MM:SS".
func parseMinute(s string) (m, sec int, err error) {
	if rest, ok := strings.CutPrefix(s, ":"); ok {
		m, err = field(rest, 59)
		return m, 0, err
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad time %q", s)
	}
	if m, err = field(parts[0], 59); err != nil {
		return 0, 0, err
	}
	sec, err = field(parts[1], 59)
	return m, sec, err
}

// parseSecond parses ":SS".
func parseSecond(s string) (int, error) {
	rest, ok := strings.CutPrefix(s, ":")
	if !ok {
		return 0, fmt.Errorf("bad time %q", s)
	}
	return field(rest, 59)
}

func field(s string, max int) (int, error) {
	if s == "" || len(s) > 2 {
		return 0, fmt.Errorf("bad field %q", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > max {
		return 0, fmt.Errorf("bad field %q", s)
	}
	return n, nil
}
