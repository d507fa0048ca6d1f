package taskfile

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StringList is a field that may be written as a single string or as a list
// of strings.
type StringList []string

func (l *StringList) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		*l = StringList{v}
	case []any:
		out := make(StringList, len(v))
		for i, el := range v {
			s, ok := el.(string)
			if !ok {
				return fmt.Errorf("expected a string, got %T", el)
			}
			out[i] = s
		}
		*l = out
	default:
		return fmt.Errorf("expected a string or a list of strings, got %T", v)
	}
	return nil
}

func (l *StringList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*l = StringList{n.Value}
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := n.Decode(&out); err != nil {
			return err
		}
		*l = out
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list of strings", n.Line)
}

// Split splits every element on sep and returns the trimmed, non-empty
// parts.
func (l StringList) Split(sep string) []string {
	var out []string
	for _, s := range l {
		for _, part := range strings.Split(s, sep) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Duration is a duration as written in the taskfile: a Go duration string
// such as "5m" or "1h30m", or a bare number of seconds. It is validated by
// Parse rather than while decoding, so that a bad value only affects its own
// task.
type Duration string

func (d *Duration) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		*d = Duration(v)
	case int64:
		*d = Duration(strconv.FormatInt(v, 10))
	case float64:
		*d = Duration(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return fmt.Errorf("expected a duration, got %T", v)
	}
	return nil
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a duration", n.Line)
	}
	*d = Duration(n.Value)
	return nil
}

// Parse returns the duration, which must be positive.
func (d Duration) Parse() (time.Duration, error) {
	s := strings.TrimSpace(string(d))
	var (
		dur time.Duration
		err error
	)
	if secs, perr := strconv.ParseFloat(s, 64); perr == nil {
		dur = time.Duration(secs * float64(time.Second))
	} else {
		dur, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("bad duration %q", s)
		}
	}
	if dur <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return dur, nil
}
