// Package ansi removes terminal escape sequences from text.
package ansi

import (
	"strings"

	"github.com/muesli/reflow/ansi"
)

// Strip returns s without its escape sequences.
func Strip(s string) string {
	var (
		out    strings.Builder
		escape bool
	)
	for _, r := range s {
		switch {
		case r == ansi.Marker:
			escape = true
		case escape:
			if ansi.IsTerminator(r) {
				escape = false
			}
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}
