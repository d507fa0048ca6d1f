package color

import "github.com/charmbracelet/lipgloss"

// Solarized accents and base tones.
// https://ethanschoonover.com/solarized/#the-values
var (
	Red    = lipgloss.Color("#DC322F")
	Yellow = lipgloss.Color("#B58900")
	Green  = lipgloss.Color("#859900")

	Text  = lipgloss.AdaptiveColor{Dark: "#FDF6E3", Light: "#002B36"} // base3
	Dim   = lipgloss.AdaptiveColor{Dark: "#93A1A1", Light: "#586E75"} // base1
	Faint = lipgloss.AdaptiveColor{Dark: "#586E75", Light: "#93A1A1"} // base01
)

// Outcome is the color of a finished run's outcome: green for "ok", red for
// "error", yellow for anything else (canceled, unknown).
func Outcome(outcome string) lipgloss.TerminalColor {
	switch outcome {
	case "ok":
		return Green
	case "error":
		return Red
	}
	return Yellow
}
