package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color palette using ANSI color codes for terminal compatibility.
// The monitor dashboard has its own true-color palette; these are for the
// plain output of one-shot commands, which often ends up in logs or pipes.

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// GradientColors are cycled by the spinner while it waits.
var GradientColors = []lipgloss.Color{ColorSecondary, ColorInfo, ColorSuccess, ColorInfo}

// Color modes accepted by output.color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ApplyColorMode sets the lipgloss color profile for the process and returns
// it. "auto" leaves detection to termenv, which honors NO_COLOR and
// CLICOLOR_FORCE and drops color when stdout is not a terminal.
func ApplyColorMode(mode string) termenv.Profile {
	var profile termenv.Profile
	switch mode {
	case ColorNever:
		profile = termenv.Ascii
	case ColorAlways:
		profile = termenv.TrueColor
	default:
		profile = termenv.EnvColorProfile()
	}
	lipgloss.SetColorProfile(profile)
	return profile
}

// Threshold returns the color for a percentage given warning and critical
// levels. Values below zero or NaN are muted.
func Threshold(percent float64, warning, critical int) lipgloss.Color {
	switch {
	case percent != percent || percent < 0:
		return ColorMuted
	case percent >= float64(critical):
		return ColorError
	case percent >= float64(warning):
		return ColorWarning
	default:
		return ColorSuccess
	}
}
