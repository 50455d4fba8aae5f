package monitor

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/fleetwatch/internal/poll"
)

// Dashboard color palette
const (
	ColorDarkBg    = lipgloss.Color("#0A0A0F")
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent    = lipgloss.Color("#FF2E97")
	ColorAccentDim = lipgloss.Color("#BF40FF")

	ColorGraph    = lipgloss.Color("#00FFFF")
	ColorGraphMem = lipgloss.Color("#BF40FF")
)

// Thresholds sets the percentages at which a metric turns amber and red.
type Thresholds struct {
	Warning  float64
	Critical float64
}

// DefaultThresholds matches the output.warning/output.critical defaults.
var DefaultThresholds = Thresholds{Warning: 70, Critical: 90}

func (t Thresholds) valid() bool {
	return t.Warning > 0 && t.Critical > t.Warning
}

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	// Each card line sets its own background, so the card style doesn't.
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginRight(1).
			MarginBottom(1)

	CardSelectedStyle = CardStyle.
				BorderForeground(ColorAccent)

	HostNameStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	StatusLoadingStyle = lipgloss.NewStyle().
				Foreground(ColorTextSecondary)

	StatusReadyStyle = lipgloss.NewStyle().
				Foreground(ColorHealthy)

	StatusPartialStyle = lipgloss.NewStyle().
				Foreground(ColorWarning)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ColorCritical)
)

// Status glyphs
const (
	GlyphLoading = "◐"
	GlyphReady   = "◉"
	GlyphPartial = "◔"
	GlyphError   = "◌"
	GlyphStale   = "≈"
)

// LoadingSpinnerFrames animate the Loading state.
var LoadingSpinnerFrames = []string{"◐", "◓", "◑", "◒"}

// StatusGlyph returns the indicator and its style for a controller status.
func StatusGlyph(s poll.Status) (string, lipgloss.Style) {
	switch s {
	case poll.Ready:
		return GlyphReady, StatusReadyStyle
	case poll.PartialError:
		return GlyphPartial, StatusPartialStyle
	case poll.Error:
		return GlyphError, StatusErrorStyle
	default:
		return GlyphLoading, StatusLoadingStyle
	}
}

// StatusLabel is the human word shown next to the glyph.
func StatusLabel(s poll.Status) string {
	switch s {
	case poll.Ready:
		return "live"
	case poll.PartialError:
		return "partial"
	case poll.Error:
		return "unavailable"
	default:
		return "loading"
	}
}

// MetricColor picks green, amber or red for a percentage. NaN means the
// value is unknown and renders muted.
func MetricColor(percent float64, t Thresholds) lipgloss.Color {
	if !t.valid() {
		t = DefaultThresholds
	}
	switch {
	case math.IsNaN(percent):
		return ColorTextMuted
	case percent >= t.Critical:
		return ColorCritical
	case percent >= t.Warning:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// MetricStyle returns a foreground style for a percentage.
func MetricStyle(percent float64, t Thresholds) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(MetricColor(percent, t))
}

// FormatPercent renders a percentage in six columns, or a dash when unknown.
func FormatPercent(percent float64) string {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return "     -"
	}
	return fmt.Sprintf("%5.1f%%", percent)
}

// ProgressBar renders a bar of width cells colored by threshold.
// An unknown percentage renders an empty muted bar.
func ProgressBar(width int, percent float64, t Thresholds) string {
	if width < 1 {
		width = 1
	}
	filled := 0
	if !math.IsNaN(percent) {
		filled = int(clampPercent(percent) / 100.0 * float64(width))
	}

	var bar strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			bar.WriteString("▰")
		} else {
			bar.WriteString("▱")
		}
	}
	return lipgloss.NewStyle().Foreground(MetricColor(percent, t)).Render(bar.String())
}

// SectionHeader renders a section top border with the title on the left
// and value on the right:
//
//	╭─ Title ──────────────────────────── Value ╮
func SectionHeader(title, value string, width int) string {
	if width < 10 {
		width = 10
	}

	leftWidth := 3 + lipgloss.Width(title) + 1
	rightWidth := 1 + lipgloss.Width(value) + 2
	fillWidth := width - leftWidth - rightWidth
	if fillWidth < 1 {
		fillWidth = 1
	}

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	titleStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(ColorGraph).Bold(true)

	return borderStyle.Render("╭─ ") +
		titleStyle.Render(title) +
		borderStyle.Render(" "+strings.Repeat("─", fillWidth)+" ") +
		valueStyle.Render(value) +
		borderStyle.Render(" ╮")
}

// SectionFooter renders a section bottom border.
func SectionFooter(width int) string {
	if width < 2 {
		width = 2
	}
	return lipgloss.NewStyle().Foreground(ColorBorder).Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionContentLine renders content between side borders, padded to width.
func SectionContentLine(content string, width int) string {
	if width < 4 {
		width = 4
	}
	border := lipgloss.NewStyle().Foreground(ColorBorder).Render("│")
	padding := width - 4 - lipgloss.Width(content)
	if padding < 0 {
		padding = 0
	}
	return border + " " + content + strings.Repeat(" ", padding) + " " + border
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
