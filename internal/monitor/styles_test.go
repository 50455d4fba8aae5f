package monitor

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/fleetwatch/internal/poll"
	"github.com/stretchr/testify/assert"
)

func TestMetricColor(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		expect  lipgloss.Color
	}{
		{"healthy low", 0.0, ColorHealthy},
		{"healthy near threshold", 69.9, ColorHealthy},
		{"warning at threshold", 70.0, ColorWarning},
		{"warning near critical", 89.9, ColorWarning},
		{"critical at threshold", 90.0, ColorCritical},
		{"critical max", 100.0, ColorCritical},
		{"unknown", math.NaN(), ColorTextMuted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, MetricColor(tt.percent, DefaultThresholds))
		})
	}
}

func TestMetricColor_CustomThresholds(t *testing.T) {
	th := Thresholds{Warning: 50, Critical: 80}
	assert.Equal(t, ColorHealthy, MetricColor(40, th))
	assert.Equal(t, ColorWarning, MetricColor(60, th))
	assert.Equal(t, ColorCritical, MetricColor(85, th))

	// Invalid thresholds fall back to the defaults.
	assert.Equal(t, ColorHealthy, MetricColor(60, Thresholds{Warning: 80, Critical: 50}))
}

func TestStatusGlyphAndLabel(t *testing.T) {
	tests := []struct {
		status poll.Status
		glyph  string
		label  string
	}{
		{poll.Loading, GlyphLoading, "loading"},
		{poll.Ready, GlyphReady, "live"},
		{poll.PartialError, GlyphPartial, "partial"},
		{poll.Error, GlyphError, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			glyph, _ := StatusGlyph(tt.status)
			assert.Equal(t, tt.glyph, glyph)
			assert.Equal(t, tt.label, StatusLabel(tt.status))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, " 42.5%", FormatPercent(42.5))
	assert.Equal(t, "100.0%", FormatPercent(100))
	assert.Equal(t, "     -", FormatPercent(math.NaN()))
	assert.Equal(t, "     -", FormatPercent(math.Inf(1)))
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		filled  int
	}{
		{"empty", 0, 0},
		{"half", 50, 5},
		{"full", 100, 10},
		{"over clamps", 150, 10},
		{"negative clamps", -5, 0},
		{"unknown", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := ProgressBar(10, tt.percent, DefaultThresholds)
			assert.Equal(t, tt.filled, strings.Count(bar, "▰"))
			assert.Equal(t, 10-tt.filled, strings.Count(bar, "▱"))
		})
	}
}

func TestSectionChrome(t *testing.T) {
	header := SectionHeader("CPU", "42%", 40)
	assert.Equal(t, 40, lipgloss.Width(header))
	assert.Contains(t, header, "CPU")
	assert.Contains(t, header, "42%")

	assert.Equal(t, 40, lipgloss.Width(SectionFooter(40)))

	line := SectionContentLine("hello", 40)
	assert.Equal(t, 40, lipgloss.Width(line))
	assert.Contains(t, line, "hello")
}
