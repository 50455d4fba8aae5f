package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

// sparklineBlockRunes provides indexed access to block characters.
var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderSparkline draws the most recent width percentages on a fixed 0-100
// scale. Missing samples (NaN) leave a gap. The line takes the threshold
// color of the last known value.
func RenderSparkline(data []float64, width, warning, critical int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	if len(data) > width {
		data = data[len(data)-width:]
	}

	var sb strings.Builder
	sb.Grow(len(data) * 3)

	numLevels := len(sparklineBlockRunes)
	last := math.NaN()
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			sb.WriteRune(' ')
			continue
		}
		last = v

		level := int(math.Round(v / 100 * float64(numLevels-1)))
		if level < 0 {
			level = 0
		} else if level >= numLevels {
			level = numLevels - 1
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}

	style := lipgloss.NewStyle().Foreground(Threshold(last, warning, critical))
	return style.Render(sb.String())
}
