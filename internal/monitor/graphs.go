package monitor

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille patterns use a 2x4 dot matrix per character:
//
//	  Col 0  Col 1
//	Row 0:   ⠁      ⠈     (dots 1, 4)
//	Row 1:   ⠂      ⠐     (dots 2, 5)
//	Row 2:   ⠄      ⠠     (dots 3, 6)
//	Row 3:   ⡀      ⢀     (dots 7, 8)
//
// U+2800 is the empty cell. Rows 0-2 map to bits 0-5; row 3 uses bits 6 and 7.
const brailleBase = '\u2800'

// sparklineBlocks are block characters for 8-level vertical resolution (lowest to highest).
var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// brailleDots maps [row][col] to the bit offset within a braille cell.
var brailleDots = [4][2]uint8{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

// findMinMax returns the bounds of the finite values in data.
// Percentage data (all values 0-100) uses the fixed 0-100 range.
func findMinMax(data []float64) (minVal, maxVal float64, isPercentage bool) {
	seen := false
	for _, v := range data {
		if !finite(v) {
			continue
		}
		if !seen || v < minVal {
			minVal = v
		}
		if !seen || v > maxVal {
			maxVal = v
		}
		seen = true
	}
	if !seen {
		return 0, 100, true
	}

	isPercentage = maxVal <= 100 && minVal >= 0
	if isPercentage {
		minVal, maxVal = 0, 100
	}
	return minVal, maxVal, isPercentage
}

// normalizeValue converts a value to 0-1 range given min/max bounds.
func normalizeValue(val, minVal, maxVal float64) float64 {
	if maxVal > minVal {
		return (val - minVal) / (maxVal - minVal)
	}
	return 0.5
}

// clampInt clamps an integer to a range [0, maxVal].
func clampInt(val, maxVal int) int {
	if val < 0 {
		return 0
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// nan marks a value that is not known.
func nan() float64 {
	return math.NaN()
}

// RenderBrailleSparkline plots data as a braille graph width cells wide and
// height rows tall. Each cell holds two points and four vertical levels.
// Non-finite points leave a gap. Percentage data is colored per column by
// threshold; anything else uses baseColor. Short data is right-aligned.
func RenderBrailleSparkline(data []float64, width, height int, baseColor lipgloss.Color, t Thresholds) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minVal, maxVal, isPercentage := findMinMax(data)
	totalDots := height * 4
	targetPoints := width * 2

	resampled := data
	if len(data) > targetPoints {
		resampled = resampleData(data, targetPoints)
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = brailleBase
		}
	}

	colMax := make([]float64, width)
	for i := range colMax {
		colMax[i] = math.NaN()
	}

	offset := targetPoints - len(resampled)
	if offset < 0 {
		offset = 0
	}

	for i, val := range resampled {
		if !finite(val) {
			continue
		}
		charCol := (i + offset) / 2
		if charCol >= width {
			continue
		}
		if math.IsNaN(colMax[charCol]) || val > colMax[charCol] {
			colMax[charCol] = val
		}

		subCol := (i + offset) % 2
		dotHeight := clampInt(int(normalizeValue(val, minVal, maxVal)*float64(totalDots)), totalDots)
		for dot := 0; dot < dotHeight; dot++ {
			row := height - 1 - (dot / 4)
			subRow := 3 - (dot % 4)
			grid[row][charCol] |= rune(1 << brailleDots[subRow][subCol])
		}
	}

	lines := make([]string, 0, height)
	for _, row := range grid {
		var b strings.Builder
		for col, char := range row {
			color := baseColor
			if isPercentage {
				color = MetricColor(colMax[col], t)
			}
			b.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(char)))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// RenderMiniSparkline renders one row of block characters, one per cell.
// Non-finite points render as a space.
func RenderMiniSparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	minVal, maxVal, _ := findMinMax(data)
	resampled := data
	if len(data) > width {
		resampled = resampleData(data, width)
	}

	var b strings.Builder
	for _, val := range resampled {
		if !finite(val) {
			b.WriteRune(' ')
			continue
		}
		idx := clampInt(int(normalizeValue(val, minVal, maxVal)*float64(len(sparklineBlocks)-1)), len(sparklineBlocks)-1)
		b.WriteRune(sparklineBlocks[idx])
	}
	return b.String()
}

// RenderTimeAxis lays out the first, middle and last labels under a graph of
// the given width, matching the right alignment of RenderBrailleSparkline.
func RenderTimeAxis(labels []string, points, width int) string {
	if len(labels) == 0 || width <= 0 {
		return ""
	}

	// Columns actually covered by data.
	used := (points + 1) / 2
	if used > width || points > width*2 {
		used = width
	}
	start := width - used

	line := []rune(strings.Repeat(" ", width))
	place := func(col int, label string) {
		r := []rune(label)
		if col+len(r) > width {
			col = width - len(r)
		}
		if col < 0 {
			return
		}
		copy(line[col:], r)
	}

	first := labels[0]
	last := labels[len(labels)-1]
	place(start, first)
	if used >= 3*len([]rune(first))+2 {
		mid := labels[len(labels)/2]
		place(start+used/2-len([]rune(mid))/2, mid)
	}
	if len(labels) > 1 && used >= 2*len([]rune(last))+1 {
		place(width-len([]rune(last)), last)
	}
	return MutedStyle.Render(strings.TrimRight(string(line), " "))
}

// resampleData shrinks or stretches data to targetSize points. Shrinking keeps
// the max finite value per bucket so spikes survive; stretching interpolates
// linearly. A bucket with no finite values stays NaN.
func resampleData(data []float64, targetSize int) []float64 {
	if len(data) == 0 || targetSize <= 0 {
		return nil
	}
	if len(data) == targetSize {
		return data
	}

	result := make([]float64, targetSize)
	if len(data) == 1 {
		for i := range result {
			result[i] = data[0]
		}
		return result
	}

	if len(data) > targetSize {
		bucket := float64(len(data)) / float64(targetSize)
		for i := 0; i < targetSize; i++ {
			start := int(float64(i) * bucket)
			end := int(float64(i+1) * bucket)
			if end > len(data) {
				end = len(data)
			}
			if start >= end {
				start = end - 1
			}
			if start < 0 {
				start = 0
			}

			maxVal := math.NaN()
			for _, v := range data[start:end] {
				if finite(v) && (math.IsNaN(maxVal) || v > maxVal) {
					maxVal = v
				}
			}
			result[i] = maxVal
		}
		return result
	}

	scale := float64(len(data)-1) / float64(targetSize-1)
	for i := 0; i < targetSize; i++ {
		pos := float64(i) * scale
		idx := int(pos)
		frac := pos - float64(idx)
		if idx >= len(data)-1 {
			result[i] = data[len(data)-1]
			continue
		}
		// NaN on either side propagates, leaving a gap.
		result[i] = data[idx]*(1-frac) + data[idx+1]*frac
	}
	return result
}
