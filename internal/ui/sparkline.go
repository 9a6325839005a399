package ui

import "strings"

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws the most recent width throughput samples, oldest first,
// scaled to the busiest one. Missing history renders as the lowest block.
func Sparkline(samples []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}

	var peak float64
	for _, v := range samples {
		peak = max(peak, v)
	}

	var b strings.Builder
	b.Grow(width * 3)
	for range width - len(samples) {
		b.WriteRune(sparkBlocks[0])
	}
	top := len(sparkBlocks) - 1
	for _, v := range samples {
		level := 0
		if peak > 0 && v > 0 {
			level = min(int(v/peak*float64(top)), top)
		}
		b.WriteRune(sparkBlocks[level])
	}
	return b.String()
}
