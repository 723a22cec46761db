package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// PlotSeries renders one named series against time as an ascii chart.
// Long trajectories are downsampled to the chart width.
func PlotSeries(name string, times, values []float64, width, height int) string {
	if len(values) < 2 {
		return fmt.Sprintf("%s: not enough samples to plot", name)
	}
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 12
	}

	data := downsample(values, width)
	caption := name
	if len(times) > 0 {
		caption = fmt.Sprintf("%s  (0 .. %.1f h)", name, times[len(times)-1]/60.0)
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption))
}

// PlotMany stacks several series into one report.
func PlotMany(names []string, times []float64, series [][]float64, width, height int) string {
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(PlotSeries(name, times, series[i], width, height))
	}
	return b.String()
}

func downsample(values []float64, width int) []float64 {
	if len(values) <= width {
		return values
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		out[i] = values[i*len(values)/width]
	}
	return out
}
