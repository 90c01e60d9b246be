package viz

import (
	"github.com/guptarohit/asciigraph"
)

// PlotSeries renders data as an ASCII line graph.
func PlotSeries(data []float64, caption string, width, height int) string {
	if len(data) == 0 {
		return Subtle.Render("(no data)")
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// PlotMany overlays several equally sampled series.
func PlotMany(series [][]float64, caption string, width, height int) string {
	if len(series) == 0 {
		return Subtle.Render("(no data)")
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Yellow, asciigraph.Cyan),
	)
}
