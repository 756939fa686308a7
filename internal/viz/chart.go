// Package viz renders trajectories as terminal charts, one line per
// technology share over time.
package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"enermix/internal/dynamo"
)

// Chart plots every share series of a trajectory into one graph and
// appends a colored legend and the final mix.
func Chart(title string, traj *dynamo.Trajectory, labels []string, width, height int) string {
	if traj.Len() == 0 {
		return dimStyle.Render("no data to plot")
	}

	n := len(traj.States[0])
	series := make([][]float64, n)
	colors := make([]asciigraph.AnsiColor, n)
	for i := 0; i < n; i++ {
		series[i] = traj.Series(i)
		colors[i] = seriesColor(i)
	}

	graph := asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption("share of generation vs time"),
	)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(graph)
	sb.WriteString("\n\n")
	sb.WriteString(Legend(labels, n))
	sb.WriteString("\n")
	sb.WriteString(FinalMix(traj, labels))
	return sb.String()
}

// Legend lists the series labels in their chart colors.
func Legend(labels []string, n int) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("x%d", i)
		if i < len(labels) {
			name = labels[i]
		}
		parts = append(parts, legendStyle(i).Render("── "+name))
	}
	return strings.Join(parts, "  ")
}

// FinalMix formats the last sample as share percentages.
func FinalMix(traj *dynamo.Trajectory, labels []string) string {
	tf, final := traj.Final()
	if final == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(dimStyle.Render(fmt.Sprintf("final mix at t=%.1f:", tf)))
	for i, v := range final {
		name := fmt.Sprintf("x%d", i)
		if i < len(labels) {
			name = labels[i]
		}
		sb.WriteString(fmt.Sprintf("  %s %s", dimStyle.Render(name), valueStyle.Render(fmt.Sprintf("%5.1f%%", v*100))))
	}
	return sb.String()
}
