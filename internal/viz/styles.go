package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	valueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
)

// One color per technology, shared by the chart lines and the legend.
var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Red,     // fossil
	asciigraph.Magenta, // nuclear
	asciigraph.Cyan,    // wind
	asciigraph.Yellow,  // solar
	asciigraph.Blue,    // hydro
}

var legendStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("201")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("51")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("21")),
}

func seriesColor(i int) asciigraph.AnsiColor {
	return seriesColors[i%len(seriesColors)]
}

func legendStyle(i int) lipgloss.Style {
	return legendStyles[i%len(legendStyles)]
}
