package view

import (
	"github.com/montanaflynn/stats"

	"sheetchat/models"
)

// PlaceholderText stands in for the chart drawing, which is not implemented
const PlaceholderText = "Chart will be rendered here using a charting library"

// LegendEntry describes one series under the chart placeholder
type LegendEntry struct {
	Label string
	Color string
	Min   float64
	Max   float64
	Total float64
	Empty bool
}

// ChartPlaceholder is what the bar, line and pie views render
type ChartPlaceholder struct {
	Text       string
	Mode       models.VisualizationMode
	DataPoints int
	Legend     []LegendEntry
}

// BuildChart builds the placeholder for a chart mode
func BuildChart(chart models.ChartDescriptor, mode models.VisualizationMode) *ChartPlaceholder {
	p := &ChartPlaceholder{Text: PlaceholderText, Mode: mode}
	if len(chart.Series) > 0 {
		p.DataPoints = len(chart.Series[0].Data)
	}
	for _, s := range chart.Series {
		p.Legend = append(p.Legend, legendEntry(s))
	}
	return p
}

func legendEntry(s models.Series) LegendEntry {
	entry := LegendEntry{Label: s.Label, Color: s.BackgroundColor}
	if entry.Color == "" {
		entry.Color = s.BorderColor
	}

	data := stats.Float64Data(s.Data)
	if data.Len() == 0 {
		entry.Empty = true
		return entry
	}
	// Errors only occur on empty input, ruled out above.
	entry.Min, _ = data.Min()
	entry.Max, _ = data.Max()
	entry.Total, _ = data.Sum()
	return entry
}
