package view

import (
	"sheetchat/models"
)

// Tab is one entry of the visualization tab strip
type Tab struct {
	Mode   models.VisualizationMode
	Label  string
	Active bool
}

// Visualization is the view model of the visualization panel. Exactly one of
// Chart, Table or Transcript is populated, depending on Mode.
type Visualization struct {
	Title      string
	Mode       models.VisualizationMode
	Tabs       []Tab
	Chart      *ChartPlaceholder
	Table      *Table
	Transcript []TranscriptEntry
}

// BuildVisualization selects the view for the snapshot's active mode
func BuildVisualization(s models.Snapshot) Visualization {
	mode := s.Mode
	if mode == "" {
		mode = models.ModeBar
	}

	v := Visualization{
		Title: s.ChartTitle,
		Mode:  mode,
		Tabs:  BuildTabs(mode),
	}
	switch {
	case mode.IsChart():
		v.Chart = BuildChart(s.Chart, mode)
	case mode == models.ModeTable:
		v.Table = BuildTable(s.Data)
	case mode == models.ModeChat:
		v.Transcript = BuildTranscript(s.Messages)
	}
	return v
}

// BuildTabs lists the five modes in tab order, marking the active one
func BuildTabs(active models.VisualizationMode) []Tab {
	tabs := make([]Tab, len(models.Modes))
	for i, m := range models.Modes {
		tabs[i] = Tab{Mode: m, Label: Capitalize(string(m)), Active: m == active}
	}
	return tabs
}
