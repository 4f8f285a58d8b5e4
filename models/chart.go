package models

import (
	"fmt"
	"strings"
)

// Series is one named numeric series of a chart
type Series struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
}

// ChartDescriptor is the label set plus series fed to the chart view.
// It is supplied verbatim and never derived from the dataset.
type ChartDescriptor struct {
	Labels []string `json:"labels"`
	Series []Series `json:"datasets"`
}

// Clone deep-copies the descriptor
func (c ChartDescriptor) Clone() ChartDescriptor {
	out := ChartDescriptor{
		Labels: append([]string(nil), c.Labels...),
		Series: make([]Series, len(c.Series)),
	}
	for i, s := range c.Series {
		s.Data = append([]float64(nil), s.Data...)
		out.Series[i] = s
	}
	return out
}

// VisualizationMode selects which of the five views is displayed
type VisualizationMode string

const (
	ModeBar   VisualizationMode = "bar"
	ModeLine  VisualizationMode = "line"
	ModePie   VisualizationMode = "pie"
	ModeTable VisualizationMode = "table"
	ModeChat  VisualizationMode = "chat"
)

// Modes lists every mode in tab order
var Modes = []VisualizationMode{ModeBar, ModeLine, ModePie, ModeTable, ModeChat}

// ParseMode validates a mode name
func ParseMode(s string) (VisualizationMode, error) {
	mode := VisualizationMode(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range Modes {
		if m == mode {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown visualization mode %q", s)
}

// IsChart reports whether the mode is one of the placeholder chart views
func (m VisualizationMode) IsChart() bool {
	return m == ModeBar || m == ModeLine || m == ModePie
}
