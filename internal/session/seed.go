package session

import (
	"time"

	"sheetchat/models"
)

const (
	// WelcomeText greets a fresh session
	WelcomeText = "Welcome! Please upload an Excel file to begin analysis."

	// UploadErrorText is shown in the drop zone when an upload fails
	UploadErrorText = "Error uploading file. Please try again."

	// ChatErrorText replaces the reply when the model request fails. The
	// underlying error is logged, never shown.
	ChatErrorText = "Sorry, I encountered an error processing your request. Please try again."

	uploadSuccessFormat = "Successfully uploaded %s"

	defaultChartTitle = "Data Analysis"
)

// Seed is the initial state of a new session
type Seed struct {
	Messages   []models.Message
	Data       models.Dataset
	Chart      models.ChartDescriptor
	Mode       models.VisualizationMode
	ChartTitle string
}

// DefaultSeed returns the sample values a session starts with
func DefaultSeed() Seed {
	return Seed{
		Messages: []models.Message{{
			ID:        "welcome",
			Content:   WelcomeText,
			Sender:    models.SenderAssistant,
			Timestamp: time.Now().UTC(),
		}},
		Data:       SampleDataset(),
		Chart:      SampleChart(),
		Mode:       models.ModeBar,
		ChartTitle: defaultChartTitle,
	}
}

// SampleDataset is the five-product placeholder table
func SampleDataset() models.Dataset {
	products := []struct {
		name           string
		sales, revenue int
	}{
		{"Product A", 100, 1000},
		{"Product B", 200, 2000},
		{"Product C", 300, 3000},
		{"Product D", 400, 4000},
		{"Product E", 500, 5000},
	}

	data := make(models.Dataset, len(products))
	for i, p := range products {
		data[i] = models.Record{
			{Name: "id", Value: i + 1},
			{Name: "name", Value: p.name},
			{Name: "sales", Value: p.sales},
			{Name: "revenue", Value: p.revenue},
		}
	}
	return data
}

// SampleChart is the placeholder sales series
func SampleChart() models.ChartDescriptor {
	return models.ChartDescriptor{
		Labels: []string{"Product A", "Product B", "Product C", "Product D", "Product E"},
		Series: []models.Series{{
			Label:           "Sales",
			Data:            []float64{100, 200, 300, 400, 500},
			BackgroundColor: "#4f46e5",
			BorderColor:     "#4f46e5",
		}},
	}
}
