package excel

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"sheetchat/internal"
	"sheetchat/models"

	"github.com/xuri/excelize/v2"
)

// Exporter writes datasets out as spreadsheets
type Exporter struct {
	logger *internal.Logger
}

// NewExporter creates a dataset exporter
func NewExporter(logger *internal.Logger) *Exporter {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Exporter{logger: logger}
}

// Export writes data to w in the given format
func (e *Exporter) Export(w io.Writer, format Format, data models.Dataset) error {
	switch format {
	case FormatXLSX:
		return e.WriteXLSX(w, data)
	case FormatCSV:
		return e.WriteCSV(w, data)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteXLSX writes the dataset as a single-sheet workbook. The first row holds
// the field names of the first record; fields missing from later records are
// left blank.
func (e *Exporter) WriteXLSX(w io.Writer, data models.Dataset) error {
	startTime := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	columns := data.Columns()
	if len(columns) > 0 {
		header := make([]interface{}, len(columns))
		for i, c := range columns {
			header[i] = c
		}
		if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
			return fmt.Errorf("failed to write header row: %w", err)
		}

		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
			return fmt.Errorf("failed to style header row: %w", err)
		}
	}

	for i, rec := range data {
		row := make([]interface{}, len(columns))
		for j, c := range columns {
			if v, ok := rec.Get(c); ok {
				row[j] = cellValue(v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	e.logger.Debug("[Exporter] XLSX written in %.2fms (%d columns, %d rows)",
		float64(time.Since(startTime).Nanoseconds())/1e6, len(columns), len(data))
	return nil
}

// WriteCSV writes the dataset as CSV with a header row
func (e *Exporter) WriteCSV(w io.Writer, data models.Dataset) error {
	writer := csv.NewWriter(w)

	columns := data.Columns()
	if len(columns) > 0 {
		if err := writer.Write(columns); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}
	for _, rec := range data {
		row := make([]string, len(columns))
		for j, c := range columns {
			if v, ok := rec.Get(c); ok && v != nil {
				row[j] = fmt.Sprint(cellValue(v))
			}
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// cellValue turns decoded JSON numbers back into native numbers so the
// workbook stores them as numeric cells.
func cellValue(v interface{}) interface{} {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
