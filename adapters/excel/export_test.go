package excel

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"sheetchat/internal"
	"sheetchat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportData() models.Dataset {
	return models.Dataset{
		{{Name: "id", Value: 1}, {Name: "name", Value: "Product A"}, {Name: "sales", Value: json.Number("100")}},
		{{Name: "id", Value: 2}, {Name: "name", Value: "Product B"}, {Name: "sales", Value: 2.5}},
		{{Name: "id", Value: 3}, {Name: "name", Value: "Product C"}},
	}
}

func TestWriteXLSXHeaderMatchesFieldNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter(internal.NewNopLogger()).WriteXLSX(&buf, exportData()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"id", "name", "sales"}, rows[0])
	assert.Equal(t, []string{"1", "Product A", "100"}, rows[1])
	assert.Equal(t, []string{"2", "Product B", "2.5"}, rows[2])
	require.GreaterOrEqual(t, len(rows[3]), 2)
	assert.Equal(t, []string{"3", "Product C"}, rows[3][:2])
}

func TestWriteXLSXEmptyDataset(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter(internal.NewNopLogger()).WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter(internal.NewNopLogger()).Export(&buf, FormatCSV, exportData()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "name", "sales"},
		{"1", "Product A", "100"},
		{"2", "Product B", "2.5"},
		{"3", "Product C", ""},
	}, records)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := NewExporter(internal.NewNopLogger()).Export(&buf, Format("pdf"), exportData())
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("ods")
	assert.Error(t, err)
}

func TestFormatFileName(t *testing.T) {
	assert.Equal(t, "Data_Analysis.xlsx", FormatXLSX.FileName("Data Analysis"))
	assert.Equal(t, "data.csv", FormatCSV.FileName("  "))
	assert.Equal(t, "Q3_sales.csv", FormatCSV.FileName("Q3 sales!"))
}

func TestUploadChecks(t *testing.T) {
	assert.True(t, HasAllowedExtension("report.XLSX"))
	assert.True(t, HasAllowedExtension("a.b.csv"))
	assert.True(t, HasAllowedExtension("old.xls"))
	assert.False(t, HasAllowedExtension("notes.txt"))
	assert.False(t, HasAllowedExtension("xlsx"))

	assert.True(t, IsSpreadsheetMIME("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
	assert.True(t, IsSpreadsheetMIME("application/vnd.oasis.opendocument.spreadsheet"))
	assert.False(t, IsSpreadsheetMIME("text/csv"))
	assert.False(t, IsSpreadsheetMIME(""))
}
