package view

import (
	"fmt"
	"math"
	"unicode"
	"unicode/utf8"

	"sheetchat/models"
)

// Table is a rendered tabular listing
type Table struct {
	Columns []string // raw field names
	Headers []string // display headers, first letter upper-cased
	Rows    [][]string
}

// BuildTable derives the table from the dataset. Headers come from the
// first record's field names. An empty dataset renders nothing: the result
// is nil and no error is raised.
func BuildTable(data models.Dataset) *Table {
	if len(data) == 0 {
		return nil
	}

	columns := data.Columns()
	t := &Table{
		Columns: columns,
		Headers: make([]string, len(columns)),
		Rows:    make([][]string, 0, len(data)),
	}
	for i, col := range columns {
		t.Headers[i] = Capitalize(col)
	}
	for _, rec := range data {
		t.Rows = append(t.Rows, rowCells(rec, columns))
	}
	return t
}

func rowCells(rec models.Record, columns []string) []string {
	cells := make([]string, len(columns))
	for i, col := range columns {
		if v, ok := rec.Get(col); ok {
			cells[i] = FormatValue(v)
		}
	}
	return cells
}

// Capitalize upper-cases the first letter and leaves the rest alone
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// FormatValue renders a cell value the way it would print in the browser:
// whole floats without a fraction, nil as blank.
func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return fmt.Sprintf("%.0f", t)
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}

// PreviewPage is one page of the data preview
type PreviewPage struct {
	Table      *Table
	Page       int
	TotalPages int
	Start      int // 1-based index of the first row shown
	End        int // 1-based index of the last row shown
	Total      int
	HasPrev    bool
	HasNext    bool
}

// DefaultPageSize is the number of rows per preview page
const DefaultPageSize = 5

// Paginate slices the dataset into the requested page. Out-of-range pages
// are clamped.
func Paginate(data models.Dataset, page, perPage int) PreviewPage {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	total := len(data)
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	end := start + perPage
	if end > total {
		end = total
	}

	p := PreviewPage{
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		End:        end,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
	if total > 0 {
		p.Start = start + 1
		// Headers always follow the first record of the whole dataset.
		full := BuildTable(data)
		p.Table = &Table{Columns: full.Columns, Headers: full.Headers, Rows: full.Rows[start:end]}
	}
	return p
}
