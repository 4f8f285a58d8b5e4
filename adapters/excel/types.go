package excel

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a dataset export format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// SheetName is the worksheet the dataset is written to
const SheetName = "Data"

// AllowedExtensions are the file types the upload picker accepts
var AllowedExtensions = []string{".xlsx", ".xls", ".csv"}

// ParseFormat validates an export format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// ContentType returns the MIME type served for the format
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileName returns the download name for an export of title
func (f Format) FileName(title string) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, strings.TrimSpace(title))
	if base == "" {
		base = "data"
	}
	return base + "." + string(f)
}

// HasAllowedExtension reports whether name ends in one of AllowedExtensions
func HasAllowedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// IsSpreadsheetMIME reports whether a dropped file's MIME type names a
// spreadsheet. Drops are checked by type rather than extension.
func IsSpreadsheetMIME(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "spreadsheet")
}
