// Package output renders command results for the terminal and for export
// files.
//
// # Formats
//
//   - JSON: the service response, indented
//   - YAML: nested bodies in previews and get output
//   - CSV: one row per resource under a fixed header
//   - TXT: one templated block per resource
//   - table: the terminal rendering of a Table
package output

import (
	"fmt"
	"io"
	"strings"
)

// Format names an export format.
type Format string

const (
	FormatCSV  Format = "CSV"
	FormatJSON Format = "JSON"
	FormatTXT  Format = "TXT"
)

// Formats lists the supported export formats.
var Formats = []Format{FormatCSV, FormatJSON, FormatTXT}

// ParseFormat matches a format name case-insensitively.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(name, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported file format %q, valid formats: CSV, JSON, TXT", name)
}

// Extension returns the file extension of the format, dot included.
func (f Format) Extension() string {
	return "." + strings.ToLower(string(f))
}

// Formatter writes data in one format.
type Formatter interface {
	Format(w io.Writer, data *ExportData) error
	Name() Format
}

// ExportData is everything a list command can export.
type ExportData struct {
	// Raw is the undecoded service response.
	Raw []byte
	// Table holds the CSV header and rows.
	Table *Table
	// Records are the resources rendered through Template for TXT.
	Records  []map[string]interface{}
	Template string
}

// NewFormatter returns the formatter of f.
func NewFormatter(f Format) (Formatter, error) {
	switch f {
	case FormatCSV:
		return &CSVFormatter{}, nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatTXT:
		return &TextFormatter{engine: NewTemplateEngine()}, nil
	}
	return nil, fmt.Errorf("unsupported file format %q", f)
}
