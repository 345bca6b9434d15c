package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSONFormatter writes the raw service response with indentation.
type JSONFormatter struct {
	indent string
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{indent: "  "}
}

// Name returns the formatter name.
func (f *JSONFormatter) Name() Format {
	return FormatJSON
}

// Format indents data.Raw. An empty response is written as {}.
func (f *JSONFormatter) Format(w io.Writer, data *ExportData) error {
	raw := bytes.TrimSpace(data.Raw)
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", f.indent); err != nil {
		return fmt.Errorf("failed to format JSON: %w", err)
	}
	buf.WriteByte('\n')

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteJSON writes any value as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
