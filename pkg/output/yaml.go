package output

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteYAML writes v as YAML with two-space indentation.
func WriteYAML(w io.Writer, v interface{}) error {
	if v == nil {
		_, err := io.WriteString(w, "null\n")
		return err
	}

	encoder := yaml.NewEncoder(w)
	defer func() { _ = encoder.Close() }()
	encoder.SetIndent(2)

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}

// YAML renders v as a YAML string.
func YAML(v interface{}) (string, error) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
