package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExportPath appends the format extension when path has none.
func ExportPath(path string, f Format) string {
	if filepath.Ext(path) == "" {
		return path + f.Extension()
	}
	return path
}

// Export writes data to path in format f and returns the final path.
func Export(path string, f Format, data *ExportData) (string, error) {
	formatter, err := NewFormatter(f)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, data); err != nil {
		return "", err
	}

	target := ExportPath(expandHome(path), f)
	if dir := filepath.Dir(target); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(target, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	return target, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
