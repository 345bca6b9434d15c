package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pterm/pterm"
)

// Table is a header and rows of cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Append adds a row.
func (t *Table) Append(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// RenderTable writes t as a terminal table.
func RenderTable(w io.Writer, t *Table) error {
	data := pterm.TableData{t.Headers}
	data = append(data, t.Rows...)

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err = fmt.Fprintln(w, rendered)
	return err
}

// CSVFormatter writes the table as CSV.
type CSVFormatter struct{}

// Name returns the formatter name.
func (f *CSVFormatter) Name() Format {
	return FormatCSV
}

// Format writes the header and every row.
func (f *CSVFormatter) Format(w io.Writer, data *ExportData) error {
	if data.Table == nil {
		return fmt.Errorf("no table to export")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(data.Table.Headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := cw.WriteAll(data.Table.Rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}
