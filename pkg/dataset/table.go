// Package dataset assembles scraped records into tabular form and writes
// them to disk as CSV or Excel files.
package dataset

import (
	"fmt"
)

// Table is an ordered tabular dataset: one column header row plus data rows.
// Rows shorter than the header are padded with empty cells on write.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds a data row.
func (t *Table) Append(row []string) {
	t.Rows = append(t.Rows, row)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// normalizedRow pads or truncates a row to the header width.
func (t *Table) normalizedRow(row []string) []string {
	if len(row) == len(t.Columns) {
		return row
	}
	out := make([]string, len(t.Columns))
	copy(out, row)
	return out
}

// validate rejects tables that cannot be serialized.
func (t *Table) validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table has no columns")
	}
	return nil
}
