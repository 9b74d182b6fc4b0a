package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet name used for exported tables.
const DefaultSheet = "Sheet1"

// WriteXLSX writes the table to path as an Excel workbook with a single
// sheet: the header row followed by the data rows.
func (t *Table) WriteXLSX(path string) error {
	if err := t.validate(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheetRow(f, 1, t.Columns); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := writeSheetRow(f, i+2, t.normalizedRow(row)); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("row %d: %w", rowNum, err)
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(DefaultSheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}
