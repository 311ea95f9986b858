package report

import (
	"fmt"
	"io"

	"github.com/tealeg/xlsx/v3"
)

// DefaultSheetName is used by WriteXLSX when no sheet name is given.
const DefaultSheetName = "Report"

// maxSheetName is the spreadsheet limit on sheet names, in characters.
const maxSheetName = 31

// WriteXLSX writes the report as a single-sheet spreadsheet: a header row of
// column names, then one row per report row.
func (r *TabularReport) WriteXLSX(w io.Writer, sheetName string) error {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	if r := []rune(sheetName); len(r) > maxSheetName {
		sheetName = string(r[:maxSheetName])
	}
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return fmt.Errorf("xlsx: add sheet: %w", err)
	}
	header := sheet.AddRow()
	for _, col := range r.Columns {
		header.AddCell().SetString(col)
	}
	for _, row := range r.Rows {
		xr := sheet.AddRow()
		for _, v := range r.Record(row) {
			xr.AddCell().SetString(v)
		}
	}
	if err := file.Write(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}
