package report

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"stocklens/internal"
)

// ExportTableToXLSX writes the canonical table to a workbook, one header
// row of canonical field names followed by the data in field order.
func ExportTableToXLSX(t internal.Table, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, field := range t.Fields {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, string(field))
	}

	for i, rec := range t.Rows {
		r := i + 2
		for c, field := range t.Fields {
			cell, _ := excelize.CoordinatesToCellName(c+1, r)
			if v := fieldValue(rec, field); v != nil {
				_ = f.SetCellValue(sheet, cell, v)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
