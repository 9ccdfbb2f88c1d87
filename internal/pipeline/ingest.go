package pipeline

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"stocklens/internal"
)

// ReadWorkbook opens an xlsx workbook from memory and returns a RawTable for
// every requested sheet found in it. Sheet names match exactly, case
// included. The first row of each sheet is its header row.
func ReadWorkbook(data []byte, sheets ...string) (map[string]internal.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	present := map[string]bool{}
	for _, name := range f.GetSheetList() {
		present[name] = true
	}

	out := map[string]internal.RawTable{}
	for _, name := range sheets {
		if !present[name] {
			continue
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		if len(rows) == 0 {
			out[name] = internal.RawTable{Sheet: name}
			continue
		}
		out[name] = internal.RawTable{
			Sheet:   name,
			Headers: rows[0],
			Rows:    rows[1:],
		}
	}

	return out, nil
}
