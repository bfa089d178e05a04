package bulk

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes t as the only sheet of a workbook.
func WriteXLSX(w io.Writer, t Table, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" {
		if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
			return err
		}
	} else {
		sheet = f.GetSheetName(0)
	}

	rows := append([][]string{t.Header}, t.Rows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err = f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx: row %d: %w", i+1, err)
		}
	}
	return f.Write(w)
}

// ReadXLSX reads the first sheet of a workbook; its first row is the
// header.
func ReadXLSX(r io.Reader) (Table, error) {
	t := Table{}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return t, fmt.Errorf("xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return t, fmt.Errorf("xlsx: no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return t, fmt.Errorf("xlsx: %w", err)
	}
	if len(rows) == 0 {
		return t, fmt.Errorf("xlsx: missing header")
	}
	t.Header = rows[0]
	t.Rows = rows[1:]
	return t, nil
}
