package tabio

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/brookluers/cmimpute/utils"
)

// ReadXLSX reads the first sheet of a workbook, with the header in the
// first row.
func ReadXLSX(path string) (*utils.Table, error) {

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets: %w", path, ErrFormat)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no header: %w", path, ErrFormat)
	}

	return fromRows(rows[0], rows[1:])
}

// sheetName returns the sheet of imputation i.
func sheetName(i, m int) string {
	if m == 1 {
		return "data"
	}
	return fmt.Sprintf("imp%d", i+1)
}

// WriteXLSX writes each table to its own sheet of a new workbook.
func WriteXLSX(path string, tables []*utils.Table) error {

	f := excelize.NewFile()
	defer f.Close()

	for i, tb := range tables {
		name := sheetName(i, len(tables))
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}

		header := make([]interface{}, len(tb.Names()))
		for j, na := range tb.Names() {
			header[j] = na
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return err
		}

		data := tb.Data()
		row := make([]interface{}, len(data))
		for r := 0; r < tb.NumRows(); r++ {
			for j := range data {
				if v := data[j][r]; math.IsNaN(v) {
					row[j] = nil
				} else {
					row[j] = v
				}
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}
