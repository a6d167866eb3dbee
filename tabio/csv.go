// Package tabio reads and writes data sets as CSV, XLSX, SQLite and
// directories of binary columns.
package tabio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/brookluers/cmimpute/utils"
)

// ErrFormat is returned for input that is not a numeric table.
var ErrFormat = errors.New("malformed table")

// parseCell converts one cell, with empty and NA cells missing.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "NA", "NaN", "nan":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// fromRows builds a table from a header and string rows.  Short rows are
// padded with missing values.
func fromRows(header []string, rows [][]string) (*utils.Table, error) {

	cols := make([][]float64, len(header))
	for j := range cols {
		cols[j] = make([]float64, len(rows))
	}

	for i, row := range rows {
		if len(row) > len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d: %w", i+1, len(row), len(header), ErrFormat)
		}
		for j := range header {
			if j >= len(row) {
				cols[j][i] = math.NaN()
				continue
			}
			v, err := parseCell(row[j])
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %v: %w", i+1, header[j], err, ErrFormat)
			}
			cols[j][i] = v
		}
	}

	names := make([]string, len(header))
	for j, h := range header {
		names[j] = strings.TrimSpace(h)
	}

	return utils.NewTable(cols, names)
}

// ReadCSV reads a table with a header row.
func ReadCSV(r io.Reader) (*utils.Table, error) {

	rd := csv.NewReader(r)
	rd.FieldsPerRecord = -1

	header, err := rd.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("no header: %w", ErrFormat)
	} else if err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		row, err := rd.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return fromRows(header, rows)
}

// WriteCSV writes the table with a header row.
func WriteCSV(w io.Writer, tb *utils.Table) error {

	wr := csv.NewWriter(w)
	if err := wr.Write(tb.Names()); err != nil {
		return err
	}

	data := tb.Data()
	row := make([]string, len(data))
	for i := 0; i < tb.NumRows(); i++ {
		for j := range data {
			row[j] = formatCell(data[j][i])
		}
		if err := wr.Write(row); err != nil {
			return err
		}
	}

	wr.Flush()
	return wr.Error()
}
