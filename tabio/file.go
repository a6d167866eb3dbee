package tabio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brookluers/cmimpute/utils"
)

// SQLiteTable is the SQL table holding imputed data sets.
const SQLiteTable = "imputed"

// Stack appends the rows of all tables into one, with an imputation column
// numbering the source table from 1.  All tables must have the same
// columns.
func Stack(tables []*utils.Table) (*utils.Table, error) {

	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables: %w", ErrFormat)
	}

	names := tables[0].Names()
	cols := make([][]float64, len(names)+1)
	for m, tb := range tables {
		for i := 0; i < tb.NumRows(); i++ {
			cols[0] = append(cols[0], float64(m+1))
		}
		for j, na := range names {
			x, err := tb.Col(na)
			if err != nil {
				return nil, fmt.Errorf("table %d: %w", m+1, err)
			}
			cols[j+1] = append(cols[j+1], x...)
		}
	}

	return utils.NewTable(cols, append([]string{ImputationCol}, names...))
}

// ReadFile loads a table, choosing the format from the path.  Directories
// hold binary columns, and .db or .sqlite files are read as imputation 1
// of the imputed table.
func ReadFile(ctx context.Context, path string) (*utils.Table, error) {

	if fi, err := os.Stat(path); err != nil {
		return nil, err
	} else if fi.IsDir() {
		return ReadBCols(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(path)
	case ".db", ".sqlite":
		return ReadSQLite(ctx, path, SQLiteTable, 1)
	}

	return nil, fmt.Errorf("%s: unknown file type: %w", path, ErrFormat)
}

// WriteFile stores one or more completed data sets.  A single CSV file
// holds the stacked tables when there is more than one, workbooks get one
// sheet per table, and any other path without an extension becomes a
// directory of binary columns with one imp_NNN subdirectory per table.
func WriteFile(ctx context.Context, path string, tables []*utils.Table) error {

	if len(tables) == 0 {
		return fmt.Errorf("no tables: %w", ErrFormat)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		tb := tables[0]
		if len(tables) > 1 {
			var err error
			if tb, err = Stack(tables); err != nil {
				return err
			}
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := WriteCSV(f, tb); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case ".xlsx":
		return WriteXLSX(path, tables)
	case ".db", ".sqlite":
		return WriteSQLite(ctx, path, SQLiteTable, tables)
	case "":
		if len(tables) == 1 {
			return WriteBCols(path, tables[0])
		}
		for m, tb := range tables {
			if err := WriteBCols(filepath.Join(path, fmt.Sprintf("imp_%03d", m+1)), tb); err != nil {
				return err
			}
		}
		return nil
	}

	return fmt.Errorf("%s: unknown file type: %w", path, ErrFormat)
}
