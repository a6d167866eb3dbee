package tabio

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/brookluers/cmimpute/utils"
)

// ImputationCol identifies the completed data set of a stacked row.
const ImputationCol = "imputation"

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_busy_timeout=10000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// WriteSQLite stores the tables in the SQL table name of the database at
// path, replacing it if it exists.  Rows carry the index of their table,
// starting at 1, in an imputation column.  Missing values become NULL.
func WriteSQLite(ctx context.Context, path, name string, tables []*utils.Table) error {

	if len(tables) == 0 {
		return fmt.Errorf("no tables: %w", ErrFormat)
	}
	names := tables[0].Names()

	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	cols := []string{quoteIdent(ImputationCol) + " INTEGER NOT NULL"}
	qn := []string{quoteIdent(ImputationCol)}
	ph := []string{"?"}
	for _, na := range names {
		cols = append(cols, quoteIdent(na)+" REAL")
		qn = append(qn, quoteIdent(na))
		ph = append(ph, "?")
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return err
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(cols, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(name), strings.Join(qn, ", "), strings.Join(ph, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]interface{}, len(names)+1)
	for m, tb := range tables {
		data := make([][]float64, len(names))
		for j, na := range names {
			if data[j], err = tb.Col(na); err != nil {
				return fmt.Errorf("table %d: %w", m+1, err)
			}
		}
		args[0] = m + 1
		for i := 0; i < tb.NumRows(); i++ {
			for j := range data {
				if v := data[j][i]; math.IsNaN(v) {
					args[j+1] = nil
				} else {
					args[j+1] = v
				}
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("failed to insert row: %w", err)
			}
		}
	}

	return tx.Commit()
}

// ReadSQLite loads one imputation from a table written by WriteSQLite.
// The imputation column is dropped.
func ReadSQLite(ctx context.Context, path, name string, imputation int) (*utils.Table, error) {

	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? ORDER BY rowid", quoteIdent(name), quoteIdent(ImputationCol))
	rows, err := db.QueryContext(ctx, q, imputation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	cols := make([][]float64, len(names))
	vals := make([]sql.NullFloat64, len(names))
	ptrs := make([]interface{}, len(names))
	for j := range vals {
		ptrs[j] = &vals[j]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for j, v := range vals {
			if v.Valid {
				cols[j] = append(cols[j], v.Float64)
			} else {
				cols[j] = append(cols[j], math.NaN())
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var keep [][]float64
	var kept []string
	for j, na := range names {
		if na == ImputationCol {
			continue
		}
		if cols[j] == nil {
			cols[j] = []float64{}
		}
		keep = append(keep, cols[j])
		kept = append(kept, na)
	}

	return utils.NewTable(keep, kept)
}
