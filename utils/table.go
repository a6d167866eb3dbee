package utils

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned when a named column is not in the table.
	ErrMissingColumn = errors.New("column not found")

	// ErrRaggedColumns is returned when columns differ in length.
	ErrRaggedColumns = errors.New("columns have different lengths")
)

// Table is an immutable column-major data set.  Every operation that
// changes the contents returns a new Table; column slices handed out by
// Col must not be modified by the caller.
type Table struct {
	names []string
	cols  [][]float64
	pos   map[string]int
	nrow  int
}

// NewTable builds a table from the given columns.  The slices are
// retained, not copied.
func NewTable(cols [][]float64, names []string) (*Table, error) {

	if len(cols) != len(names) {
		return nil, fmt.Errorf("%d columns but %d names", len(cols), len(names))
	}

	tb := &Table{
		names: names,
		cols:  cols,
		pos:   make(map[string]int, len(names)),
	}

	for j, na := range names {
		if _, ok := tb.pos[na]; ok {
			return nil, fmt.Errorf("duplicate column %q", na)
		}
		tb.pos[na] = j
		if j == 0 {
			tb.nrow = len(cols[j])
		} else if len(cols[j]) != tb.nrow {
			return nil, fmt.Errorf("column %q: %w", na, ErrRaggedColumns)
		}
	}

	return tb, nil
}

// Names returns the column names in order.
func (tb *Table) Names() []string {
	return tb.names
}

// Data returns the columns in the order of Names.
func (tb *Table) Data() [][]float64 {
	return tb.cols
}

// NumRows returns the number of rows.
func (tb *Table) NumRows() int {
	return tb.nrow
}

// Has returns true if the table contains the named column.
func (tb *Table) Has(name string) bool {
	_, ok := tb.pos[name]
	return ok
}

// Col returns the named column.
func (tb *Table) Col(name string) ([]float64, error) {
	j, ok := tb.pos[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrMissingColumn)
	}
	return tb.cols[j], nil
}

// With returns a copy of the table with the named column added, or
// replaced if it already exists.
func (tb *Table) With(name string, x []float64) (*Table, error) {

	if len(tb.names) > 0 && len(x) != tb.nrow {
		return nil, fmt.Errorf("column %q has %d rows, table has %d: %w",
			name, len(x), tb.nrow, ErrRaggedColumns)
	}

	names := append([]string(nil), tb.names...)
	cols := append([][]float64(nil), tb.cols...)

	if j, ok := tb.pos[name]; ok {
		cols[j] = x
	} else {
		names = append(names, name)
		cols = append(cols, x)
	}

	return NewTable(cols, names)
}

// Take returns a new table holding the rows at the given positions, in
// the given order.  Positions may repeat.
func (tb *Table) Take(idx []int) *Table {

	cols := make([][]float64, len(tb.cols))
	for j, c := range tb.cols {
		z := make([]float64, len(idx))
		for i, k := range idx {
			z[i] = c[k]
		}
		cols[j] = z
	}

	return &Table{
		names: tb.names,
		cols:  cols,
		pos:   tb.pos,
		nrow:  len(idx),
	}
}
