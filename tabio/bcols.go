package tabio

import (
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/brookluers/cmimpute/utils"
)

// dtypesFile lists the columns of a binary column directory.
const dtypesFile = "dtypes.json"

// colWriter writes one variable to a gzip compressed binary column file.
type colWriter struct {

	// Write directly to the file
	fw io.WriteCloser

	// Write compressed data to the file
	zw *gzip.Writer
}

func newColWriter(dir, name string) (*colWriter, error) {
	fw, err := os.Create(filepath.Join(dir, name+".bin.gz"))
	if err != nil {
		return nil, err
	}
	return &colWriter{fw: fw, zw: gzip.NewWriter(fw)}, nil
}

// Close closes the io writers.
func (cw *colWriter) Close() error {
	// order is important here
	zerr := cw.zw.Close()
	ferr := cw.fw.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}

// WriteBCols stores the table in dir as one <name>.bin.gz file of little
// endian float64 values per column, with the column names and types in
// dtypes.json.
func WriteBCols(dir string, tb *utils.Table) error {

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dt := make(map[string]string)
	for j, na := range tb.Names() {
		cw, err := newColWriter(dir, na)
		if err != nil {
			return err
		}
		werr := binary.Write(cw.zw, binary.LittleEndian, tb.Data()[j])
		if cerr := cw.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return fmt.Errorf("column %q: %w", na, werr)
		}
		dt[na] = "float64"
	}

	out, err := os.Create(filepath.Join(dir, dtypesFile))
	if err != nil {
		return err
	}
	if err := json.NewEncoder(out).Encode(&dt); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ReadBCols loads a table written by WriteBCols.  Columns are ordered by
// name.
func ReadBCols(dir string) (*utils.Table, error) {

	fid, err := os.Open(filepath.Join(dir, dtypesFile))
	if err != nil {
		return nil, err
	}
	defer fid.Close()

	dt := make(map[string]string)
	if err := json.NewDecoder(fid).Decode(&dt); err != nil {
		return nil, fmt.Errorf("%s: %w", dtypesFile, err)
	}

	var names []string
	for na, ty := range dt {
		if ty != "float64" {
			return nil, fmt.Errorf("column %q has type %s: %w", na, ty, ErrFormat)
		}
		names = append(names, na)
	}
	sort.Strings(names)

	cols := make([][]float64, len(names))
	for j, na := range names {
		if cols[j], err = readBCol(filepath.Join(dir, na+".bin.gz")); err != nil {
			return nil, fmt.Errorf("column %q: %w", na, err)
		}
	}

	return utils.NewTable(cols, names)
}

func readBCol(path string) ([]float64, error) {

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer g.Close()

	var x []float64
	for {
		var v float64
		err := binary.Read(g, binary.LittleEndian, &v)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
		x = append(x, v)
	}

	return x, nil
}
