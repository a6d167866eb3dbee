// Package pool fits linear models to completed data sets and combines
// them with Rubin's rules.
package pool

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/brookluers/cmimpute/utils"
)

// ErrFormula is returned for a formula that cannot be parsed.
var ErrFormula = errors.New("invalid formula")

// Intercept is the name of the constant term.
const Intercept = "(Intercept)"

// Formula is a linear model specification such as "y ~ imp + z + imp:z".
// A term "0" or "-1" removes the intercept.
type Formula struct {

	// Outcome variable
	Response string

	// Each term is the product of the named variables
	Terms [][]string

	// Include a constant term
	Intercept bool
}

// ParseFormula parses a formula of the form "y ~ a + b + a:b".
func ParseFormula(s string) (*Formula, error) {

	lhs, rhs, ok := strings.Cut(s, "~")
	if !ok {
		return nil, fmt.Errorf("%q has no '~': %w", s, ErrFormula)
	}

	f := &Formula{
		Response:  strings.TrimSpace(lhs),
		Intercept: true,
	}
	if f.Response == "" {
		return nil, fmt.Errorf("%q has no response: %w", s, ErrFormula)
	}

	rhs = strings.ReplaceAll(rhs, "-", "+-")
	for _, tm := range strings.Split(rhs, "+") {
		tm = strings.Join(strings.Fields(tm), "")
		switch tm {
		case "":
			continue
		case "0", "-1":
			f.Intercept = false
			continue
		case "1":
			f.Intercept = true
			continue
		}
		if strings.HasPrefix(tm, "-") {
			return nil, fmt.Errorf("term %q: %w", tm, ErrFormula)
		}
		vars := strings.Split(tm, ":")
		for _, v := range vars {
			if v == "" {
				return nil, fmt.Errorf("term %q: %w", tm, ErrFormula)
			}
		}
		f.Terms = append(f.Terms, vars)
	}

	if len(f.Terms) == 0 && !f.Intercept {
		return nil, fmt.Errorf("%q has no terms: %w", s, ErrFormula)
	}

	return f, nil
}

// Names returns the coefficient names of the model.
func (f *Formula) Names() []string {
	var na []string
	if f.Intercept {
		na = append(na, Intercept)
	}
	for _, tm := range f.Terms {
		na = append(na, strings.Join(tm, ":"))
	}
	return na
}

// Design returns the response and the design matrix of the model on tb.
func (f *Formula) Design(tb *utils.Table) ([]float64, *mat.Dense, error) {

	y, err := tb.Col(f.Response)
	if err != nil {
		return nil, nil, err
	}

	n := tb.NumRows()
	p := len(f.Names())
	x := mat.NewDense(n, p, nil)

	j := 0
	if f.Intercept {
		for i := 0; i < n; i++ {
			x.Set(i, 0, 1)
		}
		j++
	}

	for _, tm := range f.Terms {
		for i := 0; i < n; i++ {
			x.Set(i, j, 1)
		}
		for _, v := range tm {
			col, err := tb.Col(v)
			if err != nil {
				return nil, nil, err
			}
			for i := 0; i < n; i++ {
				x.Set(i, j, x.At(i, j)*col[i])
			}
		}
		j++
	}

	return y, x, nil
}
