package pool

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/brookluers/cmimpute/utils"
)

var (
	// ErrInconsistentCoefficients is returned when the fits to the
	// completed data sets do not share their coefficient names.
	ErrInconsistentCoefficients = errors.New("inconsistent coefficients across imputations")

	// ErrNoFits is returned when there is nothing to pool.
	ErrNoFits = errors.New("no fits to pool")
)

// Pooled is the combination of M fits by Rubin's rules.
type Pooled struct {

	// Number of completed data sets
	M int

	// Coefficient names in model order
	Names []string

	// Mean of the point estimates
	Coef map[string]float64

	// Total variance, Within + (1 + 1/M) Between
	Var map[string]float64

	// Mean of the within-fit variances
	Within map[string]float64

	// Sample variance of the point estimates, 0 when M = 1
	Between map[string]float64
}

// Combine pools the fits with Rubin's rules.
func Combine(fits []*OLSResult) (*Pooled, error) {

	if len(fits) == 0 {
		return nil, ErrNoFits
	}

	names := fits[0].Names
	for i, ft := range fits[1:] {
		if !sameNames(names, ft.Names) {
			return nil, fmt.Errorf("imputation %d has %v, imputation 0 has %v: %w",
				i+1, ft.Names, names, ErrInconsistentCoefficients)
		}
	}

	m := len(fits)
	pl := &Pooled{
		M:       m,
		Names:   append([]string(nil), names...),
		Coef:    make(map[string]float64, len(names)),
		Var:     make(map[string]float64, len(names)),
		Within:  make(map[string]float64, len(names)),
		Between: make(map[string]float64, len(names)),
	}

	est := make([]float64, m)
	wv := make([]float64, m)
	for k, na := range names {
		for i, ft := range fits {
			est[i] = ft.Coef[k]
			wv[i] = ft.Var[k]
		}

		w := stat.Mean(wv, nil)
		b := 0.0
		if m > 1 {
			b = stat.Variance(est, nil)
		}

		pl.Coef[na] = stat.Mean(est, nil)
		pl.Within[na] = w
		pl.Between[na] = b
		pl.Var[na] = w + (1+1/float64(m))*b
	}

	return pl, nil
}

// Rubin fits the linear model f to every completed data set and pools the
// fits.
func Rubin(tables []*utils.Table, f *Formula) (*Pooled, error) {

	fits := make([]*OLSResult, len(tables))
	for i, tb := range tables {
		ft, err := FitOLS(tb, f)
		if err != nil {
			return nil, fmt.Errorf("imputation %d: %w", i, err)
		}
		fits[i] = ft
	}

	return Combine(fits)
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
