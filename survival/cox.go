package survival

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// ErrSingularInformation is returned when the information matrix of a Cox
// fit cannot be inverted, typically because a covariate is constant.
var ErrSingularInformation = errors.New("singular information matrix")

// DefaultCoxSettings controls the Newton-Raphson iterations of FitCox
// when no settings are given.
var DefaultCoxSettings = &optimize.Settings{
	GradientThreshold: 1e-8,
	MajorIterations:   200,
}

// phlik evaluates the Breslow log partial likelihood.
type phlik struct {

	// Centred covariates, one slice per variable
	x [][]float64

	event []bool

	// Subjects sorted by time, and the end positions of the tied groups
	ii  []int
	grp []int
}

func newPHLik(time []float64, event []bool, x [][]float64) *phlik {

	ii := order(time)
	var grp []int
	for i := 1; i <= len(ii); i++ {
		if i == len(ii) || time[ii[i]] != time[ii[i-1]] {
			grp = append(grp, i)
		}
	}

	return &phlik{
		x:     x,
		event: event,
		ii:    ii,
		grp:   grp,
	}
}

// eval returns the negative log partial likelihood at beta.  If grad or
// hess are non-nil the corresponding derivatives of the negative log
// likelihood are written into them.
func (pl *phlik) eval(beta, grad []float64, hess *mat.SymDense) float64 {

	p := len(beta)
	s1 := make([]float64, p)
	s2 := make([]float64, p*p)
	var s0, ll float64

	if grad != nil {
		for j := range grad {
			grad[j] = 0
		}
	}
	h := make([]float64, p*p)

	lp := func(i int) float64 {
		v := 0.0
		for j := range beta {
			v += beta[j] * pl.x[j][i]
		}
		return v
	}

	// Groups from the latest time to the earliest, so that the
	// accumulators hold the risk set.
	for g := len(pl.grp) - 1; g >= 0; g-- {
		lo := 0
		if g > 0 {
			lo = pl.grp[g-1]
		}
		hi := pl.grp[g]

		for _, i := range pl.ii[lo:hi] {
			w := math.Exp(lp(i))
			s0 += w
			for j := 0; j < p; j++ {
				s1[j] += w * pl.x[j][i]
				for k := 0; k <= j; k++ {
					s2[j*p+k] += w * pl.x[j][i] * pl.x[k][i]
				}
			}
		}

		for _, i := range pl.ii[lo:hi] {
			if !pl.event[i] {
				continue
			}
			ll += lp(i) - math.Log(s0)
			if grad != nil {
				for j := 0; j < p; j++ {
					grad[j] -= pl.x[j][i] - s1[j]/s0
				}
			}
			if hess != nil {
				for j := 0; j < p; j++ {
					for k := 0; k <= j; k++ {
						h[j*p+k] += s2[j*p+k]/s0 - s1[j]*s1[k]/(s0*s0)
					}
				}
			}
		}
	}

	if hess != nil {
		for j := 0; j < p; j++ {
			for k := 0; k <= j; k++ {
				hess.SetSym(j, k, h[j*p+k])
			}
		}
	}

	return -ll
}

// center returns mean-centred copies of the columns of x.  The partial
// likelihood does not depend on the location of the covariates, but
// centring keeps the risk-set sums away from overflow.
func center(x [][]float64) [][]float64 {
	xc := make([][]float64, len(x))
	for j, col := range x {
		mn := stat.Mean(col, nil)
		z := make([]float64, len(col))
		for i := range col {
			z[i] = col[i] - mn
		}
		xc[j] = z
	}
	return xc
}

// stationary returns true if the score is negligible at beta.
func stationary(pl *phlik, beta []float64) bool {
	g := make([]float64, len(beta))
	pl.eval(beta, g, nil)
	return floats.Norm(g, math.Inf(1)) < 1e-6
}

// FitCox fits a proportional hazards model for time with the given
// covariate columns, using the Breslow method for ties.  settings may be
// nil.
func FitCox(time []float64, event []bool, x [][]float64, names []string, settings *optimize.Settings) (*Cox, error) {

	if len(x) == 0 {
		return nil, fmt.Errorf("cox: no covariates")
	}
	if len(names) != len(x) {
		return nil, fmt.Errorf("cox: %d covariates, %d names: %w", len(x), len(names), ErrLength)
	}
	if len(event) != len(time) {
		return nil, fmt.Errorf("cox: %w", ErrLength)
	}
	for j := range x {
		if len(x[j]) != len(time) {
			return nil, fmt.Errorf("cox: covariate %q: %w", names[j], ErrLength)
		}
	}

	nevent := 0
	for _, e := range event {
		if e {
			nevent++
		}
	}
	if nevent == 0 {
		return nil, fmt.Errorf("cox: %w", ErrNoEvents)
	}

	if settings == nil {
		settings = DefaultCoxSettings
	}
	st := *settings

	pl := newPHLik(time, event, center(x))
	p := len(x)

	problem := optimize.Problem{
		Func: func(beta []float64) float64 {
			return pl.eval(beta, nil, nil)
		},
		Grad: func(grad, beta []float64) {
			pl.eval(beta, grad, nil)
		},
		Hess: func(hess *mat.SymDense, beta []float64) {
			pl.eval(beta, nil, hess)
		},
	}

	result, err := optimize.Minimize(problem, make([]float64, p), &st, &optimize.Newton{})
	if err != nil {
		// A line search that stalls at the optimum is not a failure.
		if result == nil || !stationary(pl, result.X) {
			return nil, fmt.Errorf("cox: %w", err)
		}
	}

	info := mat.NewSymDense(p, nil)
	pl.eval(result.X, nil, info)

	var chol mat.Cholesky
	if ok := chol.Factorize(info); !ok {
		return nil, fmt.Errorf("cox: %w", ErrSingularInformation)
	}
	cov := mat.NewSymDense(p, nil)
	if err := chol.InverseTo(cov); err != nil {
		return nil, fmt.Errorf("cox: %w", ErrSingularInformation)
	}

	return &Cox{
		Names:   append([]string(nil), names...),
		Coef:    append([]float64(nil), result.X...),
		Cov:     cov,
		LogLike: -result.F,
	}, nil
}
