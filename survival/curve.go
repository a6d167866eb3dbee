// Package survival holds the survival curves used to impute a censored
// covariate: Kaplan-Meier and Cox fits, the Breslow baseline, gap
// interpolation and tail extrapolation.
package survival

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNoEvents is returned when no uncensored observation exists, so
	// that no survival curve can be estimated.
	ErrNoEvents = errors.New("no uncensored observations")

	// ErrLength is returned when input columns differ in length.
	ErrLength = errors.New("input lengths differ")
)

// Curve is a survival step function.  Time is increasing and Surv is the
// probability of exceeding the corresponding time.
type Curve struct {
	Time []float64
	Surv []float64
}

// Len returns the number of points on the curve.
func (c *Curve) Len() int {
	return len(c.Time)
}

// Lookup returns a map from time to survival probability.  If a time
// occurs more than once the last value is kept.
func (c *Curve) Lookup() map[float64]float64 {
	m := make(map[float64]float64, len(c.Time))
	for i, t := range c.Time {
		m[t] = c.Surv[i]
	}
	return m
}

// Monotone returns true if the survival probabilities never increase.
func (c *Curve) Monotone() bool {
	for i := 1; i < len(c.Surv); i++ {
		if c.Surv[i] > c.Surv[i-1] {
			return false
		}
	}
	return true
}

// Fit is a fitted survival model for the censored covariate.  It is
// either a *KaplanMeier (no adjustment) or a *Cox (covariate adjusted).
type Fit interface {
	isFit()
}

// KaplanMeier is the product-limit estimate of the marginal survival
// curve.
type KaplanMeier struct {
	Curve
}

func (*KaplanMeier) isFit() {}

// Cox is a fitted proportional hazards model.
type Cox struct {

	// Covariate names, in the order of Coef
	Names []string

	// Log hazard ratios
	Coef []float64

	// Inverse of the observed information at Coef
	Cov *mat.SymDense

	// Maximised log partial likelihood
	LogLike float64
}

func (*Cox) isFit() {}

// HazardRatio returns exp(Coef·z).
func (c *Cox) HazardRatio(z []float64) float64 {
	return math.Exp(floats.Dot(c.Coef, z))
}

// StdErr returns the standard errors of the coefficients.
func (c *Cox) StdErr() []float64 {
	se := make([]float64, len(c.Coef))
	for j := range se {
		se[j] = math.Sqrt(c.Cov.At(j, j))
	}
	return se
}
