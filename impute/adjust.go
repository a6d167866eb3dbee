package impute

import (
	"math"

	"github.com/brookluers/cmimpute/survival"
)

// adjustment maps the working survival curve to the curve of a subject
// with covariates z.
type adjustment interface {
	subject(z []float64) func(s float64) float64
}

// unadjusted uses the Kaplan-Meier curve for every subject.
type unadjusted struct{}

func (unadjusted) subject([]float64) func(float64) float64 {
	return func(s float64) float64 { return s }
}

// covariateAdjusted raises the baseline curve to the hazard ratio of the
// subject, S(t|z) = S0(t)^exp(β·z).
type covariateAdjusted struct {
	cox *survival.Cox
}

func (a covariateAdjusted) subject(z []float64) func(float64) float64 {
	hr := a.cox.HazardRatio(z)
	return func(s float64) float64 { return math.Pow(s, hr) }
}
