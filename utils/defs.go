package utils

// Obs describes one subject in the data set.
type Obs struct {

	// Position of the subject in the source table
	Row int

	// Observed value of the covariate, the smaller of the true value and
	// the censoring threshold
	Time float64

	// Indicator that Time is the true covariate value (uncensored)
	Event bool

	// Fully observed predictors of the survival model, in the order of
	// the fitted coefficients
	Z []float64

	// Survival probability at Time, NaN until the curve has been filled
	Surv float64

	// Conditional mean of the covariate, equal to Time when uncensored
	Imp float64
}

// Censored returns true if only a lower bound on the covariate is known.
func (o *Obs) Censored() bool {
	return !o.Event
}
