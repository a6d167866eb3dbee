package impute

import (
	"fmt"

	"github.com/brookluers/cmimpute/survival"
	"github.com/brookluers/cmimpute/utils"
)

// FitModel fits the survival model for the time column of data: a
// Kaplan-Meier curve without covariates, a Cox model otherwise.
func FitModel(data *utils.Table, cfg Config) (survival.Fit, error) {

	time, err := data.Col(cfg.Time)
	if err != nil {
		return nil, err
	}
	status, err := data.Col(cfg.Event)
	if err != nil {
		return nil, err
	}
	event := make([]bool, len(status))
	for i, v := range status {
		event[i] = v == 1
	}

	if len(cfg.Covariates) == 0 {
		km, err := survival.FitKaplanMeier(time, event)
		if err != nil {
			return nil, err
		}
		return km, nil
	}

	x := make([][]float64, len(cfg.Covariates))
	for j, na := range cfg.Covariates {
		if x[j], err = data.Col(na); err != nil {
			return nil, err
		}
	}

	cox, err := survival.FitCox(time, event, x, cfg.Covariates, nil)
	if err != nil {
		return nil, fmt.Errorf("fitting %s on %v: %w", cfg.Time, cfg.Covariates, err)
	}

	return cox, nil
}

// SurvivalCurve returns the curve the imputation of data works from: the
// Kaplan-Meier estimate, or the Breslow baseline of a Cox model.
func SurvivalCurve(fit survival.Fit, data *utils.Table, cfg Config) (*survival.Curve, error) {

	cfg = cfg.withDefaults()
	obs, err := readObs(data, cfg, &diag{log: cfg.Log})
	if err != nil {
		return nil, err
	}

	_, cv, err := workingCurve(fit, obs, cfg)
	return cv, err
}

// Reverse returns a copy of data with the event indicator flipped, so that
// the censoring times become the events.
func Reverse(data *utils.Table, event string) (*utils.Table, error) {

	status, err := data.Col(event)
	if err != nil {
		return nil, err
	}
	rev := make([]float64, len(status))
	for i, v := range status {
		rev[i] = 1 - v
	}

	return data.With(event, rev)
}
