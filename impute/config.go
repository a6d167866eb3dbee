package impute

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/brookluers/cmimpute/survival"
)

// BeforeFirst decides what happens to a censored time that precedes every
// uncensored time, where no survival value is available to interpolate.
type BeforeFirst string

const (
	// Origin assigns survival probability 1, the value every survival
	// curve takes before its first drop, and records a warning.
	Origin BeforeFirst = "origin"

	// Fail aborts the imputation with survival.ErrNoPrecedingEvent.
	Fail BeforeFirst = "error"
)

// ErrUnknownBeforeFirst is returned by ParseBeforeFirst.
var ErrUnknownBeforeFirst = errors.New("unknown before-first policy")

// ParseBeforeFirst returns the policy with the given name.
func ParseBeforeFirst(name string) (BeforeFirst, error) {
	switch BeforeFirst(name) {
	case Origin, Fail:
		return BeforeFirst(name), nil
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnknownBeforeFirst)
}

// Default output column names.
const (
	SurvName = "surv"
	ImpName  = "imp"
)

// Config describes the columns and policies of an imputation.
type Config struct {

	// Column holding the observed value, min(X, C)
	Time string

	// Column holding the event indicator, 1 if uncensored
	Event string

	// Fully observed predictors of the survival model.  When empty the
	// Kaplan-Meier estimator is used, otherwise a Cox model.
	Covariates []string

	// Tail extrapolation policy, survival.Expo if nil
	Tail survival.TailPolicy

	// Policy for censored times before the first event, Origin if empty
	BeforeFirst BeforeFirst

	// Names of the added columns, SurvName and ImpName if empty
	SurvCol string
	ImpCol  string

	// Destination of warnings, the logrus standard logger if nil
	Log logrus.FieldLogger
}

func (cfg Config) withDefaults() Config {
	if cfg.Tail == nil {
		cfg.Tail = survival.Expo{}
	}
	if cfg.BeforeFirst == "" {
		cfg.BeforeFirst = Origin
	}
	if cfg.SurvCol == "" {
		cfg.SurvCol = SurvName
	}
	if cfg.ImpCol == "" {
		cfg.ImpCol = ImpName
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	return cfg
}
