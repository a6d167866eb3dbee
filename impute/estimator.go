// Package impute replaces right-censored covariate values by their
// conditional means given a fitted survival model, once or over bootstrap
// resamples.
package impute

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/brookluers/cmimpute/survival"
	"github.com/brookluers/cmimpute/utils"
)

var (
	// ErrUnknownFit is returned for a nil or unrecognised survival fit.
	ErrUnknownFit = errors.New("unrecognised survival fit")

	// ErrFitMismatch is returned when the fit does not match the
	// configured covariates.
	ErrFitMismatch = errors.New("fit does not match covariates")

	// ErrMissingValue is returned when an input column holds NaN.
	ErrMissingValue = errors.New("missing value")

	// ErrZeroSurvival is returned when a censored subject has zero
	// survival probability but positive survival mass beyond it.
	ErrZeroSurvival = errors.New("zero survival probability at censored time")
)

// Result is one completed data set.
type Result struct {

	// Copy of the input with survival and imputed value columns added
	Table *utils.Table

	// Subjects in input row order
	Obs []utils.Obs

	// Kaplan-Meier or baseline survival curve used for the imputation
	Curve *survival.Curve

	// Data quality problems that did not stop the imputation
	Warnings []string
}

// ImputeOne replaces every censored value of the time column of data by
// its conditional mean given the fitted survival model.  data is not
// modified.
func ImputeOne(fit survival.Fit, data *utils.Table, cfg Config) (*Result, error) {

	cfg = cfg.withDefaults()
	dg := &diag{log: cfg.Log}

	obs, err := readObs(data, cfg, dg)
	if err != nil {
		return nil, err
	}

	adj, curve, err := workingCurve(fit, obs, cfg)
	if err != nil {
		return nil, err
	}
	checkCurve(curve, dg)

	rows := sortByTime(join(obs, curve))

	rows, err = fillInterior(rows, cfg.BeforeFirst, dg)
	if err != nil {
		return nil, err
	}

	rows, err = survival.Extend(rows, cfg.Tail)
	if err != nil {
		return nil, fmt.Errorf("tail %s: %w", cfg.Tail.Name(), err)
	}

	rows, err = conditionalMeans(rows, distinct(rows), adj, dg)
	if err != nil {
		return nil, err
	}

	return assemble(data, rows, curve, cfg, dg)
}

// readObs extracts the subjects from data.
func readObs(data *utils.Table, cfg Config, dg *diag) ([]utils.Obs, error) {

	time, err := data.Col(cfg.Time)
	if err != nil {
		return nil, err
	}
	status, err := data.Col(cfg.Event)
	if err != nil {
		return nil, err
	}
	z := make([][]float64, len(cfg.Covariates))
	for j, na := range cfg.Covariates {
		if z[j], err = data.Col(na); err != nil {
			return nil, err
		}
	}

	var neg, nonbin counter
	obs := make([]utils.Obs, len(time))
	for i := range obs {
		if math.IsNaN(time[i]) || math.IsNaN(status[i]) {
			return nil, fmt.Errorf("row %d: %w", i, ErrMissingValue)
		}
		if time[i] < 0 {
			neg.add(i)
		}
		if status[i] != 0 && status[i] != 1 {
			nonbin.add(i)
		}

		o := utils.Obs{
			Row:   i,
			Time:  time[i],
			Event: status[i] == 1,
			Surv:  math.NaN(),
		}
		if len(z) > 0 {
			o.Z = make([]float64, len(z))
			for j := range z {
				if math.IsNaN(z[j][i]) {
					return nil, fmt.Errorf("row %d, column %q: %w", i, cfg.Covariates[j], ErrMissingValue)
				}
				o.Z[j] = z[j][i]
			}
		}
		obs[i] = o
	}

	dg.countf(neg.n, neg.first, "negative values in %q", cfg.Time)
	dg.countf(nonbin.n, nonbin.first, "event indicator %q not 0 or 1, treated as censored", cfg.Event)

	return obs, nil
}

// workingCurve returns the curve that is joined onto the subjects, and
// the adjustment that maps it to the curve of each subject.
func workingCurve(fit survival.Fit, obs []utils.Obs, cfg Config) (adjustment, *survival.Curve, error) {

	switch f := fit.(type) {
	case *survival.KaplanMeier:
		if f == nil {
			return nil, nil, ErrUnknownFit
		}
		if len(cfg.Covariates) > 0 {
			return nil, nil, fmt.Errorf("kaplan-meier fit with covariates %v: %w", cfg.Covariates, ErrFitMismatch)
		}
		return unadjusted{}, &f.Curve, nil

	case *survival.Cox:
		if f == nil {
			return nil, nil, ErrUnknownFit
		}
		if len(f.Coef) != len(cfg.Covariates) || len(f.Names) != len(cfg.Covariates) {
			return nil, nil, fmt.Errorf("%d coefficients named %v for covariates %v: %w",
				len(f.Coef), f.Names, cfg.Covariates, ErrFitMismatch)
		}
		for j, na := range f.Names {
			if na != cfg.Covariates[j] {
				return nil, nil, fmt.Errorf("coefficient %q for covariate %q: %w", na, cfg.Covariates[j], ErrFitMismatch)
			}
		}

		time := make([]float64, len(obs))
		event := make([]bool, len(obs))
		hr := make([]float64, len(obs))
		for i := range obs {
			time[i] = obs[i].Time
			event[i] = obs[i].Event
			hr[i] = f.HazardRatio(obs[i].Z)
		}
		cv, err := survival.Breslow(time, event, hr)
		if err != nil {
			return nil, nil, err
		}
		return covariateAdjusted{cox: f}, cv, nil
	}

	return nil, nil, fmt.Errorf("%T: %w", fit, ErrUnknownFit)
}

func checkCurve(cv *survival.Curve, dg *diag) {
	var bad counter
	for i, s := range cv.Surv {
		if s < 0 || s > 1 || math.IsNaN(s) {
			bad.add(i)
		}
	}
	dg.countf(bad.n, bad.first, "survival curve values outside [0, 1]")
}

// join returns a copy of obs with the survival probability at each
// observed time taken from the curve, NaN where the curve has no point.
func join(obs []utils.Obs, cv *survival.Curve) []utils.Obs {
	lookup := cv.Lookup()
	out := make([]utils.Obs, len(obs))
	for i, o := range obs {
		if s, ok := lookup[o.Time]; ok {
			o.Surv = s
		} else {
			o.Surv = math.NaN()
		}
		out[i] = o
	}
	return out
}

// sortByTime returns a copy of obs sorted by time, ties in their original
// order.
func sortByTime(obs []utils.Obs) []utils.Obs {
	out := make([]utils.Obs, len(obs))
	copy(out, obs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// fillInterior returns a copy of the sorted rows in which the missing
// survival probabilities up to the last uncensored time are interpolated.
func fillInterior(rows []utils.Obs, bf BeforeFirst, dg *diag) ([]utils.Obs, error) {

	tmax, _, err := survival.LastEvent(rows)
	if err != nil {
		return nil, err
	}

	var early counter
	out := make([]utils.Obs, len(rows))
	copy(out, rows)
	for i := range out {
		o := &out[i]
		if !math.IsNaN(o.Surv) || o.Time > tmax {
			continue
		}

		s, err := survival.Interpolate(o.Time, rows)
		if errors.Is(err, survival.ErrNoPrecedingEvent) && bf == Origin {
			early.add(o.Row)
			s, err = 1, nil
		}
		if err != nil {
			return nil, fmt.Errorf("row %d, time %g: %w", o.Row, o.Time, err)
		}
		o.Surv = s
	}

	dg.countf(early.n, early.first, "censored before the first event, survival set to 1")

	return out, nil
}

// point is one entry of the distinct survival curve table.
type point struct {
	t, s float64
}

// distinct returns the time and survival of the distinct (time, event,
// covariates, survival) rows.  rows must be sorted by time.
func distinct(rows []utils.Obs) []point {

	var pts []point
	var grp []*utils.Obs
	for i := range rows {
		r := &rows[i]
		if i == 0 || r.Time != rows[i-1].Time {
			grp = grp[:0]
		}

		dup := false
		for _, g := range grp {
			if g.Event == r.Event && g.Surv == r.Surv && floats.Equal(g.Z, r.Z) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}

		grp = append(grp, r)
		pts = append(pts, point{t: r.Time, s: r.Surv})
	}

	return pts
}

// conditionalMeans returns a copy of rows with the imputed values set.
// Uncensored rows keep their time.  A censored row at time c receives
//
//	c + Σ_{t_i > c} (S(t_{i+1}) + S(t_i)) (t_{i+1} - t_i) / (2 S(c))
//
// over consecutive points of the distinct curve, with every S mapped to
// the curve of the subject.
func conditionalMeans(rows []utils.Obs, pts []point, adj adjustment, dg *diag) ([]utils.Obs, error) {

	var flat counter
	out := make([]utils.Obs, len(rows))
	copy(out, rows)
	for i := range out {
		o := &out[i]
		if !o.Censored() {
			o.Imp = o.Time
			continue
		}

		sf := adj.subject(o.Z)
		c := o.Time

		num := 0.0
		k := sort.Search(len(pts), func(j int) bool { return pts[j].t > c })
		for ; k+1 < len(pts); k++ {
			num += (sf(pts[k+1].s) + sf(pts[k].s)) * (pts[k+1].t - pts[k].t)
		}
		den := sf(o.Surv)

		switch {
		case math.IsNaN(den):
			return nil, fmt.Errorf("row %d, time %g: %w", o.Row, c, ErrMissingValue)
		case den == 0 && num == 0:
			flat.add(o.Row)
			o.Imp = c
		case den == 0:
			return nil, fmt.Errorf("row %d, time %g: %w", o.Row, c, ErrZeroSurvival)
		default:
			o.Imp = num/(2*den) + c
		}
	}

	dg.countf(flat.n, flat.first, "censored where survival is zero, imputed at the censored value")

	return out, nil
}

// assemble restores the input order and adds the survival and imputed
// value columns to a copy of data.
func assemble(data *utils.Table, rows []utils.Obs, cv *survival.Curve, cfg Config, dg *diag) (*Result, error) {

	obs := make([]utils.Obs, len(rows))
	surv := make([]float64, len(rows))
	imp := make([]float64, len(rows))
	for _, r := range rows {
		obs[r.Row] = r
		surv[r.Row] = r.Surv
		imp[r.Row] = r.Imp
	}

	tb, err := data.With(cfg.SurvCol, surv)
	if err != nil {
		return nil, err
	}
	if tb, err = tb.With(cfg.ImpCol, imp); err != nil {
		return nil, err
	}

	return &Result{
		Table:    tb,
		Obs:      obs,
		Curve:    cv,
		Warnings: dg.warnings,
	}, nil
}
