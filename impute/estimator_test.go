package impute

import (
	"bytes"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/brookluers/cmimpute/survival"
	"github.com/brookluers/cmimpute/utils"
)

type EstimatorSuite struct {
	suite.Suite
	logbuf *bytes.Buffer
	log    *logrus.Logger
}

func (s *EstimatorSuite) SetupTest() {
	s.logbuf = new(bytes.Buffer)
	s.log = logrus.New()
	s.log.SetOutput(s.logbuf)
}

func TestEstimatorSuite(t *testing.T) {
	suite.Run(t, new(EstimatorSuite))
}

func (s *EstimatorSuite) table(cols map[string][]float64, names ...string) *utils.Table {
	data := make([][]float64, len(names))
	for j, na := range names {
		data[j] = cols[na]
	}
	tb, err := utils.NewTable(data, names)
	s.Require().NoError(err)
	return tb
}

func (s *EstimatorSuite) kmRun(tb *utils.Table, tail survival.TailPolicy) *Result {
	cfg := Config{Time: "w", Event: "d", Tail: tail, Log: s.log}
	fit, err := FitModel(tb, cfg)
	s.Require().NoError(err)
	s.Require().IsType(&survival.KaplanMeier{}, fit)
	res, err := ImputeOne(fit, tb, cfg)
	s.Require().NoError(err)
	return res
}

// TestUnadjustedByHand checks the conditional mean against a hand
// computation on a Kaplan-Meier curve.
func (s *EstimatorSuite) TestUnadjustedByHand() {

	// KM: 0.8 at 1 and 2, 8/15 at 3 and 4, 0 at 5
	tb := s.table(map[string][]float64{
		"w": {5, 2, 1, 4, 3},
		"d": {1, 0, 1, 0, 1},
		"y": {10, 20, 30, 40, 50},
	}, "w", "d", "y")

	res := s.kmRun(tb, survival.Expo{})

	imp, err := res.Table.Col(ImpName)
	s.Require().NoError(err)
	surv, err := res.Table.Col(SurvName)
	s.Require().NoError(err)

	// Rows keep their input order.
	s.Equal(5.0, imp[0])
	s.Equal(1.0, imp[2])
	s.Equal(3.0, imp[4])

	// Censored at 2: ((8/15+8/15)*1 + (0+8/15)*1) / (2*0.8) + 2 = 3
	s.InDelta(3.0, imp[1], 1e-12)
	// Censored at 4: no interval starts after 4
	s.Equal(4.0, imp[3])

	s.InDeltaSlice([]float64{0, 0.8, 0.8, 8. / 15, 8. / 15}, surv, 1e-12)

	y, err := res.Table.Col("y")
	s.Require().NoError(err)
	s.Equal([]float64{10, 20, 30, 40, 50}, y)
	s.Empty(res.Warnings)
}

func (s *EstimatorSuite) tailTable() *utils.Table {
	return s.table(map[string][]float64{
		"w": {1, 2, 3, 4, 6, 6},
		"d": {1, 0, 1, 0, 0, 0},
	}, "w", "d")
}

func (s *EstimatorSuite) TestTailPolicies() {

	tb := s.tailTable()

	// KM: 5/6 at 1 and 2, 5/8 at the last event time 3
	smax := 5. / 8

	s.Run("carryforward", func() {
		res := s.kmRun(tb, survival.CarryForward{})
		s.InDelta(smax, res.Obs[2].Surv, 1e-15)
		for _, o := range res.Obs[3:] {
			s.Equal(res.Obs[2].Surv, o.Surv)
		}
	})

	s.Run("zero", func() {
		res := s.kmRun(tb, survival.Zero{})
		for _, o := range res.Obs[3:] {
			s.Equal(0.0, o.Surv)
			// Nothing survives past the censored value.
			s.Equal(o.Time, o.Imp)
		}
		s.Len(res.Warnings, 1)
		s.Contains(s.logbuf.String(), "survival is zero")

		// Censored at 2: ((0+smax)*1 + 0*2) / (2*S(2)) + 2
		s.InDelta(smax/(2*5./6)+2, res.Obs[1].Imp, 1e-12)
	})

	s.Run("expo", func() {
		res := s.kmRun(tb, survival.Expo{})
		last := res.Obs[2].Surv
		s.InDelta(smax, last, 1e-15)
		s.Equal(math.Exp(4*math.Log(last)/3), res.Obs[3].Surv)
		s.InDelta(last*last, res.Obs[4].Surv, 1e-12)
	})
}

func (s *EstimatorSuite) TestInvariants() {

	tb := s.table(map[string][]float64{
		"w": {0.3, 1.2, 0.7, 2.5, 0.7, 1.9, 0.1, 3.3, 1.2, 0.9, 2.2, 0.05},
		"d": {1, 0, 1, 0, 0, 1, 0, 0, 0, 1, 1, 0},
		"z": {0, 1, 1, 0, 1, 0, 1, 1, 1, 0, 0, 0},
	}, "w", "d", "z")

	check := func(res *Result) {
		byKey := map[[2]float64]utils.Obs{}
		for _, o := range res.Obs {
			s.False(math.IsNaN(o.Surv))
			s.GreaterOrEqual(o.Surv, 0.0)
			s.LessOrEqual(o.Surv, 1.0)
			if o.Event {
				s.Equal(o.Time, o.Imp)
			} else {
				s.GreaterOrEqual(o.Imp, o.Time)
				s.False(math.IsInf(o.Imp, 0))
			}

			// Ties in time and indicator share their survival value.
			key := [2]float64{o.Time, 0}
			if o.Event {
				key[1] = 1
			}
			if prev, ok := byKey[key]; ok {
				s.Equal(prev.Surv, o.Surv)
			}
			byKey[key] = o
		}
	}

	s.Run("kaplan-meier", func() {
		for _, tail := range []survival.TailPolicy{survival.Zero{}, survival.CarryForward{}, survival.Expo{}} {
			check(s.kmRun(tb, tail))
		}
	})

	s.Run("cox", func() {
		cox := &survival.Cox{Names: []string{"z"}, Coef: []float64{0.8}}
		for _, tail := range []survival.TailPolicy{survival.Zero{}, survival.CarryForward{}, survival.Expo{}} {
			res, err := ImputeOne(cox, tb, Config{Time: "w", Event: "d", Covariates: []string{"z"}, Tail: tail, Log: s.log})
			s.Require().NoError(err)
			check(res)
			s.True(res.Curve.Monotone())

			// The censored subjects at 0.7 share time but not covariates.
			s.Equal(res.Obs[2].Surv, res.Obs[4].Surv)
		}
	})
}

// TestNullCoefficient compares a Cox fit with zero coefficients to the
// unadjusted imputation on the same baseline curve.
func (s *EstimatorSuite) TestNullCoefficient() {

	tb := s.table(map[string][]float64{
		"w": {0.5, 1.5, 1, 2, 3, 2.5, 4},
		"d": {1, 0, 1, 0, 1, 0, 0},
		"z": {1, 0, 2, 1, 0, 3, 1},
	}, "w", "d", "z")

	cox := &survival.Cox{Names: []string{"z"}, Coef: []float64{0}}
	adj, err := ImputeOne(cox, tb, Config{Time: "w", Event: "d", Covariates: []string{"z"}, Log: s.log})
	s.Require().NoError(err)

	km := &survival.KaplanMeier{Curve: *adj.Curve}
	un, err := ImputeOne(km, tb, Config{Time: "w", Event: "d", Log: s.log})
	s.Require().NoError(err)

	for i := range adj.Obs {
		s.InDelta(un.Obs[i].Imp, adj.Obs[i].Imp, 1e-12)
		s.InDelta(un.Obs[i].Surv, adj.Obs[i].Surv, 1e-12)
	}
}

func (s *EstimatorSuite) TestHazardRatioPower() {

	tb := s.table(map[string][]float64{
		"w": {1, 2, 3, 4},
		"d": {1, 0, 1, 1},
		"z": {0, 1, 0, 0},
	}, "w", "d", "z")

	beta := math.Log(2)
	cox := &survival.Cox{Names: []string{"z"}, Coef: []float64{beta}}
	res, err := ImputeOne(cox, tb, Config{Time: "w", Event: "d", Covariates: []string{"z"}, Log: s.log})
	s.Require().NoError(err)

	// Baseline at the event times 1, 3, 4
	s0 := res.Curve.Surv
	s.Require().Len(s0, 3)

	// Censored at 2 with hazard ratio 2: S(2) is the mean of S0(1), S0(3)
	// and every survival value is squared.
	sc := (s0[0] + s0[1]) / 2
	s.InDelta(sc, res.Obs[1].Surv, 1e-15)
	num := (s0[1]*s0[1] + s0[2]*s0[2]) * 1
	s.InDelta(num/(2*sc*sc)+2, res.Obs[1].Imp, 1e-12)
}

func (s *EstimatorSuite) TestBeforeFirstEvent() {

	tb := s.table(map[string][]float64{
		"w": {0.1, 1, 2, 3},
		"d": {0, 1, 0, 1},
		"z": {1, 0, 1, 0},
	}, "w", "d", "z")
	cox := &survival.Cox{Names: []string{"z"}, Coef: []float64{0.3}}

	s.Run("origin", func() {
		res, err := ImputeOne(cox, tb, Config{Time: "w", Event: "d", Covariates: []string{"z"}, Log: s.log})
		s.Require().NoError(err)
		s.Equal(1.0, res.Obs[0].Surv)
		s.Require().Len(res.Warnings, 1)
		s.Contains(res.Warnings[0], "before the first event")
	})

	s.Run("error", func() {
		_, err := ImputeOne(cox, tb, Config{Time: "w", Event: "d", Covariates: []string{"z"}, BeforeFirst: Fail, Log: s.log})
		s.ErrorIs(err, survival.ErrNoPrecedingEvent)
	})
}

func (s *EstimatorSuite) TestInputUnchanged() {

	w := []float64{3, 1, 2, 5}
	d := []float64{1, 0, 1, 0}
	tb := s.table(map[string][]float64{"w": w, "d": d}, "w", "d")

	res := s.kmRun(tb, survival.Expo{})

	s.Equal([]float64{3, 1, 2, 5}, w)
	s.Equal([]float64{1, 0, 1, 0}, d)
	s.Equal([]string{"w", "d"}, tb.Names())
	s.Equal([]string{"w", "d", SurvName, ImpName}, res.Table.Names())
}

func (s *EstimatorSuite) TestWarnings() {

	tb := s.table(map[string][]float64{
		"w": {-1, 1, 2, 3},
		"d": {1, 2, 1, 0},
	}, "w", "d")

	res := s.kmRun(tb, survival.Expo{})
	s.Len(res.Warnings, 2)
	s.Contains(s.logbuf.String(), "negative values")
	s.Contains(s.logbuf.String(), "not 0 or 1")
}

func (s *EstimatorSuite) TestErrors() {

	tb := s.table(map[string][]float64{
		"w": {1, 2, 3},
		"d": {1, 0, 1},
		"z": {0, 1, 0},
	}, "w", "d", "z")
	km, err := FitModel(tb, Config{Time: "w", Event: "d"})
	s.Require().NoError(err)

	_, err = ImputeOne(km, tb, Config{Time: "nope", Event: "d", Log: s.log})
	s.ErrorIs(err, utils.ErrMissingColumn)

	_, err = ImputeOne(km, tb, Config{Time: "w", Event: "d", Covariates: []string{"z"}, Log: s.log})
	s.ErrorIs(err, ErrFitMismatch)

	cox := &survival.Cox{Names: []string{"z"}, Coef: []float64{1}}
	_, err = ImputeOne(cox, tb, Config{Time: "w", Event: "d", Log: s.log})
	s.ErrorIs(err, ErrFitMismatch)

	// More names than coefficients
	extra := &survival.Cox{Names: []string{"z", "q"}, Coef: []float64{0.5}}
	s.NotPanics(func() {
		_, err = ImputeOne(extra, tb, Config{Time: "w", Event: "d", Covariates: []string{"z"}, Log: s.log})
	})
	s.ErrorIs(err, ErrFitMismatch)

	_, err = ImputeOne(nil, tb, Config{Time: "w", Event: "d", Log: s.log})
	s.ErrorIs(err, ErrUnknownFit)

	var nokm *survival.KaplanMeier
	_, err = ImputeOne(nokm, tb, Config{Time: "w", Event: "d", Log: s.log})
	s.ErrorIs(err, ErrUnknownFit)

	cens := s.table(map[string][]float64{"w": {1, 2}, "d": {0, 0}}, "w", "d")
	flat := &survival.KaplanMeier{Curve: survival.Curve{Time: []float64{1, 2}, Surv: []float64{1, 1}}}
	_, err = ImputeOne(flat, cens, Config{Time: "w", Event: "d", Log: s.log})
	s.ErrorIs(err, survival.ErrNoEvents)

	nan := s.table(map[string][]float64{"w": {1, math.NaN()}, "d": {1, 0}}, "w", "d")
	_, err = ImputeOne(km, nan, Config{Time: "w", Event: "d", Log: s.log})
	s.ErrorIs(err, ErrMissingValue)
}

func (s *EstimatorSuite) TestParseBeforeFirst() {
	bf, err := ParseBeforeFirst("origin")
	s.Require().NoError(err)
	s.Equal(Origin, bf)

	bf, err = ParseBeforeFirst("error")
	s.Require().NoError(err)
	s.Equal(Fail, bf)

	_, err = ParseBeforeFirst("skip")
	s.ErrorIs(err, ErrUnknownBeforeFirst)
}
