package impute

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brookluers/cmimpute/pool"
	"github.com/brookluers/cmimpute/survival"
	"github.com/brookluers/cmimpute/utils"
)

// TestSimulatedCoxImputation imputes a censored Exponential covariate
// with a binary predictor and checks the downstream regression.
func TestSimulatedCoxImputation(t *testing.T) {

	tb := simData(t, 1000, 2024)
	cfg := Config{
		Time:       "w",
		Event:      "delta",
		Covariates: []string{"z"},
		Tail:       survival.Expo{},
		Log:        quietLogger(),
	}

	fit, err := FitModel(tb, cfg)
	require.NoError(t, err)
	cox := fit.(*survival.Cox)
	assert.Less(t, cox.Coef[0], 0.0, "log hazard ratio should be negative")

	res, err := ImputeOne(fit, tb, cfg)
	require.NoError(t, err)

	x, _ := tb.Col("x")
	ncens := 0
	for i, o := range res.Obs {
		if o.Event {
			require.Equal(t, x[i], o.Imp)
			continue
		}
		ncens++
		require.False(t, math.IsNaN(o.Imp) || math.IsInf(o.Imp, 0), "row %d", i)
		require.GreaterOrEqual(t, o.Imp, o.Time, "row %d", i)
	}
	assert.Greater(t, ncens, 0)

	f, err := pool.ParseFormula("y ~ imp + z")
	require.NoError(t, err)
	ols, err := pool.FitOLS(res.Table, f)
	require.NoError(t, err)
	assert.Greater(t, ols.Coef[1], 0.0, "imp")
	assert.Greater(t, ols.Coef[2], 0.0, "z")
}

// TestSimulatedMultipleImputation runs the bootstrap and pools the
// regressions.
func TestSimulatedMultipleImputation(t *testing.T) {

	tb := simData(t, 500, 99)
	cfg := Config{Time: "w", Event: "delta", Covariates: []string{"z"}, Log: quietLogger()}
	f, err := pool.ParseFormula("y ~ imp + z")
	require.NoError(t, err)

	run := func() *pool.Pooled {
		res, err := Bootstrap(context.Background(), tb, cfg, BootConfig{M: 4, Seed: 8})
		require.NoError(t, err)
		tables := make([]*utils.Table, len(res))
		for i, r := range res {
			tables[i] = r.Table
		}
		pl, err := pool.Rubin(tables, f)
		require.NoError(t, err)
		return pl
	}

	p1 := run()
	p2 := run()
	assert.Equal(t, p1.Coef, p2.Coef)
	assert.Equal(t, p1.Var, p2.Var)

	for _, na := range p1.Names {
		assert.GreaterOrEqual(t, p1.Var[na], p1.Within[na])
	}
	assert.Greater(t, p1.Coef["imp"], 0.0)
}
