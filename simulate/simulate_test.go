package simulate

import (
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func TestInvCumHaz(t *testing.T) {
	for _, b := range []Baseline{
		Exponential{Rate: 2},
		Weibull{Shape: 1.5, Scale: 0.7},
		Gompertz{Shape: 0.3, Rate: 1.2},
	} {
		tt := b.InvCumHaz(0.8)
		var h float64
		switch b := b.(type) {
		case Exponential:
			h = b.Rate * tt
		case Weibull:
			h = b.Scale * math.Pow(tt, b.Shape)
		case Gompertz:
			h = b.Rate / b.Shape * (math.Exp(b.Shape*tt) - 1)
		}
		assert.InDelta(t, 0.8, h, 1e-12, "%T", b)
	}
}

// TestBaselineSample checks that each baseline draws times whose median
// solves hr * H(t) = log 2.
func TestBaselineSample(t *testing.T) {

	const n = 20000
	hr := 2.0
	for _, b := range []Baseline{
		Exponential{Rate: 2},
		Weibull{Shape: 1.5, Scale: 0.7},
		Gompertz{Shape: 0.3, Rate: 1.2},
	} {
		src := rand.NewPCG(11, 3)
		x := make([]float64, n)
		for i := range x {
			x[i] = b.sample(hr, src)
		}
		sort.Float64s(x)
		med := stat.Quantile(0.5, stat.Empirical, x, nil)
		want := b.InvCumHaz(math.Ln2 / hr)
		assert.InDelta(t, want, med, 0.03*want, "%T", b)
	}
}

func TestGenerate(t *testing.T) {

	cfg := Default()
	cfg.N = 4000
	tb, err := Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, Names, tb.Names())
	assert.Equal(t, cfg.N, tb.NumRows())

	x, _ := tb.Col("x")
	z, _ := tb.Col("z")
	c, _ := tb.Col("c")
	w, _ := tb.Col("w")
	delta, _ := tb.Col("delta")

	var x0 []float64
	for i := range x {
		assert.Equal(t, math.Min(x[i], c[i]), w[i])
		assert.Equal(t, x[i] <= c[i], delta[i] == 1)
		if z[i] == 0 {
			x0 = append(x0, x[i])
		}
	}

	// Exponential(5) when z = 0
	assert.InDelta(t, 0.2, stat.Mean(x0, nil), 0.02)
	assert.InDelta(t, 0.5, stat.Mean(z, nil), 0.05)

	// Same seed, same data
	tb2, err := Generate(cfg)
	require.NoError(t, err)
	y1, _ := tb.Col("y")
	y2, _ := tb2.Col("y")
	assert.True(t, floats.Equal(y1, y2))
}

func TestGenerateErrors(t *testing.T) {
	cfg := Default()
	cfg.N = 0
	_, err := Generate(cfg)
	assert.ErrorIs(t, err, ErrConfig)

	cfg = Default()
	cfg.Baseline = Weibull{Shape: -1, Scale: 1}
	_, err = Generate(cfg)
	assert.ErrorIs(t, err, ErrConfig)

	cfg = Default()
	cfg.NoiseSD = -1
	_, err = Generate(cfg)
	assert.ErrorIs(t, err, ErrConfig)

	cfg = Default()
	cfg.CensorRate = 0
	_, err = Generate(cfg)
	assert.ErrorIs(t, err, ErrConfig)
}
