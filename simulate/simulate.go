// Package simulate generates data sets with a right-censored covariate
// drawn from a proportional hazards model.
package simulate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/brookluers/cmimpute/utils"
)

// ErrConfig is returned for an invalid simulation configuration.
var ErrConfig = errors.New("invalid simulation configuration")

// Baseline is a baseline hazard with an invertible cumulative hazard.
type Baseline interface {

	// InvCumHaz returns the time at which the cumulative hazard reaches h.
	InvCumHaz(h float64) float64

	// sample draws a time whose hazard is the baseline times hr.
	sample(hr float64, src rand.Source) float64

	valid() bool
}

// Exponential has constant hazard Rate.
type Exponential struct {
	Rate float64
}

func (b Exponential) InvCumHaz(h float64) float64 {
	return h / b.Rate
}

func (b Exponential) sample(hr float64, src rand.Source) float64 {
	return distuv.Exponential{Rate: b.Rate * hr, Src: src}.Rand()
}

func (b Exponential) valid() bool { return b.Rate > 0 }

// Weibull has cumulative hazard Scale * t^Shape.
type Weibull struct {
	Shape, Scale float64
}

func (b Weibull) InvCumHaz(h float64) float64 {
	return math.Pow(h/b.Scale, 1/b.Shape)
}

// sample uses the distuv parametrisation, cumulative hazard (t/Lambda)^K.
func (b Weibull) sample(hr float64, src rand.Source) float64 {
	return distuv.Weibull{K: b.Shape, Lambda: math.Pow(b.Scale*hr, -1/b.Shape), Src: src}.Rand()
}

func (b Weibull) valid() bool { return b.Shape > 0 && b.Scale > 0 }

// Gompertz has hazard Rate * exp(Shape * t).
type Gompertz struct {
	Shape, Rate float64
}

func (b Gompertz) InvCumHaz(h float64) float64 {
	return math.Log1p(b.Shape*h/b.Rate) / b.Shape
}

// sample inverts the cumulative hazard at an exponential draw; distuv has
// no Gompertz distribution.
func (b Gompertz) sample(hr float64, src rand.Source) float64 {
	return b.InvCumHaz(distuv.Exponential{Rate: hr, Src: src}.Rand())
}

func (b Gompertz) valid() bool { return b.Shape > 0 && b.Rate > 0 }

// Config describes a simulated data set.  The covariate X has hazard
// h0(t) exp(LogHR z) given a binary z, and is censored by an independent
// exponential time with rate CensorRate.  The outcome is
// y = Intercept + Slope x + ZEffect z + NoiseSD e with standard normal e.
type Config struct {
	N        int
	Seed     uint64
	Baseline Baseline

	// Probability that z = 1
	ZProb float64

	LogHR      float64
	CensorRate float64

	Intercept, Slope, ZEffect, NoiseSD float64
}

// Default matches the usual validation scenario: Exponential(5) with a
// log hazard ratio of -2, Exponential(4) censoring and y = 1 + x + 0.25 z + e.
func Default() Config {
	return Config{
		N:          1000,
		Seed:       1,
		Baseline:   Exponential{Rate: 5},
		ZProb:      0.5,
		LogHR:      -2,
		CensorRate: 4,
		Intercept:  1,
		Slope:      1,
		ZEffect:    0.25,
		NoiseSD:    1,
	}
}

// Column names of a generated data set.
var Names = []string{"x", "z", "c", "w", "delta", "y"}

// Generate returns a data set with columns x (true value), z, c
// (censoring time), w (observed value), delta (1 if uncensored) and y.
func Generate(cfg Config) (*utils.Table, error) {

	switch {
	case cfg.N < 1:
		return nil, fmt.Errorf("N=%d: %w", cfg.N, ErrConfig)
	case cfg.Baseline == nil || !cfg.Baseline.valid():
		return nil, fmt.Errorf("baseline %+v: %w", cfg.Baseline, ErrConfig)
	case cfg.CensorRate <= 0:
		return nil, fmt.Errorf("censoring rate %g: %w", cfg.CensorRate, ErrConfig)
	case cfg.ZProb < 0 || cfg.ZProb > 1:
		return nil, fmt.Errorf("z probability %g: %w", cfg.ZProb, ErrConfig)
	case cfg.NoiseSD < 0:
		return nil, fmt.Errorf("noise standard deviation %g: %w", cfg.NoiseSD, ErrConfig)
	}

	src := rand.NewPCG(cfg.Seed, 0x5eed)
	zdist := distuv.Bernoulli{P: cfg.ZProb, Src: src}
	cdist := distuv.Exponential{Rate: cfg.CensorRate, Src: src}
	noise := distuv.Normal{Mu: 0, Sigma: cfg.NoiseSD, Src: src}

	cols := make([][]float64, len(Names))
	for j := range cols {
		cols[j] = make([]float64, cfg.N)
	}
	x, z, c, w, delta, y := cols[0], cols[1], cols[2], cols[3], cols[4], cols[5]

	for i := 0; i < cfg.N; i++ {
		z[i] = zdist.Rand()
		x[i] = cfg.Baseline.sample(math.Exp(cfg.LogHR*z[i]), src)
		c[i] = cdist.Rand()
		w[i] = math.Min(x[i], c[i])
		if x[i] <= c[i] {
			delta[i] = 1
		}
		y[i] = cfg.Intercept + cfg.Slope*x[i] + cfg.ZEffect*z[i] + noise.Rand()
	}

	return utils.NewTable(cols, Names)
}
