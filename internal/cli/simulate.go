package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brookluers/cmimpute/simulate"
	"github.com/brookluers/cmimpute/tabio"
	"github.com/brookluers/cmimpute/utils"
)

var (
	simCfg      = simulate.Default()
	simBaseline string
	simShape    float64
	simRate     float64
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate <output>",
	Short: "Write a simulated data set with a censored covariate",
	Long: `Simulate draws a covariate x from a proportional hazards model given a
binary z, censors it by an independent exponential time and generates a
linear outcome y.  The columns are x, z, c, w = min(x, c), delta and y.

Example:
  cmimpute simulate sim.csv --n 500 --seed 7
  cmimpute simulate sim.xlsx --baseline weibull --shape 1.5 --rate 0.5`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	f := simulateCmd.Flags()
	f.IntVar(&simCfg.N, "n", simCfg.N, "number of rows")
	f.Uint64Var(&simCfg.Seed, "seed", simCfg.Seed, "random seed")
	f.StringVar(&simBaseline, "baseline", "exponential", "baseline hazard (exponential, weibull, gompertz)")
	f.Float64Var(&simShape, "shape", 1, "shape of a weibull or gompertz baseline")
	f.Float64Var(&simRate, "rate", 5, "rate of the baseline (scale for weibull)")
	f.Float64Var(&simCfg.ZProb, "z-prob", simCfg.ZProb, "probability that z = 1")
	f.Float64Var(&simCfg.LogHR, "log-hr", simCfg.LogHR, "log hazard ratio of z")
	f.Float64Var(&simCfg.CensorRate, "censor-rate", simCfg.CensorRate, "rate of the exponential censoring time")
	f.Float64Var(&simCfg.Intercept, "intercept", simCfg.Intercept, "intercept of y")
	f.Float64Var(&simCfg.Slope, "slope", simCfg.Slope, "coefficient of x in y")
	f.Float64Var(&simCfg.ZEffect, "z-effect", simCfg.ZEffect, "coefficient of z in y")
	f.Float64Var(&simCfg.NoiseSD, "noise-sd", simCfg.NoiseSD, "standard deviation of the noise in y")
}

func baseline(name string, shape, rate float64) (simulate.Baseline, error) {
	switch name {
	case "exponential", "exp":
		return simulate.Exponential{Rate: rate}, nil
	case "weibull":
		return simulate.Weibull{Shape: shape, Scale: rate}, nil
	case "gompertz":
		return simulate.Gompertz{Shape: shape, Rate: rate}, nil
	}
	return nil, fmt.Errorf("unknown baseline %q", name)
}

func runSimulate(cmd *cobra.Command, args []string) error {

	_, log, err := settings()
	if err != nil {
		return err
	}

	cfg := simCfg
	if cfg.Baseline, err = baseline(simBaseline, simShape, simRate); err != nil {
		return err
	}

	tb, err := simulate.Generate(cfg)
	if err != nil {
		return err
	}

	if err := tabio.WriteFile(context.Background(), args[0], []*utils.Table{tb}); err != nil {
		return fmt.Errorf("writing %s: %w", args[0], err)
	}

	log.WithField("rows", tb.NumRows()).Infof("wrote %s", args[0])
	return nil
}
