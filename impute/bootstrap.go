package impute

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/brookluers/cmimpute/utils"
)

// ErrNoImputations is returned by Bootstrap when M is not positive.
var ErrNoImputations = errors.New("number of imputations must be positive")

// BootConfig controls the bootstrap resampling.
type BootConfig struct {

	// Number of completed data sets
	M int

	// Resample i draws from a PCG source seeded with (Seed, i)
	Seed uint64

	// Number of resamples processed at once, GOMAXPROCS if not positive
	Workers int
}

// Resample returns the row positions of bootstrap resample i, drawn with
// replacement from n rows.
func Resample(n int, seed uint64, i int) []int {
	rng := rand.New(rand.NewPCG(seed, uint64(i)))
	idx := make([]int, n)
	for k := range idx {
		idx[k] = rng.IntN(n)
	}
	return idx
}

// Bootstrap draws M resamples of data, refits the survival model on each
// and imputes the censored values of the resample.  Result i belongs to
// resample i.  If any resample fails the whole batch fails.
func Bootstrap(ctx context.Context, data *utils.Table, cfg Config, bc BootConfig) ([]*Result, error) {

	if bc.M < 1 {
		return nil, fmt.Errorf("M=%d: %w", bc.M, ErrNoImputations)
	}
	if data.NumRows() == 0 {
		return nil, fmt.Errorf("bootstrap: empty data set")
	}
	workers := bc.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	cfg = cfg.withDefaults()
	log := cfg.Log.WithFields(logrus.Fields{
		"run":  uuid.NewString(),
		"m":    bc.M,
		"seed": bc.Seed,
	})
	log.Info("starting bootstrap imputation")

	results := make([]*Result, bc.M)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < bc.M; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rs := data.Take(Resample(data.NumRows(), bc.Seed, i))

			icfg := cfg
			icfg.Log = log.WithField("imputation", i)

			fit, err := FitModel(rs, icfg)
			if err != nil {
				return fmt.Errorf("bootstrap iteration %d: %w", i, err)
			}
			res, err := ImputeOne(fit, rs, icfg)
			if err != nil {
				return fmt.Errorf("bootstrap iteration %d: %w", i, err)
			}

			results[i] = res
			icfg.Log.Debug("imputation complete")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("bootstrap imputation failed")
		return nil, err
	}

	log.Info("bootstrap imputation complete")
	return results, nil
}
