package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/brookluers/cmimpute/impute"
	"github.com/brookluers/cmimpute/pool"
	"github.com/brookluers/cmimpute/tabio"
	"github.com/brookluers/cmimpute/utils"
)

var (
	miOut  string
	miYAML string
)

// miCmd represents the mi command
var miCmd = &cobra.Command{
	Use:   "mi <input>",
	Short: "Multiple imputation with bootstrap resamples and Rubin's rules",
	Long: `Mi draws m bootstrap resamples of the input, refits the survival model
on each, imputes the censored values of the resample and fits the linear
model given by --formula to every completed data set.  The estimates are
pooled with Rubin's rules.

Formulas are written as "y ~ imp + z + imp:z"; use "- 1" or "+ 0" to drop
the intercept.

Example:
  cmimpute mi data.csv --formula "y ~ imp + z" --covariates z --m 20
  cmimpute mi data.csv --formula "y ~ imp" --out completed.db --yaml pooled.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runMI,
}

func init() {
	rootCmd.AddCommand(miCmd)

	miCmd.Flags().Int("m", 10, "number of imputations")
	miCmd.Flags().Uint64("seed", 1, "random seed of the resamples")
	miCmd.Flags().Int("workers", 0, "concurrent imputations (default GOMAXPROCS)")
	miCmd.Flags().String("formula", "", "regression formula, e.g. \"y ~ imp + z\"")
	miCmd.Flags().StringVar(&miOut, "out", "", "write the completed data sets to this path")
	miCmd.Flags().StringVar(&miYAML, "yaml", "", "write the pooled estimates as YAML")

	_ = viper.BindPFlag("m", miCmd.Flags().Lookup("m"))
	_ = viper.BindPFlag("seed", miCmd.Flags().Lookup("seed"))
	_ = viper.BindPFlag("workers", miCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("formula", miCmd.Flags().Lookup("formula"))
}

func runMI(cmd *cobra.Command, args []string) error {

	cfg, log, err := settings()
	if err != nil {
		return err
	}
	icfg, err := cfg.Impute(log)
	if err != nil {
		return err
	}
	bc, err := cfg.Boot()
	if err != nil {
		return err
	}
	if cfg.Formula == "" {
		return fmt.Errorf("--formula is required")
	}
	f, err := pool.ParseFormula(cfg.Formula)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	data, err := tabio.ReadFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	res, err := impute.Bootstrap(ctx, data, icfg, bc)
	if err != nil {
		return err
	}

	tables := make([]*utils.Table, len(res))
	nwarn := 0
	for i, r := range res {
		tables[i] = r.Table
		nwarn += len(r.Warnings)
	}
	log.WithField("warnings", nwarn).Infof("imputed %d data sets", len(tables))

	pl, err := pool.Rubin(tables, f)
	if err != nil {
		return err
	}
	printPooled(cmd.OutOrStdout(), pl)

	if miYAML != "" {
		if err := writePooled(miYAML, cfg.Formula, bc.Seed, pl); err != nil {
			return err
		}
		log.Infof("wrote %s", miYAML)
	}

	if miOut != "" {
		if err := tabio.WriteFile(ctx, miOut, tables); err != nil {
			return fmt.Errorf("writing %s: %w", miOut, err)
		}
		log.Infof("wrote %s", miOut)
	}

	return nil
}
