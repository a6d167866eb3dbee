package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brookluers/cmimpute/impute"
	"github.com/brookluers/cmimpute/tabio"
	"github.com/brookluers/cmimpute/utils"
)

// imputeCmd represents the impute command
var imputeCmd = &cobra.Command{
	Use:   "impute <input> <output>",
	Short: "Impute censored values once from the full data",
	Long: `Impute fits a Kaplan-Meier curve, or a Cox model when covariates are
given, to the time column and replaces every censored value by its
conditional mean.  The output holds the input columns plus the survival
probability (surv) and imputed value (imp) of each row.

Files are read and written by extension: .csv, .xlsx, .db or .sqlite, or a
directory of binary columns.

Example:
  cmimpute impute data.csv imputed.csv --time w --event delta
  cmimpute impute data.csv imputed.xlsx --covariates z --tail carryforward`,
	Args: cobra.ExactArgs(2),
	RunE: runImpute,
}

func init() {
	rootCmd.AddCommand(imputeCmd)
}

func runImpute(cmd *cobra.Command, args []string) error {

	cfg, log, err := settings()
	if err != nil {
		return err
	}
	icfg, err := cfg.Impute(log)
	if err != nil {
		return err
	}

	ctx := context.Background()
	data, err := tabio.ReadFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	log.WithField("rows", data.NumRows()).Debugf("read %s", args[0])

	fit, err := impute.FitModel(data, icfg)
	if err != nil {
		return err
	}
	printFit(cmd.OutOrStdout(), fit)

	res, err := impute.ImputeOne(fit, data, icfg)
	if err != nil {
		return err
	}

	if err := tabio.WriteFile(ctx, args[1], []*utils.Table{res.Table}); err != nil {
		return fmt.Errorf("writing %s: %w", args[1], err)
	}

	log.WithField("warnings", len(res.Warnings)).Infof("wrote %s", args[1])
	return nil
}
