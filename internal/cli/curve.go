package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/brookluers/cmimpute/impute"
	"github.com/brookluers/cmimpute/survival"
	"github.com/brookluers/cmimpute/tabio"
	"github.com/brookluers/cmimpute/utils"
)

var (
	curveCensoring bool
	curveCSV       string
	curveHeight    int
	curveWidth     int
	curveMin       map[string]string
)

// curveCmd represents the curve command
var curveCmd = &cobra.Command{
	Use:   "curve <input>",
	Short: "Plot the survival curve used for imputation",
	Long: `Curve fits the Kaplan-Meier estimate of the time column, or the
Breslow baseline survival of a Cox model when covariates are given, and
plots it in the terminal.

With --censoring the event indicator is reversed, giving the distribution
of the censoring times.  --min drops rows below a threshold before the fit.

Example:
  cmimpute curve data.csv --censoring --min age=50 --csv censdist.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runCurve,
}

func init() {
	rootCmd.AddCommand(curveCmd)

	curveCmd.Flags().BoolVar(&curveCensoring, "censoring", false, "fit the censoring distribution")
	curveCmd.Flags().StringVar(&curveCSV, "csv", "", "write time,surv pairs to this CSV file")
	curveCmd.Flags().IntVar(&curveHeight, "height", 15, "plot height in rows")
	curveCmd.Flags().IntVar(&curveWidth, "width", 70, "plot width in columns")
	curveCmd.Flags().StringToStringVar(&curveMin, "min", nil, "keep rows with column >= value, e.g. age=50")
}

// filterMin keeps the rows whose value in each named column is at least
// the given minimum.
func filterMin(tb *utils.Table, mins map[string]string) (*utils.Table, error) {

	names := make([]string, 0, len(mins))
	for na := range mins {
		names = append(names, na)
	}
	sort.Strings(names)

	keep := make([]bool, tb.NumRows())
	for i := range keep {
		keep[i] = true
	}
	for _, na := range names {
		lo, err := strconv.ParseFloat(mins[na], 64)
		if err != nil {
			return nil, fmt.Errorf("--min %s=%s: %w", na, mins[na], err)
		}
		x, err := tb.Col(na)
		if err != nil {
			return nil, err
		}
		for i, v := range x {
			if v < lo {
				keep[i] = false
			}
		}
	}

	var idx []int
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}

	return tb.Take(idx), nil
}

// plotCurve draws the step function on a regular time grid.
func plotCurve(cv *survival.Curve, width, height int, caption string) string {

	tmax := cv.Time[len(cv.Time)-1]
	ser := make([]float64, width)
	j := 0
	s := 1.0
	for k := range ser {
		t := tmax * float64(k) / float64(width-1)
		for j < cv.Len() && cv.Time[j] <= t {
			s = cv.Surv[j]
			j++
		}
		ser[k] = s
	}

	return asciigraph.Plot(ser, asciigraph.Height(height), asciigraph.Caption(caption))
}

func writeCurve(path string, cv *survival.Curve) error {
	tb, err := utils.NewTable([][]float64{cv.Time, cv.Surv}, []string{"time", "surv"})
	if err != nil {
		return err
	}
	fid, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tabio.WriteCSV(fid, tb); err != nil {
		fid.Close()
		return err
	}
	return fid.Close()
}

func runCurve(cmd *cobra.Command, args []string) error {

	cfg, log, err := settings()
	if err != nil {
		return err
	}
	icfg, err := cfg.Impute(log)
	if err != nil {
		return err
	}
	if curveWidth < 2 || curveHeight < 1 {
		return fmt.Errorf("plot size %dx%d is too small", curveWidth, curveHeight)
	}

	data, err := tabio.ReadFile(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	if len(curveMin) > 0 {
		if data, err = filterMin(data, curveMin); err != nil {
			return err
		}
		log.WithField("rows", data.NumRows()).Debug("filtered")
	}

	caption := "Kaplan-Meier"
	if curveCensoring {
		if data, err = impute.Reverse(data, icfg.Event); err != nil {
			return err
		}
		icfg.Covariates = nil
		caption = "censoring distribution"
	} else if len(icfg.Covariates) > 0 {
		caption = "Breslow baseline"
	}

	fit, err := impute.FitModel(data, icfg)
	if err != nil {
		return err
	}
	cv, err := impute.SurvivalCurve(fit, data, icfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), plotCurve(cv, curveWidth, curveHeight, caption))

	if curveCSV != "" {
		if err := writeCurve(curveCSV, cv); err != nil {
			return fmt.Errorf("writing %s: %w", curveCSV, err)
		}
		log.Infof("wrote %s", curveCSV)
	}

	return nil
}
