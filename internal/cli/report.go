package cli

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/brookluers/cmimpute/pool"
	"github.com/brookluers/cmimpute/survival"
)

func num(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func render(w io.Writer, header []string, rows [][]string) {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeader(header)
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)
	tw.AppendBulk(rows)
	tw.Render()
}

// printFit shows the coefficients of a Cox model.  Kaplan-Meier fits have
// nothing to show.
func printFit(w io.Writer, fit survival.Fit) {
	cox, ok := fit.(*survival.Cox)
	if !ok {
		return
	}
	se := cox.StdErr()
	var rows [][]string
	for j, na := range cox.Names {
		rows = append(rows, []string{na, num(cox.Coef[j]), num(se[j]), num(math.Exp(cox.Coef[j]))})
	}
	render(w, []string{"covariate", "coef", "se", "exp(coef)"}, rows)
	fmt.Fprintf(w, "log partial likelihood %.4f\n", cox.LogLike)
}

// printPooled shows the pooled regression.
func printPooled(w io.Writer, pl *pool.Pooled) {
	var rows [][]string
	for _, na := range pl.Names {
		rows = append(rows, []string{
			na,
			num(pl.Coef[na]),
			num(math.Sqrt(pl.Var[na])),
			num(pl.Within[na]),
			num(pl.Between[na]),
		})
	}
	render(w, []string{"term", "estimate", "se", "within", "between"}, rows)
	fmt.Fprintf(w, "pooled over %d imputations\n", pl.M)
}

// pooledTerm is one row of the YAML export.
type pooledTerm struct {
	Term     string  `yaml:"term"`
	Estimate float64 `yaml:"estimate"`
	StdErr   float64 `yaml:"se"`
	Within   float64 `yaml:"within"`
	Between  float64 `yaml:"between"`
}

type pooledReport struct {
	Formula     string       `yaml:"formula"`
	Imputations int          `yaml:"imputations"`
	Seed        uint64       `yaml:"seed"`
	Terms       []pooledTerm `yaml:"terms"`
}

func writePooled(path, formula string, seed uint64, pl *pool.Pooled) error {
	rep := pooledReport{Formula: formula, Imputations: pl.M, Seed: seed}
	for _, na := range pl.Names {
		rep.Terms = append(rep.Terms, pooledTerm{
			Term:     na,
			Estimate: pl.Coef[na],
			StdErr:   math.Sqrt(pl.Var[na]),
			Within:   pl.Within[na],
			Between:  pl.Between[na],
		})
	}
	b, err := yaml.Marshal(&rep)
	if err != nil {
		return fmt.Errorf("error marshaling pooled result: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}
