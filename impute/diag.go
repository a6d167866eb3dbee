package impute

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// diag collects the non-fatal data quality problems of one imputation
// pass and echoes them to the log.
type diag struct {
	log      logrus.FieldLogger
	warnings []string
}

// countf records a warning if n rows are affected; first is the source
// row of the first one.
func (dg *diag) countf(n, first int, format string, args ...interface{}) {
	if n == 0 {
		return
	}
	msg := fmt.Sprintf(format, args...)
	dg.log.WithFields(logrus.Fields{
		"rows":      n,
		"first_row": first,
	}).Warn(msg)
	dg.warnings = append(dg.warnings, fmt.Sprintf("%s (%d rows, first row %d)", msg, n, first))
}

// counter tallies rows that fail a check.
type counter struct {
	n, first int
}

func (c *counter) add(row int) {
	if c.n == 0 {
		c.first = row
	}
	c.n++
}
