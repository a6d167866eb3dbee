package survival

import (
	"fmt"
	"math"
)

// Breslow returns the baseline survival curve of a proportional hazards
// model at the distinct event times.  hr holds the hazard ratio of each
// subject, exp(β·z).
func Breslow(time []float64, event []bool, hr []float64) (*Curve, error) {

	if len(time) != len(event) || len(time) != len(hr) {
		return nil, fmt.Errorf("breslow: %w", ErrLength)
	}

	ii := order(time)
	n := len(ii)

	// Walk backward so that the risk set accumulates.
	var et, dh []float64
	risk := 0.0
	for j := n; j > 0; {
		t := time[ii[j-1]]
		d := 0
		i := j
		for ; i > 0 && time[ii[i-1]] == t; i-- {
			risk += hr[ii[i-1]]
			if event[ii[i-1]] {
				d++
			}
		}
		if d > 0 {
			et = append(et, t)
			dh = append(dh, float64(d)/risk)
		}
		j = i
	}

	if len(et) == 0 {
		return nil, fmt.Errorf("breslow: %w", ErrNoEvents)
	}

	cv := &Curve{
		Time: make([]float64, len(et)),
		Surv: make([]float64, len(et)),
	}
	cumhaz := 0.0
	for k := range et {
		q := len(et) - 1 - k
		cumhaz += dh[q]
		cv.Time[k] = et[q]
		cv.Surv[k] = math.Exp(-cumhaz)
	}

	return cv, nil
}
