package survival

import (
	"fmt"
	"sort"
)

// order returns the positions of time sorted ascending.  Ties keep their
// original order.
func order(time []float64) []int {
	ii := make([]int, len(time))
	for i := range ii {
		ii[i] = i
	}
	sort.SliceStable(ii, func(a, b int) bool { return time[ii[a]] < time[ii[b]] })
	return ii
}

// FitKaplanMeier returns the product-limit survival estimate evaluated at
// every distinct observed time, censored times included.
func FitKaplanMeier(time []float64, event []bool) (*KaplanMeier, error) {

	if len(time) != len(event) {
		return nil, fmt.Errorf("kaplan-meier: %d times, %d indicators: %w", len(time), len(event), ErrLength)
	}
	if len(time) == 0 {
		return nil, fmt.Errorf("kaplan-meier: %w", ErrNoEvents)
	}

	ii := order(time)
	n := len(ii)
	km := new(KaplanMeier)

	sp := 1.0
	for i := 0; i < n; {
		t := time[ii[i]]
		nrisk := n - i

		// Count the events among all subjects with this time
		d := 0
		j := i
		for ; j < n && time[ii[j]] == t; j++ {
			if event[ii[j]] {
				d++
			}
		}

		sp *= 1 - float64(d)/float64(nrisk)
		km.Time = append(km.Time, t)
		km.Surv = append(km.Surv, sp)
		i = j
	}

	return km, nil
}
