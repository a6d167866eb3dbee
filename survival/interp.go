package survival

import (
	"errors"
	"math"

	"github.com/brookluers/cmimpute/utils"
)

var (
	// ErrNoPrecedingEvent is returned by Interpolate when the target time
	// is earlier than every uncensored time.
	ErrNoPrecedingEvent = errors.New("no uncensored observation at or before time")

	// ErrNoFollowingEvent is returned by Interpolate when the target time
	// is later than every uncensored time.
	ErrNoFollowingEvent = errors.New("no uncensored observation after time")
)

// sameTime compares two times to 8 decimal places.
func sameTime(a, b float64) bool {
	return math.Round((a-b)*1e8) == 0
}

// Interpolate returns a survival probability for time t from the
// uncensored rows of obs, which must be sorted by time.  If an uncensored
// row with a known survival value shares the time t, the value of the
// last such row is returned.  Otherwise the survival values of the
// closest uncensored rows on either side of t are averaged.
func Interpolate(t float64, obs []utils.Obs) (float64, error) {

	same, before, after := -1, -1, -1
	for i := range obs {
		o := &obs[i]
		if !o.Event || math.IsNaN(o.Surv) {
			continue
		}
		switch {
		case sameTime(o.Time, t):
			same = i
		case o.Time < t:
			before = i
		case after == -1:
			after = i
		}
	}

	switch {
	case same != -1:
		return obs[same].Surv, nil
	case before == -1:
		return math.NaN(), ErrNoPrecedingEvent
	case after == -1:
		return math.NaN(), ErrNoFollowingEvent
	}

	return (obs[before].Surv + obs[after].Surv) / 2, nil
}
