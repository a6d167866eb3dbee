package survival

import (
	"errors"
	"fmt"
	"math"

	"github.com/brookluers/cmimpute/utils"
)

// ErrUnknownTailPolicy is returned by ParseTail for an unrecognised name.
var ErrUnknownTailPolicy = errors.New("unknown tail policy")

// Names of the tail policies.
const (
	TailZero         = "zero"
	TailCarryForward = "carryforward"
	TailExpo         = "expo"
)

// TailPolicy assigns survival probabilities beyond the last uncensored
// time tmax, where smax is the survival probability at tmax.
type TailPolicy interface {
	Name() string
	Extrapolate(t, tmax, smax float64) float64
}

// Zero drops the survival curve to zero after the last event (Efron,
// 1967).
type Zero struct{}

func (Zero) Name() string { return TailZero }

func (Zero) Extrapolate(t, tmax, smax float64) float64 {
	return 0
}

// CarryForward holds the survival curve at its last value (Gill, 1980).
type CarryForward struct{}

func (CarryForward) Name() string { return TailCarryForward }

func (CarryForward) Extrapolate(t, tmax, smax float64) float64 {
	return smax
}

// Expo continues the curve as an exponential decay through the origin and
// the last event (Brown, Hollander and Korwar, 1974).
type Expo struct{}

func (Expo) Name() string { return TailExpo }

func (Expo) Extrapolate(t, tmax, smax float64) float64 {
	if t == tmax || tmax <= 0 {
		return smax
	}
	return math.Exp(t * math.Log(smax) / tmax)
}

// ParseTail returns the policy with the given name.
func ParseTail(name string) (TailPolicy, error) {
	switch name {
	case TailZero:
		return Zero{}, nil
	case TailCarryForward:
		return CarryForward{}, nil
	case TailExpo:
		return Expo{}, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownTailPolicy)
}

// LastEvent returns the largest uncensored time in obs and its survival
// probability.  obs must be sorted by time; among tied rows the last one
// gives the survival probability.
func LastEvent(obs []utils.Obs) (float64, float64, error) {

	k := -1
	for i := range obs {
		if obs[i].Event && (k == -1 || obs[i].Time >= obs[k].Time) {
			k = i
		}
	}

	if k == -1 {
		return math.NaN(), math.NaN(), ErrNoEvents
	}

	return obs[k].Time, obs[k].Surv, nil
}

// Extend returns a copy of obs in which every row later than the last
// uncensored time has its survival probability assigned by the policy.
func Extend(obs []utils.Obs, policy TailPolicy) ([]utils.Obs, error) {

	tmax, smax, err := LastEvent(obs)
	if err != nil {
		return nil, err
	}

	out := make([]utils.Obs, len(obs))
	copy(out, obs)
	for i := range out {
		if out[i].Time > tmax {
			out[i].Surv = policy.Extrapolate(out[i].Time, tmax, smax)
		}
	}

	return out, nil
}
