// Package command produces the constrained command a verdict dictates.
// It is a pure numeric transform with no hidden state: given a verdict
// and an intent, Shape always returns the same command.
package command

import (
	"github.com/ascsys/asc-kernel/internal/contract"
	"github.com/ascsys/asc-kernel/internal/verdict"
)

// Intent is the raw commanded rates and climb the shaper constrains.
type Intent struct {
	DesiredRatesDPS [3]float64
	DesiredClimbMPS float64
}

// Command is the kernel's constrained output command.
type Command struct {
	AppliedRatesDPS [3]float64 `json:"applied_rates_dps"`
	AppliedClimbMPS float64    `json:"applied_climb_mps"`
	Shutdown        bool       `json:"shutdown"`
}

// Shape returns the constrained command dictated by v for the given intent
// and thresholds. Clamping is axis-independent: saturating one
// out-of-range rate never affects another. NaN in any intent field
// propagates unchanged through clamp — it is never silently rewritten to
// zero.
func Shape(v verdict.Verdict, in Intent, th contract.Thresholds) Command {
	switch v {
	case verdict.Allow, verdict.Clamp:
		return Command{
			AppliedRatesDPS: [3]float64{
				clamp(in.DesiredRatesDPS[0], th.MaxRollRateDPS),
				clamp(in.DesiredRatesDPS[1], th.MaxPitchRateDPS),
				clamp(in.DesiredRatesDPS[2], th.MaxYawRateDPS),
			},
			AppliedClimbMPS: clamp(in.DesiredClimbMPS, th.MaxClimbRateMPS),
			Shutdown:        false,
		}
	case verdict.Hold:
		return Command{Shutdown: false}
	case verdict.Override:
		return Command{AppliedClimbMPS: overrideDescentMPS, Shutdown: false}
	case verdict.Shutdown:
		return Command{Shutdown: true}
	default:
		return Command{Shutdown: true}
	}
}

// overrideDescentMPS is the fixed descent bias commanded under Override.
// The contract does not parameterize this.
const overrideDescentMPS = -1.0

// clamp saturates x to [-limit, +limit]. A NaN input returns NaN unchanged:
// NaN compares false against both bounds, so neither branch fires.
func clamp(x, limit float64) float64 {
	if x > limit {
		return limit
	}
	if x < -limit {
		return -limit
	}
	return x
}
