// Package check implements the fixed, ordered battery of safety predicates
// that map a kernel input and the inter-tick interval to zero or more
// CheckOutcomes.
//
// The battery is a flat ordered pipeline, not a chain of objects: the
// evaluation order below is contract-visible (it becomes the order of
// KernelOutput.reasons) and must be preserved across rewrites.
package check

import (
	"math"

	"github.com/ascsys/asc-kernel/internal/contract"
	"github.com/ascsys/asc-kernel/internal/verdict"
)

// Input bundles the per-tick values the battery reads. It mirrors the
// spec's ObservedState and Intent without the Tick's sequence/timestamp,
// which only the runtime needs.
type Input struct {
	Frame        string
	PositionM    [3]float64
	VelocityMPS  float64
	BankDeg      float64
	SOCPercent   float64
	InputAgeMS   uint64
	DesiredRates [3]float64
	DesiredClimb float64
}

// Run evaluates the battery in fixed order against a threshold table.
// interTickMS is nil on a runtime's first tick — neither temporal check
// fires before a previous tick exists.
func Run(in Input, th contract.Thresholds, interTickMS *uint64) []verdict.CheckOutcome {
	var out []verdict.CheckOutcome

	// 1. Frame mismatch.
	if in.Frame != th.Frame {
		out = append(out, verdict.CheckOutcome{
			Verdict: verdict.Shutdown, Reason: verdict.StateInvalidFrame, Severity: verdict.Critical,
		})
	}

	// 2. Speed bound.
	if in.VelocityMPS > th.MaxSpeedMPS {
		out = append(out, verdict.CheckOutcome{
			Verdict: verdict.Clamp, Reason: verdict.StateOutOfBounds, Severity: verdict.Warning,
		})
	}

	// 3. Flow-rate / climb-rate bounds.
	if math.Abs(in.DesiredRates[0]) > th.MaxRollRateDPS ||
		math.Abs(in.DesiredRates[1]) > th.MaxPitchRateDPS ||
		math.Abs(in.DesiredRates[2]) > th.MaxYawRateDPS ||
		math.Abs(in.DesiredClimb) > th.MaxClimbRateMPS {
		out = append(out, verdict.CheckOutcome{
			Verdict: verdict.Clamp, Reason: verdict.FlowConstraintViolation, Severity: verdict.Warning,
		})
	}

	// 4. Energy budget.
	if in.SOCPercent < th.MinSOCPercent {
		out = append(out, verdict.CheckOutcome{
			Verdict: verdict.Hold, Reason: verdict.EnergyBudgetExceeded, Severity: verdict.Critical,
		})
	}

	// 5. Sensor staleness.
	if float64(in.InputAgeMS) > float64(th.MaxInputAgeMS) {
		out = append(out, verdict.CheckOutcome{
			Verdict: verdict.Hold, Reason: verdict.InputStale, Severity: verdict.Critical,
		})
	}

	// 6a/6b. Temporal guarantees — only evaluated from the second tick on.
	if interTickMS != nil {
		d := *interTickMS
		if d > th.MaxTickIntervalMS {
			out = append(out, verdict.CheckOutcome{
				Verdict: verdict.Override, Reason: verdict.TemporalGuaranteeViolation, Severity: verdict.Critical,
			})
		}
		if d > th.DeadlineMS {
			out = append(out, verdict.CheckOutcome{
				Verdict: verdict.Override, Reason: verdict.DeadlineMiss, Severity: verdict.Critical,
			})
		}
	}

	// 7. Hard invariants.
	if in.PositionM[2] < th.MinAltitudeM || math.Abs(in.BankDeg) > th.MaxBankDeg {
		out = append(out, verdict.CheckOutcome{
			Verdict: verdict.Shutdown, Reason: verdict.InvariantViolation, Severity: verdict.Critical,
		})
	}

	return out
}
