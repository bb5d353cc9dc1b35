// Package kernel — runtime.go
//
// Per-tick orchestration for the ASC kernel: the synchronous arbiter
// sitting between a vehicle's commanded intent and its actuators.
//
// Architecture:
//
//	KernelInput → check.Run → verdict.Arbiter → command.Shape → KernelOutput
//	                                                                 ↓
//	                                                          eventlog.Append
//
// Concurrency: Evaluate itself performs no I/O; with a purely in-memory
// eventlog.Log it does not block. With a Log returned by eventlog.Open,
// each Evaluate's Append also writes the record to BoltDB in a blocking
// transaction. The intended host
// is a real-time loop calling Evaluate on a fixed cadence. The Runtime is
// not internally synchronized — concurrent calls on one Runtime are
// undefined. Multiple Runtimes are independent.
package kernel

import (
	"github.com/ascsys/asc-kernel/internal/check"
	"github.com/ascsys/asc-kernel/internal/command"
	"github.com/ascsys/asc-kernel/internal/contract"
	"github.com/ascsys/asc-kernel/internal/eventlog"
	"github.com/ascsys/asc-kernel/internal/verdict"
)

// Tick carries the monotonic sequence number and wall-clock timestamp for
// one evaluation.
type Tick struct {
	Seq  uint64
	TSMs uint64
}

// ObservedState is the vehicle state a tick observes.
type ObservedState struct {
	Frame       string
	PositionM   [3]float64 // altitude is element 2
	VelocityMPS float64
	BankDeg     float64
	SOCPercent  float64
	InputAgeMS  uint64
}

// Intent is the commanded body-rates and climb rate for a tick.
type Intent struct {
	DesiredRatesDPS [3]float64
	DesiredClimbMPS float64
}

// KernelInput bundles everything one tick evaluates.
type KernelInput struct {
	Tick          Tick
	ObservedState ObservedState
	Intent        Intent
}

// KernelOutput is the kernel's per-tick verdict, ordered reasons, the
// constrained command, and the contract fingerprint that parameterized the
// decision. Reasons preserves the check battery's evaluation order —
// consumers may rely on it being a stable list, not a set.
//
// It is an alias for eventlog.Output: the event log owns canonical
// serialization of this shape, and aliasing avoids a package cycle while
// keeping one definition of the schema.
type KernelOutput = eventlog.Output

// Runtime holds the one piece of persistent core state: the contract
// fingerprint, the last observed tick timestamp (for inter-tick delta),
// and the hash-chained event log. It is constructed once and lives for the
// duration of a flight — contracts are not hot-reloaded mid-flight.
type Runtime struct {
	fingerprint string
	thresholds  contract.Thresholds
	lastTickMS  *uint64
	log         *eventlog.Log
}

// New constructs a Runtime directly from a fingerprint and threshold table,
// appending to the given log (which may already hold records restored by
// eventlog.Open), with no previous tick. This is the low-level
// constructor; most callers want FromContract.
func New(fingerprint string, thresholds contract.Thresholds, log *eventlog.Log) *Runtime {
	return &Runtime{fingerprint: fingerprint, thresholds: thresholds, log: log}
}

// FromContract is the convenience constructor that captures a loaded
// contract bundle's fingerprint and threshold table.
func FromContract(bundle *contract.Bundle, log *eventlog.Log) *Runtime {
	return New(bundle.Fingerprint, bundle.Thresholds, log)
}

// Evaluate runs one tick through the check battery, the arbiter, and the
// command shaper, appends the result to the event log, and returns it. It
// never fails: every anomaly surfaces as a reason/verdict in the output.
func (r *Runtime) Evaluate(in KernelInput) KernelOutput {
	interTickMS := r.interTickDelta(in.Tick.TSMs)

	battInput := check.Input{
		Frame:        in.ObservedState.Frame,
		PositionM:    in.ObservedState.PositionM,
		VelocityMPS:  in.ObservedState.VelocityMPS,
		BankDeg:      in.ObservedState.BankDeg,
		SOCPercent:   in.ObservedState.SOCPercent,
		InputAgeMS:   in.ObservedState.InputAgeMS,
		DesiredRates: in.Intent.DesiredRatesDPS,
		DesiredClimb: in.Intent.DesiredClimbMPS,
	}

	outcomes := check.Run(battInput, r.thresholds, interTickMS)
	v := verdict.Arbiter(outcomes)

	cmd := command.Shape(v, command.Intent{
		DesiredRatesDPS: in.Intent.DesiredRatesDPS,
		DesiredClimbMPS: in.Intent.DesiredClimbMPS,
	}, r.thresholds)

	reasons := make([]verdict.ReasonCode, 0, len(outcomes))
	for _, o := range outcomes {
		reasons = append(reasons, o.Reason)
	}

	out := KernelOutput{
		Verdict:             v,
		Reasons:             reasons,
		Command:             cmd,
		ContractFingerprint: r.fingerprint,
	}

	r.log.Append(in.Tick.Seq, out)

	// Unconditional, even if this tick violated temporal guarantees.
	ts := in.Tick.TSMs
	r.lastTickMS = &ts

	return out
}

// interTickDelta computes the saturating inter-tick interval. A
// non-monotonic timestamp yields 0, never a wraparound. Returns nil on the
// first tick.
func (r *Runtime) interTickDelta(tsMs uint64) *uint64 {
	if r.lastTickMS == nil {
		return nil
	}
	prev := *r.lastTickMS
	var delta uint64
	if tsMs > prev {
		delta = tsMs - prev
	}
	return &delta
}

// TipHash returns the current event log tip.
func (r *Runtime) TipHash() string {
	return r.log.TipHash()
}

// Log returns the Runtime's event log for read-only inspection (e.g. an
// evidence exporter).
func (r *Runtime) Log() *eventlog.Log {
	return r.log
}
