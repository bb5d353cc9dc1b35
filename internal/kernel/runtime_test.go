package kernel

import (
	"testing"

	"github.com/ascsys/asc-kernel/internal/contract"
	"github.com/ascsys/asc-kernel/internal/eventlog"
	"github.com/ascsys/asc-kernel/internal/verdict"
)

// uasSmallThresholds mirrors the shipped uas-small profile's derived
// thresholds (MIN_ALTITUDE_M=5, MAX_BANK_DEG=60, MAX_TICK_INTERVAL_MS=50,
// DEADLINE_MS=20, MAX_SPEED_MPS=35, MAX_ROLL_RATE_DPS=120).
func uasSmallThresholds() contract.Thresholds {
	return contract.Thresholds{
		Frame:             "NED",
		MaxSpeedMPS:       35,
		MaxRollRateDPS:    120,
		MaxPitchRateDPS:   90,
		MaxYawRateDPS:     60,
		MaxClimbRateMPS:   6,
		MinSOCPercent:     15,
		MaxInputAgeMS:     200,
		MaxTickIntervalMS: 50,
		DeadlineMS:        20,
		MinAltitudeM:      5,
		MaxBankDeg:        60,
	}
}

func newTestRuntime() *Runtime {
	return New("fp-0000000000000000000000000000000000000000000000000000000000000", uasSmallThresholds(), eventlog.New())
}

func baseInput(seq, ts uint64) KernelInput {
	return KernelInput{
		Tick: Tick{Seq: seq, TSMs: ts},
		ObservedState: ObservedState{
			Frame:       "NED",
			PositionM:   [3]float64{0, 0, 20},
			VelocityMPS: 10,
			BankDeg:     1,
			SOCPercent:  90,
			InputAgeMS:  1,
		},
		Intent: Intent{
			DesiredRatesDPS: [3]float64{0.5, 0.5, 0.5},
			DesiredClimbMPS: 0.5,
		},
	}
}

// Scenario 1: steady allow.
func TestScenarioSteadyAllow(t *testing.T) {
	rt := newTestRuntime()
	out := rt.Evaluate(baseInput(1, 0))

	if out.Verdict != verdict.Allow {
		t.Fatalf("verdict = %s, want Allow", out.Verdict)
	}
	if len(out.Reasons) != 0 {
		t.Fatalf("reasons = %v, want none", out.Reasons)
	}
	if out.Command.AppliedRatesDPS != [3]float64{0.5, 0.5, 0.5} || out.Command.AppliedClimbMPS != 0.5 {
		t.Fatalf("command = %+v, want the unclamped intent", out.Command)
	}
	if len(out.ContractFingerprint) != 64 {
		t.Fatalf("fingerprint length = %d, want 64", len(out.ContractFingerprint))
	}
}

// Scenario 2: invariant + deadline co-fire → Shutdown.
func TestScenarioInvariantAndDeadlineShutdown(t *testing.T) {
	rt := newTestRuntime()
	rt.Evaluate(baseInput(1, 0))

	in := baseInput(2, 25)
	in.ObservedState.PositionM[2] = 0
	in.ObservedState.BankDeg = 0
	out := rt.Evaluate(in)

	if out.Verdict != verdict.Shutdown {
		t.Fatalf("verdict = %s, want Shutdown", out.Verdict)
	}
	if !out.Command.Shutdown {
		t.Fatal("command.Shutdown = false, want true")
	}
	if !containsReason(out.Reasons, verdict.DeadlineMiss) || !containsReason(out.Reasons, verdict.InvariantViolation) {
		t.Fatalf("reasons = %v, want superset of {DeadlineMiss, InvariantViolation}", out.Reasons)
	}
}

// Scenario 3: temporal + deadline co-fire → Override.
func TestScenarioTemporalAndDeadlineOverride(t *testing.T) {
	rt := newTestRuntime()
	rt.Evaluate(baseInput(1, 0))
	out := rt.Evaluate(baseInput(2, 150))

	if out.Verdict != verdict.Override {
		t.Fatalf("verdict = %s, want Override", out.Verdict)
	}
	if out.Command.AppliedClimbMPS != -1.0 {
		t.Fatalf("applied climb = %v, want -1.0", out.Command.AppliedClimbMPS)
	}
	if out.Command.AppliedRatesDPS != ([3]float64{}) {
		t.Fatalf("applied rates = %v, want zero", out.Command.AppliedRatesDPS)
	}
	if out.Command.Shutdown {
		t.Fatal("command.Shutdown = true, want false")
	}
	if !containsReason(out.Reasons, verdict.TemporalGuaranteeViolation) || !containsReason(out.Reasons, verdict.DeadlineMiss) {
		t.Fatalf("reasons = %v, want superset of {TemporalGuaranteeViolation, DeadlineMiss}", out.Reasons)
	}
}

// Scenario 4: pure clamp.
func TestScenarioPureClamp(t *testing.T) {
	rt := newTestRuntime()
	in := baseInput(1, 0)
	in.ObservedState.VelocityMPS = uasSmallThresholds().MaxSpeedMPS + 1
	in.Intent.DesiredRatesDPS[0] = uasSmallThresholds().MaxRollRateDPS + 10
	out := rt.Evaluate(in)

	if out.Verdict != verdict.Clamp {
		t.Fatalf("verdict = %s, want Clamp", out.Verdict)
	}
	want := []verdict.ReasonCode{verdict.StateOutOfBounds, verdict.FlowConstraintViolation}
	if len(out.Reasons) != len(want) {
		t.Fatalf("reasons = %v, want %v", out.Reasons, want)
	}
	for i := range want {
		if out.Reasons[i] != want[i] {
			t.Fatalf("reasons = %v, want %v", out.Reasons, want)
		}
	}
	if out.Command.AppliedRatesDPS[0] != uasSmallThresholds().MaxRollRateDPS {
		t.Fatalf("applied roll rate = %v, want %v", out.Command.AppliedRatesDPS[0], uasSmallThresholds().MaxRollRateDPS)
	}
	if out.Command.AppliedRatesDPS[1] != 0.5 || out.Command.AppliedRatesDPS[2] != 0.5 {
		t.Fatalf("other axes changed: %+v", out.Command.AppliedRatesDPS)
	}
}

// Scenario 5: Shutdown beats Override when both fire on the same tick.
func TestScenarioShutdownBeatsOverride(t *testing.T) {
	rt := newTestRuntime()
	rt.Evaluate(baseInput(1, 0))

	in := baseInput(2, 150) // triggers DeadlineMiss and TemporalGuaranteeViolation
	in.ObservedState.PositionM[2] = 0 // also triggers InvariantViolation
	out := rt.Evaluate(in)

	if out.Verdict != verdict.Shutdown {
		t.Fatalf("verdict = %s, want Shutdown", out.Verdict)
	}
	if !containsReason(out.Reasons, verdict.DeadlineMiss) || !containsReason(out.Reasons, verdict.InvariantViolation) {
		t.Fatalf("reasons = %v, want both present", out.Reasons)
	}
}

// Scenario 6: replay determinism across 25 ticks.
func TestScenarioReplayDeterminism(t *testing.T) {
	rt1 := newTestRuntime()
	rt2 := newTestRuntime()

	for seq := uint64(0); seq < 25; seq++ {
		in := baseInput(seq, seq*20)
		out1 := rt1.Evaluate(in)
		out2 := rt2.Evaluate(in)
		if out1.Verdict != out2.Verdict {
			t.Fatalf("tick %d: verdict diverged: %s vs %s", seq, out1.Verdict, out2.Verdict)
		}
	}

	if rt1.TipHash() != rt2.TipHash() {
		t.Fatalf("tip hashes diverged: %q vs %q", rt1.TipHash(), rt2.TipHash())
	}
}

func containsReason(reasons []verdict.ReasonCode, want verdict.ReasonCode) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}
