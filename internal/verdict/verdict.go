// Package verdict defines the closed, totally-ordered set of arbitration
// outcomes the kernel can hand back on a tick, the reason codes that
// justify them, and the severities used only for downstream reporting.
//
// Verdict ordering:
//
//	Allow (0) < Clamp (1) < Hold (2) < Override (3) < Shutdown (4)
//
// Arbitration is a max over a small closed set: model it as a flat
// ordered enum, not an open hierarchy.
package verdict

import (
	"encoding/json"
	"fmt"
)

// Verdict is the kernel's authoritative disposition for a tick. Values are
// ordered by precedence: a higher numeric value always wins arbitration.
// Values must never be reordered or reused; the ordering is contract-visible
// (it determines which ReasonCode set ends up behind which Verdict).
type Verdict uint8

const (
	Allow    Verdict = 0
	Clamp    Verdict = 1
	Hold     Verdict = 2
	Override Verdict = 3
	Shutdown Verdict = 4
)

// String returns the symbolic name used in canonical log serialization.
func (v Verdict) String() string {
	switch v {
	case Allow:
		return "Allow"
	case Clamp:
		return "Clamp"
	case Hold:
		return "Hold"
	case Override:
		return "Override"
	case Shutdown:
		return "Shutdown"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(v))
	}
}

// MarshalJSON renders v as its symbolic name, matching the vocabulary
// canonicalBytes uses for the hash chain — a bare uint8 on the wire would
// desync cmd/asc-kernel's stdout/BoltDB encoding from everywhere else a
// Verdict is serialized.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON parses a symbolic verdict name back into v.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Allow":
		*v = Allow
	case "Clamp":
		*v = Clamp
	case "Hold":
		*v = Hold
	case "Override":
		*v = Override
	case "Shutdown":
		*v = Shutdown
	default:
		return fmt.Errorf("verdict: unknown verdict name %q", s)
	}
	return nil
}

// Precedence returns the ordering key used by the arbiter.
func (v Verdict) Precedence() int {
	return int(v)
}

// ReasonCode is the closed enumeration of causes a check-battery predicate
// may attach to a triggered outcome. The eight values below are the ones
// the core references; a contract may declare others, but the battery never
// emits them.
type ReasonCode string

const (
	StateInvalidFrame          ReasonCode = "StateInvalidFrame"
	StateOutOfBounds           ReasonCode = "StateOutOfBounds"
	FlowConstraintViolation    ReasonCode = "FlowConstraintViolation"
	EnergyBudgetExceeded       ReasonCode = "EnergyBudgetExceeded"
	TemporalGuaranteeViolation ReasonCode = "TemporalGuaranteeViolation"
	InvariantViolation         ReasonCode = "InvariantViolation"
	InputStale                 ReasonCode = "InputStale"
	DeadlineMiss               ReasonCode = "DeadlineMiss"
)

// RequiredReasonCodes lists the eight codes every contract bundle must
// declare exactly once.
var RequiredReasonCodes = []ReasonCode{
	StateInvalidFrame,
	StateOutOfBounds,
	FlowConstraintViolation,
	EnergyBudgetExceeded,
	TemporalGuaranteeViolation,
	InvariantViolation,
	InputStale,
	DeadlineMiss,
}

// Severity is attached to an outcome for downstream reporting only; it
// never participates in arbitration — the arbiter is oblivious to
// severity.
type Severity string

const (
	Info     Severity = "Info"
	Warning  Severity = "Warning"
	Critical Severity = "Critical"
)

// RequiredSeverities lists the three Severity values. The contract loader
// only requires a tuple fragment's severities to include Critical; Info
// and Warning are not required.
var RequiredSeverities = []Severity{Info, Warning, Critical}

// CheckOutcome is the record a single triggered predicate contributes to
// the per-tick outcome list.
type CheckOutcome struct {
	Verdict  Verdict
	Reason   ReasonCode
	Severity Severity
}

// Arbiter collapses a multiset of outcomes to a single verdict by maximum
// precedence. An empty list arbitrates to Allow. Ties cannot occur
// because Verdict values are unique; when several outcomes share a verdict
// the arbiter still yields it once.
func Arbiter(outcomes []CheckOutcome) Verdict {
	best := Allow
	for _, o := range outcomes {
		if o.Verdict.Precedence() > best.Precedence() {
			best = o.Verdict
		}
	}
	return best
}
