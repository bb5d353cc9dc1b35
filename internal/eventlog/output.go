package eventlog

import (
	"github.com/ascsys/asc-kernel/internal/command"
	"github.com/ascsys/asc-kernel/internal/verdict"
)

// Output is the canonical shape of a tick's decision. It lives here, rather
// than in package kernel, because the event log owns canonical
// serialization of it and package kernel already depends on package
// eventlog; kernel.KernelOutput is a type alias for this type so callers
// never see the indirection.
//
// The json tags govern both the BoltDB-persisted blob and the stdout wire
// format cmd/asc-kernel writes. They are snake_case, and Verdict's own
// MarshalJSON renders the verdict by the same symbolic name canonicalBytes
// uses for the hash; the field names themselves differ from
// canonicalBytes' keys (e.g. "applied_rates_dps" vs "rates").
type Output struct {
	Verdict             verdict.Verdict      `json:"verdict"`
	Reasons             []verdict.ReasonCode `json:"reasons"`
	Command             command.Command      `json:"command"`
	ContractFingerprint string               `json:"contract_fingerprint"`
}
