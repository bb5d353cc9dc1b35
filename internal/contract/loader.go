package contract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ascsys/asc-kernel/internal/verdict"
)

// fragmentNames is the fixed order the fingerprint concatenates fragments
// in: tuple, state, flow, energy, guarantees, invariants, interlock,
// profile.
var fragmentNames = []string{
	"tuple", "state", "flow", "energy", "guarantees", "invariants", "interlock", "profile",
}

// requiredKeys lists, per fragment, every key (dot-separated for nested
// maps) that must be present in the raw YAML. dec.KnownFields(true)
// rejects an extra key but a struct decode into a bare value type silently
// zero-values an omitted one — §4.1 requires both directions to fail load.
var requiredKeys = map[string][]string{
	"tuple":      {"version", "reason_codes", "severities"},
	"state":      {"frame", "position_bounds_m.min", "position_bounds_m.max", "attitude_limit_deg", "max_speed_mps"},
	"flow":       {"max_roll_rate_dps", "max_pitch_rate_dps", "max_yaw_rate_dps", "max_climb_rate_mps"},
	"energy":     {"min_soc_percent", "reserve_endurance_s", "max_power_w"},
	"guarantees": {"max_input_age_ms", "max_tick_interval_ms", "deadline_ms"},
	"invariants": {"min_altitude_m", "max_bank_deg", "require_geofence"},
	"interlock":  {"armed_required", "fault_latched_shutdown"},
	"profile": {
		"name", "timing.control_hz", "timing.deadline_ms",
		"capabilities.vtol", "capabilities.fixed_wing", "capabilities.max_payload_kg",
	},
}

// checkRequiredKeys decodes data into a generic map and confirms every
// dot-separated path in paths is present, regardless of its value (a key
// explicitly set to false or 0 still counts as present; only outright
// absence is a failure). Returns *ParseError on the first missing key.
func checkRequiredKeys(path string, data []byte, paths []string) error {
	var generic map[string]interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return &ParseError{Path: path, Err: err}
	}
	for _, p := range paths {
		if !keyPresent(generic, strings.Split(p, ".")) {
			return &ParseError{Path: path, Err: fmt.Errorf("missing required field %q", p)}
		}
	}
	return nil
}

func keyPresent(m map[string]interface{}, parts []string) bool {
	v, ok := m[parts[0]]
	if !ok {
		return false
	}
	if len(parts) == 1 {
		return true
	}
	nested, ok := v.(map[string]interface{})
	if !ok {
		return false
	}
	return keyPresent(nested, parts[1:])
}

// relPath returns the fixed relative layout path for a fragment.
func relPath(name, profile string) string {
	switch name {
	case "tuple":
		return filepath.Join("spec", "asc", "tuple.yaml")
	case "state":
		return filepath.Join("spec", "asc", "state-se3.yaml")
	case "flow":
		return filepath.Join("spec", "asc", "flow-phs.yaml")
	case "energy":
		return filepath.Join("spec", "asc", "energy-contract.yaml")
	case "guarantees":
		return filepath.Join("spec", "asc", "guarantees-stl.yaml")
	case "invariants":
		return filepath.Join("spec", "asc", "invariants-rcbf.yaml")
	case "interlock":
		return filepath.Join("spec", "asc", "interlock-gate.yaml")
	case "profile":
		return filepath.Join("spec", "profiles", profile+".yaml")
	default:
		panic("contract: unknown fragment " + name)
	}
}

// Bundle is the immutable, fingerprinted contract the runtime is built
// from. It is constructed once and never mutated.
type Bundle struct {
	Fingerprint string
	Thresholds  Thresholds

	Tuple      TupleFragment
	State      StateFragment
	Flow       FlowFragment
	Energy     EnergyFragment
	Guarantees GuaranteesFragment
	Invariants InvariantsFragment
	Interlock  InterlockFragment
	Profile    ProfileFragment
}

// Load reads the eight contract fragments for profile under repoPath,
// strictly parses each, validates the aggregate, and computes the
// fingerprint. Any failure is fatal and returned as IOError, ParseError,
// or ValidationError — there is no partial contract and no fallback.
func Load(repoPath, profile string) (*Bundle, error) {
	raws := make(map[string]string, len(fragmentNames))
	for _, name := range fragmentNames {
		path := filepath.Join(repoPath, relPath(name, profile))
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &IOError{Path: path, Err: err}
		}
		raws[name] = string(data)
	}

	b := &Bundle{}
	decodeStrict := func(name string, data string, out interface{}) error {
		path := filepath.Join(repoPath, relPath(name, profile))
		if err := checkRequiredKeys(path, []byte(data), requiredKeys[name]); err != nil {
			return err
		}
		dec := yaml.NewDecoder(bytes.NewReader([]byte(data)))
		dec.KnownFields(true)
		if err := dec.Decode(out); err != nil {
			return &ParseError{Path: path, Err: err}
		}
		return nil
	}

	if err := decodeStrict("tuple", raws["tuple"], &b.Tuple); err != nil {
		return nil, err
	}
	if err := decodeStrict("state", raws["state"], &b.State); err != nil {
		return nil, err
	}
	if err := decodeStrict("flow", raws["flow"], &b.Flow); err != nil {
		return nil, err
	}
	if err := decodeStrict("energy", raws["energy"], &b.Energy); err != nil {
		return nil, err
	}
	if err := decodeStrict("guarantees", raws["guarantees"], &b.Guarantees); err != nil {
		return nil, err
	}
	if err := decodeStrict("invariants", raws["invariants"], &b.Invariants); err != nil {
		return nil, err
	}
	if err := decodeStrict("interlock", raws["interlock"], &b.Interlock); err != nil {
		return nil, err
	}
	if err := decodeStrict("profile", raws["profile"], &b.Profile); err != nil {
		return nil, err
	}

	if err := validate(b); err != nil {
		return nil, err
	}

	b.Thresholds = deriveThresholds(b)
	b.Fingerprint = fingerprint(raws)

	return b, nil
}

// fingerprint computes SHA-256 over the canonicalized fragments, joined
// with single newline separators, in fragmentNames order.
func fingerprint(raws map[string]string) string {
	canon := make([]string, 0, len(fragmentNames))
	for _, name := range fragmentNames {
		canon = append(canon, Canonicalize(raws[name]))
	}
	joined := joinLines(canon)
	return hexSHA256(joined)
}

func joinLines(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\n"
		}
		out += p
	}
	return out
}

// validate checks the aggregate bundle's cross-fragment invariants.
func validate(b *Bundle) error {
	var violations []string

	seen := map[string]int{}
	for _, rc := range b.Tuple.ReasonCodes {
		seen[rc]++
	}
	for code, count := range seen {
		if count > 1 {
			violations = append(violations, fmt.Sprintf("duplicate reason code %q", code))
		}
	}
	for _, req := range verdict.RequiredReasonCodes {
		if seen[string(req)] == 0 {
			violations = append(violations, fmt.Sprintf("required reason code %q missing", req))
		}
	}

	hasCritical := false
	for _, s := range b.Tuple.Severities {
		if s == string(verdict.Critical) {
			hasCritical = true
		}
	}
	if !hasCritical {
		violations = append(violations, "severities must include \"Critical\"")
	}

	if b.Guarantees.DeadlineMS == 0 {
		violations = append(violations, "guarantees.deadline_ms must be > 0")
	}
	if b.Guarantees.MaxTickIntervalMS == 0 {
		violations = append(violations, "guarantees.max_tick_interval_ms must be > 0")
	}
	if b.Guarantees.DeadlineMS > 0 && b.Guarantees.MaxTickIntervalMS > 0 &&
		b.Guarantees.DeadlineMS > b.Guarantees.MaxTickIntervalMS {
		violations = append(violations, "guarantees.deadline_ms must be <= guarantees.max_tick_interval_ms")
	}

	if b.Energy.MinSOCPercent < 0 || b.Energy.MinSOCPercent > 100 {
		violations = append(violations, "energy.min_soc_percent must be in [0, 100]")
	}

	if b.Flow.MaxRollRateDPS <= 0 {
		violations = append(violations, "flow.max_roll_rate_dps must be > 0")
	}
	if b.Flow.MaxPitchRateDPS <= 0 {
		violations = append(violations, "flow.max_pitch_rate_dps must be > 0")
	}
	if b.Flow.MaxYawRateDPS <= 0 {
		violations = append(violations, "flow.max_yaw_rate_dps must be > 0")
	}
	if b.Flow.MaxClimbRateMPS <= 0 {
		violations = append(violations, "flow.max_climb_rate_mps must be > 0")
	}
	if b.State.MaxSpeedMPS <= 0 {
		violations = append(violations, "state.max_speed_mps must be > 0")
	}

	if b.Invariants.MinAltitudeM < 0 {
		violations = append(violations, "invariants.min_altitude_m must be >= 0")
	}
	if b.Invariants.MaxBankDeg <= 0 {
		violations = append(violations, "invariants.max_bank_deg must be > 0")
	}

	if b.Profile.Timing.ControlHz <= 0 {
		violations = append(violations, "profile.timing.control_hz must be > 0")
	}
	if b.Profile.Timing.DeadlineMS <= 0 {
		violations = append(violations, "profile.timing.deadline_ms must be > 0")
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
