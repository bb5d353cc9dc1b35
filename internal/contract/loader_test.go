package contract

import (
	"os"
	"path/filepath"
	"testing"
)

// writeValidRepo lays out a complete, valid eight-fragment contract repo
// under a temp directory and returns its path.
func writeValidRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"spec/asc/tuple.yaml": `
version: "1"
reason_codes:
  - StateInvalidFrame
  - StateOutOfBounds
  - FlowConstraintViolation
  - EnergyBudgetExceeded
  - TemporalGuaranteeViolation
  - InvariantViolation
  - InputStale
  - DeadlineMiss
severities:
  - Info
  - Warning
  - Critical
`,
		"spec/asc/state-se3.yaml": `
frame: NED
position_bounds_m:
  min: [-100.0, -100.0, -50.0]
  max: [100.0, 100.0, 50.0]
attitude_limit_deg: 75.0
max_speed_mps: 35.0
`,
		"spec/asc/flow-phs.yaml": `
max_roll_rate_dps: 120.0
max_pitch_rate_dps: 90.0
max_yaw_rate_dps: 60.0
max_climb_rate_mps: 6.0
`,
		"spec/asc/energy-contract.yaml": `
min_soc_percent: 15.0
reserve_endurance_s: 120.0
max_power_w: 800.0
`,
		"spec/asc/guarantees-stl.yaml": `
max_input_age_ms: 200
max_tick_interval_ms: 50
deadline_ms: 20
`,
		"spec/asc/invariants-rcbf.yaml": `
min_altitude_m: 5.0
max_bank_deg: 60.0
require_geofence: true
`,
		"spec/asc/interlock-gate.yaml": `
armed_required: true
fault_latched_shutdown: true
`,
		"spec/profiles/uas-small.yaml": `
name: uas-small
timing:
  control_hz: 50.0
  deadline_ms: 20.0
capabilities:
  vtol: true
  fixed_wing: false
  max_payload_kg: 2.5
`,
	}

	for rel, content := range files {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func TestLoadValidBundle(t *testing.T) {
	root := writeValidRepo(t)
	b, err := Load(root, "uas-small")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Fingerprint == "" {
		t.Fatal("Fingerprint is empty")
	}
	if b.Thresholds.Frame != "NED" {
		t.Fatalf("Thresholds.Frame = %q, want NED", b.Thresholds.Frame)
	}
	if b.Thresholds.MaxTickIntervalMS != 50 || b.Thresholds.DeadlineMS != 20 {
		t.Fatalf("got timing thresholds %+v", b.Thresholds)
	}
}

func TestLoadMissingFragmentIsIOError(t *testing.T) {
	root := writeValidRepo(t)
	if err := os.Remove(filepath.Join(root, "spec/asc/tuple.yaml")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	_, err := Load(root, "uas-small")
	if _, ok := err.(*IOError); !ok {
		t.Fatalf("got %T (%v), want *IOError", err, err)
	}
}

func TestLoadUnknownFieldIsParseError(t *testing.T) {
	root := writeValidRepo(t)
	path := filepath.Join(root, "spec/asc/tuple.yaml")
	data, _ := os.ReadFile(path)
	data = append(data, []byte("\nextra_unknown_field: true\n")...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(root, "uas-small")
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("got %T (%v), want *ParseError", err, err)
	}
}

func TestLoadFingerprintStableUnderBenignWhitespace(t *testing.T) {
	root1 := writeValidRepo(t)
	b1, err := Load(root1, "uas-small")
	if err != nil {
		t.Fatalf("Load root1: %v", err)
	}

	root2 := writeValidRepo(t)
	path := filepath.Join(root2, "spec/asc/tuple.yaml")
	data, _ := os.ReadFile(path)
	data = append(data, []byte("   \n\n")...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	b2, err := Load(root2, "uas-small")
	if err != nil {
		t.Fatalf("Load root2: %v", err)
	}

	if b1.Fingerprint != b2.Fingerprint {
		t.Fatalf("fingerprint changed under trailing blank lines: %q vs %q", b1.Fingerprint, b2.Fingerprint)
	}
}

func TestLoadFingerprintChangesOnMaterialEdit(t *testing.T) {
	root1 := writeValidRepo(t)
	b1, err := Load(root1, "uas-small")
	if err != nil {
		t.Fatalf("Load root1: %v", err)
	}

	root2 := writeValidRepo(t)
	path := filepath.Join(root2, "spec/asc/flow-phs.yaml")
	data, _ := os.ReadFile(path)
	patched := replaceLine(string(data), "max_roll_rate_dps: 120.0", "max_roll_rate_dps: 121.0")
	if err := os.WriteFile(path, []byte(patched), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	b2, err := Load(root2, "uas-small")
	if err != nil {
		t.Fatalf("Load root2: %v", err)
	}

	if b1.Fingerprint == b2.Fingerprint {
		t.Fatal("fingerprint unchanged after a threshold edit")
	}
}

func TestLoadMissingFieldIsParseError(t *testing.T) {
	root := writeValidRepo(t)
	path := filepath.Join(root, "spec/asc/interlock-gate.yaml")
	data, _ := os.ReadFile(path)
	patched := replaceLine(string(data), "armed_required: true", "")
	if err := os.WriteFile(path, []byte(patched), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(root, "uas-small")
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("got %T (%v), want *ParseError", err, err)
	}
}

func TestLoadMissingNestedFieldIsParseError(t *testing.T) {
	root := writeValidRepo(t)
	path := filepath.Join(root, "spec/profiles/uas-small.yaml")
	if err := os.WriteFile(path, []byte("name: uas-small\ntiming:\n  control_hz: 50.0\n  deadline_ms: 20.0\ncapabilities:\n  vtol: true\n  fixed_wing: false\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(root, "uas-small")
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("got %T (%v), want *ParseError", err, err)
	}
}

func TestValidateRejectsMissingRequiredReasonCode(t *testing.T) {
	root := writeValidRepo(t)
	path := filepath.Join(root, "spec/asc/tuple.yaml")
	data, _ := os.ReadFile(path)
	patched := replaceLine(string(data), "  - DeadlineMiss", "")
	if err := os.WriteFile(path, []byte(patched), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(root, "uas-small")
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("got %T (%v), want *ValidationError", err, err)
	}
	if len(ve.Violations) == 0 {
		t.Fatal("ValidationError has no violations listed")
	}
}

func TestValidateRejectsDeadlineExceedingTickInterval(t *testing.T) {
	root := writeValidRepo(t)
	path := filepath.Join(root, "spec/asc/guarantees-stl.yaml")
	if err := os.WriteFile(path, []byte("max_input_age_ms: 200\nmax_tick_interval_ms: 10\ndeadline_ms: 20\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(root, "uas-small")
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("got %T (%v), want *ValidationError", err, err)
	}
}

func replaceLine(content, line, replacement string) string {
	out := ""
	for _, l := range splitLines(content) {
		if l == line {
			if replacement != "" {
				out += replacement + "\n"
			}
			continue
		}
		out += l + "\n"
	}
	return out
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
