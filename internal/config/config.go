// Package config provides configuration loading, validation, and defaults
// for the ASC kernel host (cmd/asc-kernel).
//
// Configuration file: /etc/asc-kernel/config.yaml (default)
// Schema version: 1
//
// This holds HOST configuration — where to find the contract repo, which
// profile to load, how to log, where the event log persists — not the
// contract itself. The contract's own thresholds live in
// internal/contract and are loaded separately, because the contract is
// never hot-reloaded mid-flight while host config like log level may
// change between runs.
//
// Validation:
//   - All required fields must be present.
//   - File paths must be absolute.
//   - Invalid config: the host refuses to start (fatal error). There is no
//     hot-reload path for this config — a fresh process picks up changes.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Version, GitCommit, BuildTime can be injected at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Config is the root configuration structure for the ASC kernel host.
type Config struct {
	// SchemaVersion must be "1".
	SchemaVersion string `yaml:"schema_version"`

	// Contract configures where to load the contract bundle from.
	Contract ContractConfig `yaml:"contract"`

	// EventLog configures the hash-chained event log's persistence.
	EventLog EventLogConfig `yaml:"event_log"`

	// Observability configures metrics and logging.
	Observability ObservabilityConfig `yaml:"observability"`
}

// ContractConfig locates the declarative contract this kernel enforces.
type ContractConfig struct {
	// RepoPath is the absolute path to the directory containing
	// spec/asc/*.yaml and spec/profiles/*.yaml.
	RepoPath string `yaml:"repo_path"`

	// Profile is the profile name to load from spec/profiles/<profile>.yaml.
	Profile string `yaml:"profile"`
}

// EventLogConfig controls the hash-chained event log's durable backing.
type EventLogConfig struct {
	// DBPath is the absolute path to the BoltDB file backing the event
	// log. Empty means the log is purely in-memory (no persistence).
	DBPath string `yaml:"db_path"`
}

// ObservabilityConfig holds metrics and logging parameters.
type ObservabilityConfig struct {
	// MetricsAddr is the Prometheus metrics HTTP bind address.
	// Default: 127.0.0.1:9091.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel controls the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// LogFormat controls the log output format (json, console).
	LogFormat string `yaml:"log_format"`
}

// Defaults returns a Config populated with all default values.
func Defaults() Config {
	return Config{
		SchemaVersion: "1",
		Contract: ContractConfig{
			RepoPath: "/etc/asc-kernel/contract",
			Profile:  "uas-small",
		},
		EventLog: EventLogConfig{
			DBPath: "/var/lib/asc-kernel/eventlog.db",
		},
		Observability: ObservabilityConfig{
			MetricsAddr: "127.0.0.1:9091",
			LogLevel:    "info",
			LogFormat:   "json",
		},
	}
}

// Load reads and validates a host config file from path.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse %q: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks all config fields for correctness, returning a
// descriptive error listing every violation found.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.SchemaVersion != "1" {
		errs = append(errs, fmt.Sprintf("schema_version must be \"1\", got %q", cfg.SchemaVersion))
	}
	if cfg.Contract.RepoPath == "" {
		errs = append(errs, "contract.repo_path must not be empty")
	} else if !filepath.IsAbs(cfg.Contract.RepoPath) {
		errs = append(errs, fmt.Sprintf("contract.repo_path must be absolute, got %q", cfg.Contract.RepoPath))
	}
	if cfg.Contract.Profile == "" {
		errs = append(errs, "contract.profile must not be empty")
	}
	if cfg.EventLog.DBPath != "" && !filepath.IsAbs(cfg.EventLog.DBPath) {
		errs = append(errs, fmt.Sprintf("event_log.db_path must be absolute, got %q", cfg.EventLog.DBPath))
	}
	switch cfg.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("observability.log_level must be one of debug|info|warn|error, got %q", cfg.Observability.LogLevel))
	}
	switch cfg.Observability.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("observability.log_format must be json|console, got %q", cfg.Observability.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", joinStrings(errs, "\n  - "))
	}
	return nil
}

func joinStrings(ss []string, sep string) string {
	if len(ss) == 0 {
		return ""
	}
	result := ss[0]
	for _, s := range ss[1:] {
		result += sep + s
	}
	return result
}
