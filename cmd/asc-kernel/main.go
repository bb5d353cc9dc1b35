// Package main — cmd/asc-kernel/main.go
//
// ASC kernel host entrypoint.
//
// Startup sequence:
//  1. Load and validate host config from /etc/asc-kernel/config.yaml.
//  2. Initialise structured logger (zap).
//  3. Load the contract bundle (repo path + profile) and compute its
//     fingerprint.
//  4. Open the hash-chained event log (BoltDB-backed if db_path is set,
//     otherwise purely in-memory).
//  5. Construct the Runtime from the loaded contract and the event log.
//  6. Start the Prometheus metrics server on the configured address
//     (loopback by default).
//  7. Drive the Runtime from newline-delimited JSON KernelInput records on
//     stdin, one Evaluate call per line, writing KernelOutput records to
//     stdout as they're produced.
//  8. Block on SIGINT/SIGTERM for graceful shutdown.
//
// Shutdown sequence (on SIGINT/SIGTERM, or stdin EOF):
//  1. Stop reading stdin.
//  2. Close the event log.
//  3. Flush the logger.
//  4. Exit 0.
//
// On contract load failure: exit 1 immediately. There is no partial
// contract and no fallback profile.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ascsys/asc-kernel/internal/config"
	"github.com/ascsys/asc-kernel/internal/contract"
	"github.com/ascsys/asc-kernel/internal/eventlog"
	"github.com/ascsys/asc-kernel/internal/kernel"
	"github.com/ascsys/asc-kernel/internal/observability"
)

func main() {
	configPath := flag.String("config", "/etc/asc-kernel/config.yaml", "Path to config.yaml")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("asc-kernel %s (commit=%s built=%s)\n",
			config.Version, config.GitCommit, config.BuildTime)
		os.Exit(0)
	}

	// ── Step 1: Load config ───────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: config load failed: %v\n", err)
		os.Exit(1)
	}

	// ── Step 2: Initialise logger ─────────────────────────────────────────────
	log, err := buildLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("asc-kernel starting",
		zap.String("version", config.Version),
		zap.String("commit", config.GitCommit),
		zap.String("built", config.BuildTime),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Step 3: Load contract bundle ──────────────────────────────────────────
	metrics := observability.NewMetrics()

	bundle, err := contract.Load(cfg.Contract.RepoPath, cfg.Contract.Profile)
	if err != nil {
		metrics.ContractLoadFailuresTotal.WithLabelValues(contractFailureKind(err)).Inc()
		log.Fatal("contract load failed — aborting (no partial contract)",
			zap.Error(err),
			zap.String("repo_path", cfg.Contract.RepoPath),
			zap.String("profile", cfg.Contract.Profile))
	}
	log.Info("contract loaded",
		zap.String("fingerprint", bundle.Fingerprint),
		zap.String("profile", cfg.Contract.Profile))

	// ── Step 4: Open event log ────────────────────────────────────────────────
	var elog *eventlog.Log
	if cfg.EventLog.DBPath != "" {
		elog, err = eventlog.Open(cfg.EventLog.DBPath)
		if err != nil {
			log.Fatal("event log open failed", zap.Error(err), zap.String("path", cfg.EventLog.DBPath))
		}
		elog.OnPersistError(func(err error) {
			metrics.LogPersistFailuresTotal.Inc()
			log.Error("event log persist failed — in-memory tip no longer matches durable storage",
				zap.Error(err))
		})
		log.Info("event log opened", zap.String("path", cfg.EventLog.DBPath))
	} else {
		elog = eventlog.New()
		log.Info("event log is in-memory only (no event_log.db_path configured)")
	}
	defer elog.Close() //nolint:errcheck

	// ── Step 5: Construct Runtime ─────────────────────────────────────────────
	rt := kernel.FromContract(bundle, elog)

	// ── Step 6: Metrics server ────────────────────────────────────────────────
	go func() {
		if err := metrics.ServeMetrics(ctx, cfg.Observability.MetricsAddr); err != nil {
			log.Error("metrics server error", zap.Error(err))
		}
	}()
	log.Info("metrics server started", zap.String("addr", cfg.Observability.MetricsAddr))

	// ── Step 7: Drive the Runtime from stdin ──────────────────────────────────
	done := make(chan struct{})
	go func() {
		defer close(done)
		runLoop(rt, metrics, log)
	}()

	// ── Step 8: Wait for shutdown signal or stdin exhaustion ──────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case <-done:
		log.Info("stdin exhausted — shutting down")
	}

	cancel()

	shutdownTimer := time.NewTimer(2 * time.Second)
	defer shutdownTimer.Stop()
	select {
	case <-shutdownTimer.C:
	case <-done:
	}

	log.Info("asc-kernel shutdown complete", zap.String("tip_hash", rt.TipHash()))
}

// wireInput is the newline-delimited JSON shape read from stdin: one line
// per tick, in tick order.
type wireInput struct {
	Tick struct {
		Seq  uint64 `json:"seq"`
		TSMs uint64 `json:"ts_ms"`
	} `json:"tick"`
	ObservedState struct {
		Frame       string     `json:"frame"`
		PositionM   [3]float64 `json:"position_m"`
		VelocityMPS float64    `json:"velocity_mps"`
		BankDeg     float64    `json:"bank_deg"`
		SOCPercent  float64    `json:"soc_percent"`
		InputAgeMS  uint64     `json:"input_age_ms"`
	} `json:"observed_state"`
	Intent struct {
		DesiredRatesDPS [3]float64 `json:"desired_rates_dps"`
		DesiredClimbMPS float64    `json:"desired_climb_mps"`
	} `json:"intent"`
}

// runLoop reads one wireInput per line from stdin, evaluates it, and writes
// the resulting KernelOutput as one JSON line per tick to stdout. A
// malformed line is logged and skipped — it never reaches Evaluate, so it
// cannot corrupt the event log.
func runLoop(rt *kernel.Runtime, metrics *observability.Metrics, log *zap.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var in wireInput
		if err := json.Unmarshal(line, &in); err != nil {
			log.Error("malformed kernel input line — skipped", zap.Error(err))
			continue
		}

		ki := kernel.KernelInput{
			Tick: kernel.Tick{Seq: in.Tick.Seq, TSMs: in.Tick.TSMs},
			ObservedState: kernel.ObservedState{
				Frame:       in.ObservedState.Frame,
				PositionM:   in.ObservedState.PositionM,
				VelocityMPS: in.ObservedState.VelocityMPS,
				BankDeg:     in.ObservedState.BankDeg,
				SOCPercent:  in.ObservedState.SOCPercent,
				InputAgeMS:  in.ObservedState.InputAgeMS,
			},
			Intent: kernel.Intent{
				DesiredRatesDPS: in.Intent.DesiredRatesDPS,
				DesiredClimbMPS: in.Intent.DesiredClimbMPS,
			},
		}

		start := time.Now()
		out := rt.Evaluate(ki)
		metrics.TickLatencySeconds.Observe(time.Since(start).Seconds())
		metrics.TicksEvaluatedTotal.Inc()
		metrics.VerdictsTotal.WithLabelValues(out.Verdict.String()).Inc()
		for _, r := range out.Reasons {
			metrics.ReasonsTotal.WithLabelValues(string(r)).Inc()
		}
		metrics.LogDepth.Set(float64(len(rt.Log().Records())))

		if err := enc.Encode(out); err != nil {
			log.Error("failed to write kernel output", zap.Error(err))
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		log.Error("stdin read error", zap.Error(err))
	}
}

// contractFailureKind classifies a contract load error for the
// ContractLoadFailuresTotal label.
func contractFailureKind(err error) string {
	switch err.(type) {
	case *contract.IOError:
		return "io"
	case *contract.ParseError:
		return "parse"
	case *contract.ValidationError:
		return "validation"
	default:
		return "unknown"
	}
}

// buildLogger constructs a zap.Logger with the given level and format.
func buildLogger(level, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	return cfg.Build()
}
