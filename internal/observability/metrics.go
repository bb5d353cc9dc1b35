// Package observability — metrics.go
//
// Prometheus metrics for the ASC kernel host.
//
// Endpoint: GET /metrics on 127.0.0.1:9091 (configurable).
// Format: Prometheus text exposition format (OpenMetrics compatible).
// Bind: loopback by default. The configured address is used as given; a
// non-loopback metrics_addr is not rejected.
//
// Metric naming convention: asc_<subsystem>_<name>_<unit>
//
// All metrics are registered on a dedicated prometheus.Registry (not the
// default global registry) to avoid collisions with other instrumented
// libraries in the same process. These metrics describe the host loop
// around the kernel; the core evaluate path itself never touches this
// package — it has no observability dependency of its own.
//
// Cardinality control:
//   - Verdict and reason-code labels are closed enumerations (5 and 8
//     values respectively) — safe as labels.
//   - Tick sequence number is NEVER used as a label.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metric descriptors for the ASC kernel host.
type Metrics struct {
	registry *prometheus.Registry

	// ─── Ticks ────────────────────────────────────────────────────────────────

	// TicksEvaluatedTotal counts ticks run through Runtime.Evaluate.
	TicksEvaluatedTotal prometheus.Counter

	// TickLatencySeconds records how long one Evaluate call takes.
	TickLatencySeconds prometheus.Histogram

	// VerdictsTotal counts arbitrated verdicts, by verdict name.
	VerdictsTotal *prometheus.CounterVec

	// ReasonsTotal counts triggered check outcomes, by reason code.
	ReasonsTotal *prometheus.CounterVec

	// ─── Event log ────────────────────────────────────────────────────────────

	// LogAppendLatencySeconds records event log append latency.
	LogAppendLatencySeconds prometheus.Histogram

	// LogDepth is the current number of records in the event log.
	LogDepth prometheus.Gauge

	// LogPersistFailuresTotal counts Append calls whose BoltDB write
	// failed. The in-memory hash chain still advances on a persist
	// failure; this counter is the operator-visible signal that the
	// durable copy has fallen behind it.
	LogPersistFailuresTotal prometheus.Counter

	// ─── Host ─────────────────────────────────────────────────────────────────

	// ContractLoadFailuresTotal counts fatal contract load errors, by kind
	// (io, parse, validation).
	ContractLoadFailuresTotal *prometheus.CounterVec

	// HostUptimeSeconds is the number of seconds since host start.
	HostUptimeSeconds prometheus.Gauge

	startTime time.Time
}

// NewMetrics creates and registers all ASC kernel Prometheus metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		TicksEvaluatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asc",
			Subsystem: "kernel",
			Name:      "ticks_evaluated_total",
			Help:      "Total ticks run through Runtime.Evaluate.",
		}),

		TickLatencySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "asc",
			Subsystem: "kernel",
			Name:      "tick_latency_seconds",
			Help:      "Wall-clock latency of one Runtime.Evaluate call.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),

		VerdictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asc",
			Subsystem: "kernel",
			Name:      "verdicts_total",
			Help:      "Total arbitrated verdicts, by verdict name.",
		}, []string{"verdict"}),

		ReasonsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asc",
			Subsystem: "kernel",
			Name:      "reasons_total",
			Help:      "Total triggered check outcomes, by reason code.",
		}, []string{"reason"}),

		LogAppendLatencySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "asc",
			Subsystem: "eventlog",
			Name:      "append_latency_seconds",
			Help:      "Latency of appending one record to the event log.",
			Buckets:   prometheus.DefBuckets,
		}),

		LogDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "asc",
			Subsystem: "eventlog",
			Name:      "depth",
			Help:      "Current number of records in the event log.",
		}),

		LogPersistFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asc",
			Subsystem: "eventlog",
			Name:      "persist_failures_total",
			Help:      "Total Append calls whose BoltDB write failed.",
		}),

		ContractLoadFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asc",
			Subsystem: "contract",
			Name:      "load_failures_total",
			Help:      "Total fatal contract load failures, by kind (io, parse, validation).",
		}, []string{"kind"}),

		HostUptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "asc",
			Subsystem: "host",
			Name:      "uptime_seconds",
			Help:      "Number of seconds since the host process started.",
		}),
	}

	reg.MustRegister(
		m.TicksEvaluatedTotal,
		m.TickLatencySeconds,
		m.VerdictsTotal,
		m.ReasonsTotal,
		m.LogAppendLatencySeconds,
		m.LogDepth,
		m.LogPersistFailuresTotal,
		m.ContractLoadFailuresTotal,
		m.HostUptimeSeconds,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// ServeMetrics starts the Prometheus HTTP metrics server on addr and blocks
// until ctx is cancelled or the server fails.
func (m *Metrics) ServeMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go m.updateUptime(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server on %s: %w", addr, err)
	}
	return nil
}

func (m *Metrics) updateUptime(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.HostUptimeSeconds.Set(time.Since(m.startTime).Seconds())
		case <-ctx.Done():
			return
		}
	}
}
