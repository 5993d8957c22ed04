package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/openfroyo/chassis/pkg/options"
)

// Metrics provides Prometheus metrics for chassis. A disabled instance
// accepts every call and records nothing.
type Metrics struct {
	config MetricsConfig

	// Log bridge metrics
	logRecords           *prometheus.CounterVec
	attributionFallbacks prometheus.Counter

	// Configuration metrics
	optionOutcomes *prometheus.CounterVec
	resolutions    *prometheus.CounterVec

	// Script metrics
	scriptRuns     *prometheus.CounterVec
	scriptDuration *prometheus.HistogramVec
	activeScripts  prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		logRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "script_log_records_total",
				Help:      "Total number of log records emitted by scripts",
			},
			[]string{"severity"},
		),
		attributionFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "script_log_attribution_fallbacks_total",
				Help:      "Total number of script log records with no file-backed frame",
			},
		),

		optionOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_options_total",
				Help:      "Total number of option resolutions by outcome",
			},
			[]string{"group", "option", "outcome"},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_resolutions_total",
				Help:      "Total number of keyfile resolution passes by status",
			},
			[]string{"status"},
		),

		scriptRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "script_runs_total",
				Help:      "Total number of script executions by status",
			},
			[]string{"status"},
		),
		scriptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "script_run_duration_seconds",
				Help:      "Duration of script execution in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),
		activeScripts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_scripts",
				Help:      "Current number of running scripts",
			},
		),
	}

	registry.MustRegister(
		m.logRecords,
		m.attributionFallbacks,
		m.optionOutcomes,
		m.resolutions,
		m.scriptRuns,
		m.scriptDuration,
		m.activeScripts,
	)

	return m, nil
}

// Registry returns the registry the metrics are registered with, or nil when
// metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Log Bridge Metrics

// ObserveLogRecord counts one record emitted by a script.
func (m *Metrics) ObserveLogRecord(severity string, fallback bool) {
	if m.logRecords == nil {
		return
	}
	m.logRecords.WithLabelValues(severity).Inc()
	if fallback {
		m.attributionFallbacks.Inc()
	}
}

// Configuration Metrics

// ObserveOption counts the outcome of resolving one option.
func (m *Metrics) ObserveOption(group, option string, outcome options.Outcome) {
	if m.optionOutcomes == nil {
		return
	}
	m.optionOutcomes.WithLabelValues(group, option, string(outcome)).Inc()
}

// RecordResolution counts one resolution pass.
func (m *Metrics) RecordResolution(status options.Status) {
	if m.resolutions == nil {
		return
	}
	m.resolutions.WithLabelValues(status.String()).Inc()
}

// Script Metrics

// ScriptStarted marks a script as running.
func (m *Metrics) ScriptStarted() {
	if m.activeScripts == nil {
		return
	}
	m.activeScripts.Inc()
}

// ObserveScriptRun records a finished script with its status and duration.
func (m *Metrics) ObserveScriptRun(status string, duration time.Duration) {
	if m.scriptRuns == nil {
		return
	}
	m.scriptRuns.WithLabelValues(status).Inc()
	m.scriptDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.activeScripts.Dec()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer serves metrics until ctx is done. It returns
// immediately; serve errors are logged to logger.
func (m *Metrics) StartMetricsServer(ctx context.Context, logger zerolog.Logger) error {
	if !m.config.Enabled || m.config.ListenAddress == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("address", m.config.ListenAddress).Msg("Metrics server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("address", m.config.ListenAddress).Str("path", m.config.Path).Msg("Metrics server started")
	return nil
}
