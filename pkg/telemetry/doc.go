// Package telemetry provides logging, tracing and metrics for chassis.
//
// The package integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry) and metrics (Prometheus) behind one Telemetry value that
// the command layer builds once from the resolved configuration.
//
// # Usage
//
//	cfg := telemetry.DefaultConfig()
//	cfg.Metrics.ListenAddress = ":9090"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	if err := tel.StartMetricsServer(ctx); err != nil {
//	    return err
//	}
//
// # Structured Logging
//
//	logger := tel.Logger.NewComponentLogger("scripting")
//	logger.WithRunID(runID).Info("Script started")
//
// Log levels: trace, debug, info, warn, error, fatal. Script log records
// use all six; see the logbridge package for the mapping.
//
// # Metrics
//
// Metrics implements the observer interfaces of the options, logbridge and
// scripting packages, so it can be handed to each of them directly:
//
//	options.Resolve(kf, "chassis", table, options.WithObserver(tel.Metrics))
//	logbridge.New(logger, logbridge.WithObserver(tel.Metrics))
//	scripting.NewRuntime(bridge, scripting.WithRecorder(tel.Metrics))
//
// Exposed metrics:
//   - chassis_script_log_records_total{severity}
//   - chassis_script_log_attribution_fallbacks_total
//   - chassis_config_options_total{group,option,outcome}
//   - chassis_config_resolutions_total{status}
//   - chassis_script_runs_total{status}
//   - chassis_script_run_duration_seconds{status}
//   - chassis_active_scripts
//
// # Tracing
//
// Exporters: otlp (gRPC), stdout, none. Keyfile resolution and every script
// execution open a span.
package telemetry
