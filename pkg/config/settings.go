package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/openfroyo/chassis/pkg/telemetry"
)

// Settings is the resolved configuration of one chassis process.
type Settings struct {
	// BaseDir is absolute. Script log lines are reported relative to it.
	BaseDir string `yaml:"basedir" json:"basedir" validate:"required"`

	// DefaultsFile is the keyfile the options were read from, if any.
	DefaultsFile string `yaml:"defaults-file,omitempty" json:"defaults_file,omitempty"`

	// Scripts are absolute script paths, in execution order.
	Scripts []string `yaml:"script" json:"script" validate:"dive,required"`

	// ScriptPath lists the absolute directories load() searches.
	ScriptPath []string `yaml:"script-path,omitempty" json:"script_path,omitempty" validate:"dive,required"`

	LogLevel      string `yaml:"log-level" json:"log_level" validate:"oneof=trace debug info warn error fatal"`
	LogFormat     string `yaml:"log-format" json:"log_format" validate:"oneof=console json"`
	LogFile       string `yaml:"log-file,omitempty" json:"log_file,omitempty"`
	LogTimeFormat string `yaml:"log-time-format" json:"log_time_format" validate:"oneof=rfc3339 unix unixms unixmicro"`
	LogCaller     bool   `yaml:"log-caller" json:"log_caller"`

	RedirectPrint bool `yaml:"redirect-print" json:"redirect_print"`

	// StackDepth bounds the frames inspected per script log line.
	StackDepth int `yaml:"stack-depth" json:"stack_depth" validate:"min=1,max=256"`

	// ScriptTimeout is in seconds.
	ScriptTimeout float64 `yaml:"script-timeout" json:"script_timeout" validate:"gt=0"`

	MetricsEnabled bool   `yaml:"metrics-enabled" json:"metrics_enabled"`
	MetricsAddress string `yaml:"metrics-address,omitempty" json:"metrics_address,omitempty"`

	TracingExporter     string  `yaml:"tracing-exporter" json:"tracing_exporter" validate:"oneof=otlp stdout none"`
	TracingEndpoint     string  `yaml:"tracing-endpoint,omitempty" json:"tracing_endpoint,omitempty" validate:"required_if=TracingExporter otlp"`
	TracingSamplingRate float64 `yaml:"tracing-sampling-rate" json:"tracing_sampling_rate" validate:"gte=0,lte=1"`

	VerboseShutdown bool `yaml:"verbose-shutdown" json:"verbose_shutdown"`
}

var validate = validator.New()

// Validate checks the settings against their field constraints.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Timeout returns ScriptTimeout as a duration.
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.ScriptTimeout * float64(time.Second))
}

// TelemetryConfig maps the settings onto a telemetry configuration.
func (s *Settings) TelemetryConfig(version string) *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version

	cfg.Logging.Level = s.LogLevel
	cfg.Logging.Format = s.LogFormat
	cfg.Logging.TimeFormat = s.LogTimeFormat
	cfg.Logging.EnableCaller = s.LogCaller
	if s.LogFile != "" {
		cfg.Logging.Output = s.LogFile
	}

	cfg.Metrics.Enabled = s.MetricsEnabled
	cfg.Metrics.ListenAddress = s.MetricsAddress

	cfg.Tracing.Enabled = s.TracingExporter != "none"
	cfg.Tracing.Exporter = s.TracingExporter
	cfg.Tracing.Endpoint = s.TracingEndpoint
	cfg.Tracing.SamplingRate = s.TracingSamplingRate

	return cfg
}
