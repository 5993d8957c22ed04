package config

import (
	"github.com/openfroyo/chassis/pkg/options"
)

// Group is the keyfile group chassis reads its options from.
const Group = "chassis"

// defaults are applied, in keyfile syntax, to options no layer has set.
// basedir defaults to the working directory instead.
var defaults = map[string]string{
	"log-level":             "info",
	"log-format":            "console",
	"log-time-format":       "rfc3339",
	"redirect-print":        "true",
	"stack-depth":           "10",
	"script-timeout":        "30",
	"metrics-enabled":       "true",
	"tracing-exporter":      "none",
	"tracing-sampling-rate": "1",
}

// Options holds one storage cell per chassis option. Flags write the cells
// first, the keyfile fills the gaps, and Load applies defaults to the rest.
type Options struct {
	BaseDir      options.Value[string]
	DefaultsFile options.Value[string]

	Scripts    options.Value[[]string]
	ScriptPath options.Value[[]string]

	LogLevel      options.Value[string]
	LogFormat     options.Value[string]
	LogFile       options.Value[string]
	LogTimeFormat options.Value[string]
	LogCaller     options.Value[bool]

	RedirectPrint options.Value[bool]
	StackDepth    options.Value[int]
	ScriptTimeout options.Value[float64]

	MetricsEnabled options.Value[bool]
	MetricsAddress options.Value[string]

	TracingExporter     options.Value[string]
	TracingEndpoint     options.Value[string]
	TracingSamplingRate options.Value[float64]

	VerboseShutdown options.Value[bool]

	flags []*flagValue
}

// NewOptions returns an Options with every cell unset.
func NewOptions() *Options {
	return &Options{}
}

// Table returns the descriptors the keyfile group is resolved against.
// defaults-file is command-line only: it names the file being read.
func (o *Options) Table() options.Table {
	return options.Table{
		options.String("basedir", &o.BaseDir, "base directory; relative paths are resolved against it"),
		options.StringList("script", &o.Scripts, "script to execute (repeatable)"),
		options.StringList("script-path", &o.ScriptPath, "directories load() searches for modules"),
		options.String("log-level", &o.LogLevel, "log level (trace, debug, info, warn, error, fatal)"),
		options.String("log-format", &o.LogFormat, "log format (console, json)"),
		options.String("log-file", &o.LogFile, "log to this file instead of stderr"),
		options.String("log-time-format", &o.LogTimeFormat, "timestamp format (rfc3339, unix, unixms, unixmicro)"),
		options.Bool("log-caller", &o.LogCaller, "add host caller information to log records"),
		options.Bool("redirect-print", &o.RedirectPrint, "route script print() through the logger"),
		options.Int("stack-depth", &o.StackDepth, "call stack frames inspected to attribute a script log line"),
		options.Double("script-timeout", &o.ScriptTimeout, "seconds a script may run before it is cancelled"),
		options.Bool("metrics-enabled", &o.MetricsEnabled, "collect Prometheus metrics"),
		options.String("metrics-address", &o.MetricsAddress, "serve metrics on this address"),
		options.String("tracing-exporter", &o.TracingExporter, "trace exporter (otlp, stdout, none)"),
		options.String("tracing-endpoint", &o.TracingEndpoint, "OTLP collector endpoint"),
		options.Double("tracing-sampling-rate", &o.TracingSamplingRate, "fraction of traces sampled"),
		options.Bool("verbose-shutdown", &o.VerboseShutdown, "log the reason and time of shutdown"),
		options.Sentinel,
	}
}
