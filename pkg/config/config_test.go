package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfroyo/chassis/pkg/options"
	"github.com/openfroyo/chassis/pkg/telemetry"
)

func writeKeyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chassis.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func parseFlags(t *testing.T, args ...string) *Options {
	t.Helper()
	o := NewOptions()
	fs := pflag.NewFlagSet("chassis", pflag.ContinueOnError)
	o.BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return o
}

func TestLoad_Defaults(t *testing.T) {
	o := parseFlags(t)
	res, err := o.Load(context.Background(), WithWorkingDir("/srv/app"))
	require.NoError(t, err)

	s := res.Settings
	assert.Equal(t, options.StatusNoSource, res.Status)
	assert.Equal(t, "/srv/app", s.BaseDir)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "console", s.LogFormat)
	assert.Equal(t, "rfc3339", s.LogTimeFormat)
	assert.True(t, s.RedirectPrint)
	assert.Equal(t, 10, s.StackDepth)
	assert.Equal(t, 30*time.Second, s.Timeout())
	assert.True(t, s.MetricsEnabled)
	assert.Equal(t, "none", s.TracingExporter)
	assert.Equal(t, 1.0, s.TracingSamplingRate)
	assert.Empty(t, s.Scripts)
}

func TestLoad_KeyFileFillsGaps(t *testing.T) {
	path := writeKeyFile(t, `
[chassis]
basedir = /from/file
script = init.star;/abs/other.star
script-path = lib
log-level = DEBUG
stack-depth = 12
script-timeout = 2.5
log-caller = 1

[other]
log-level = error
`)
	o := parseFlags(t, "--defaults-file", path, "--basedir", "/from/flag")

	res, err := o.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, options.StatusOK, res.Status)
	assert.NoError(t, res.ResolveErr)

	s := res.Settings
	assert.Equal(t, "/from/flag", s.BaseDir, "flags win over the file for strings")
	assert.Equal(t, []string{"/from/flag/init.star", "/abs/other.star"}, s.Scripts)
	assert.Equal(t, []string{"/from/flag/lib"}, s.ScriptPath)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 12, s.StackDepth)
	assert.Equal(t, 2500*time.Millisecond, s.Timeout())
	assert.True(t, s.LogCaller)
	assert.Equal(t, path, s.DefaultsFile)
}

func TestLoad_FlagScalarsWinAfterKeyFile(t *testing.T) {
	path := writeKeyFile(t, `
[chassis]
redirect-print = true
stack-depth = 4
metrics-enabled = false
`)
	o := parseFlags(t, "--defaults-file", path, "--redirect-print=false", "--stack-depth", "7")

	res, err := o.Load(context.Background(), WithWorkingDir(t.TempDir()))
	require.NoError(t, err)

	assert.False(t, res.Settings.RedirectPrint)
	assert.Equal(t, 7, res.Settings.StackDepth)
	assert.False(t, res.Settings.MetricsEnabled, "file value kept where no flag was given")
}

func TestLoad_PartialFailure(t *testing.T) {
	path := writeKeyFile(t, `
[chassis]
stack-depth = deep
log-format = json
`)
	o := parseFlags(t, "--defaults-file", path)

	res, err := o.Load(context.Background(), WithWorkingDir(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, options.StatusPartialFailure, res.Status)

	var perr *options.ParseError
	require.ErrorAs(t, res.ResolveErr, &perr)
	assert.Equal(t, "stack-depth", perr.Option)

	assert.Equal(t, "json", res.Settings.LogFormat, "good options still applied")
	assert.Equal(t, 10, res.Settings.StackDepth, "bad option falls back to its default")

	var invalid int
	for _, oc := range res.Outcomes {
		if oc.Outcome == options.OutcomeInvalid {
			invalid++
		}
	}
	assert.Equal(t, 1, invalid)
}

func TestLoad_MissingDefaultsFile(t *testing.T) {
	o := parseFlags(t, "--defaults-file", filepath.Join(t.TempDir(), "absent.ini"))
	_, err := o.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load defaults file")
}

func TestLoad_ValidationError(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown level", args: []string{"--log-level", "loud"}},
		{name: "zero depth", args: []string{"--stack-depth", "0"}},
		{name: "negative timeout", args: []string{"--script-timeout=-1"}},
		{name: "otlp without endpoint", args: []string{"--tracing-exporter", "otlp"}},
		{name: "sampling rate", args: []string{"--tracing-sampling-rate", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := parseFlags(t, tt.args...)
			_, err := o.Load(context.Background(), WithWorkingDir(t.TempDir()))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestBindFlags_Parsing(t *testing.T) {
	o := parseFlags(t,
		"--script", "a.star",
		"--script", "b.star;c.star",
		"--log-caller",
		"--script-timeout", "0.5",
	)

	assert.Equal(t, []string{"a.star", "b.star", "c.star"}, o.Scripts.Get())
	assert.True(t, o.LogCaller.Get())
	assert.Equal(t, 0.5, o.ScriptTimeout.Get())
	assert.False(t, o.LogLevel.IsSet())

	fs := pflag.NewFlagSet("bad", pflag.ContinueOnError)
	NewOptions().BindFlags(fs)
	assert.Error(t, fs.Parse([]string{"--log-caller=yes"}), "bool flags use keyfile tokens")
}

func TestResult_Report(t *testing.T) {
	path := writeKeyFile(t, "[chassis]\nlog-level = warn\n")
	o := parseFlags(t, "--defaults-file", path, "--log-level", "debug")

	res, err := o.Load(context.Background(), WithWorkingDir(t.TempDir()))
	require.NoError(t, err)

	m, err := telemetry.NewMetrics(telemetry.DefaultConfig().Metrics)
	require.NoError(t, err)
	res.Report(m)

	count, err := testutil.GatherAndCount(m.Registry(), "chassis_config_options_total")
	require.NoError(t, err)
	assert.Equal(t, len(res.Outcomes), count)

	count, err = testutil.GatherAndCount(m.Registry(), "chassis_config_resolutions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSettings_TelemetryConfig(t *testing.T) {
	s := &Settings{
		LogLevel:            "debug",
		LogFormat:           "json",
		LogTimeFormat:       "unix",
		LogFile:             "/var/log/chassis.log",
		MetricsEnabled:      true,
		MetricsAddress:      ":9090",
		TracingExporter:     "stdout",
		TracingSamplingRate: 0.5,
	}

	cfg := s.TelemetryConfig("1.2.3")
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.Equal(t, "/var/log/chassis.log", cfg.Logging.Output)
	assert.Equal(t, ":9090", cfg.Metrics.ListenAddress)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 0.5, cfg.Tracing.SamplingRate)
}
