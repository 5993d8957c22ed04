package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/openfroyo/chassis/pkg/options"
	"github.com/openfroyo/chassis/pkg/telemetry"
)

// OptionOutcome records what resolution did with one keyfile option.
type OptionOutcome struct {
	Option  string
	Outcome options.Outcome
}

// Result is the outcome of Load.
type Result struct {
	Settings *Settings

	// Status is StatusNoSource when no defaults file was given.
	Status options.Status

	// ResolveErr joins one *options.ParseError per malformed keyfile value.
	// It is informational: Load still succeeds.
	ResolveErr error

	// Outcomes lists the per-option results of the keyfile pass.
	Outcomes []OptionOutcome
}

// Report replays the resolution into m. Telemetry is configured from the
// resolved settings, so it only exists after Load returns.
func (r *Result) Report(m *telemetry.Metrics) {
	for _, o := range r.Outcomes {
		m.ObserveOption(Group, o.Option, o.Outcome)
	}
	if r.Status != options.StatusNoSource {
		m.RecordResolution(r.Status)
	}
}

// ObserveOption implements options.Observer.
func (r *Result) ObserveOption(_ string, option string, outcome options.Outcome) {
	r.Outcomes = append(r.Outcomes, OptionOutcome{Option: option, Outcome: outcome})
}

// LoadOption customizes Load.
type LoadOption func(*loader)

type loader struct {
	logger zerolog.Logger
	getwd  func() (string, error)
}

// WithLogger sets the logger resolution diagnostics go to.
func WithLogger(logger zerolog.Logger) LoadOption {
	return func(l *loader) {
		l.logger = logger
	}
}

// WithWorkingDir overrides the directory basedir defaults to.
func WithWorkingDir(dir string) LoadOption {
	return func(l *loader) {
		l.getwd = func() (string, error) { return dir, nil }
	}
}

// Load resolves the keyfile layer, applies defaults and returns the
// validated settings. A missing or unreadable defaults file is an error; a
// malformed value inside it is not.
func (o *Options) Load(ctx context.Context, opts ...LoadOption) (*Result, error) {
	l := &loader{
		logger: zerolog.Nop(),
		getwd:  os.Getwd,
	}
	for _, opt := range opts {
		opt(l)
	}

	res := &Result{Status: options.StatusNoSource}

	if path := o.DefaultsFile.Get(); path != "" {
		if err := o.resolveFile(ctx, l, path, res); err != nil {
			return nil, err
		}
	}

	if err := o.applyDefaults(l); err != nil {
		return nil, err
	}

	settings, err := o.settings()
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	res.Settings = settings
	return res, nil
}

func (o *Options) resolveFile(ctx context.Context, l *loader, path string, res *Result) error {
	_, span := telemetry.StartResolveSpan(ctx, path, Group)
	defer span.End()

	kf, err := options.LoadKeyFile(path)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to load defaults file: %w", err)
	}

	res.Status, res.ResolveErr = options.Resolve(kf, Group, o.Table(),
		options.WithLogger(l.logger),
		options.WithObserver(res),
	)
	span.SetAttributes(telemetry.AttrConfigStatus.String(res.Status.String()))

	if err := o.reapplyFlags(); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to apply command-line options: %w", err)
	}

	if res.ResolveErr != nil {
		telemetry.RecordError(span, res.ResolveErr)
	} else {
		telemetry.RecordSuccess(span)
	}

	l.logger.Debug().
		Str("file", path).
		Str("status", res.Status.String()).
		Int("options", len(res.Outcomes)).
		Msg("Resolved defaults file")
	return nil
}

// applyDefaults fills every option no layer has set.
func (o *Options) applyDefaults(l *loader) error {
	if !o.BaseDir.IsSet() || o.BaseDir.Get() == "" {
		wd, err := l.getwd()
		if err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}
		o.BaseDir.Set(wd)
	}

	var errs []error
	o.Table().Each(func(d *options.Descriptor) {
		raw, ok := defaults[d.Name]
		if !ok || d.IsSet() {
			return
		}
		if err := d.Assign(raw); err != nil {
			errs = append(errs, fmt.Errorf("default for %s: %w", d.Name, err))
		}
	})
	return errors.Join(errs...)
}

// settings snapshots the cells, making paths absolute.
func (o *Options) settings() (*Settings, error) {
	baseDir, err := filepath.Abs(o.BaseDir.Get())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve basedir: %w", err)
	}

	return &Settings{
		BaseDir:             baseDir,
		DefaultsFile:        o.DefaultsFile.Get(),
		Scripts:             underBase(baseDir, o.Scripts.Get()),
		ScriptPath:          underBase(baseDir, o.ScriptPath.Get()),
		LogLevel:            strings.ToLower(o.LogLevel.Get()),
		LogFormat:           strings.ToLower(o.LogFormat.Get()),
		LogFile:             pathUnderBase(baseDir, o.LogFile.Get()),
		LogTimeFormat:       strings.ToLower(o.LogTimeFormat.Get()),
		LogCaller:           o.LogCaller.Get(),
		RedirectPrint:       o.RedirectPrint.Get(),
		StackDepth:          o.StackDepth.Get(),
		ScriptTimeout:       o.ScriptTimeout.Get(),
		MetricsEnabled:      o.MetricsEnabled.Get(),
		MetricsAddress:      o.MetricsAddress.Get(),
		TracingExporter:     strings.ToLower(o.TracingExporter.Get()),
		TracingEndpoint:     o.TracingEndpoint.Get(),
		TracingSamplingRate: o.TracingSamplingRate.Get(),
		VerboseShutdown:     o.VerboseShutdown.Get(),
	}, nil
}

func underBase(baseDir string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, pathUnderBase(baseDir, p))
	}
	return out
}

// pathUnderBase resolves a relative path against baseDir. Empty stays empty.
func pathUnderBase(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
