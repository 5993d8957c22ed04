package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openfroyo/chassis/pkg/config"
	"github.com/openfroyo/chassis/pkg/logbridge"
	"github.com/openfroyo/chassis/pkg/scripting"
	"github.com/openfroyo/chassis/pkg/telemetry"
)

// environment is everything a command needs once options are resolved.
type environment struct {
	settings  *config.Settings
	telemetry *telemetry.Telemetry
	logger    zerolog.Logger
	runtime   *scripting.Runtime

	// ctx carries telemetry into script runs.
	ctx context.Context

	// done is cancelled when a script calls chassis.set_shutdown(). The
	// running script is left to finish; nothing new is started.
	done context.Context
	stop context.CancelFunc
}

// loadSettings resolves the option layers with the bootstrap logger.
func loadSettings(ctx context.Context, opts *config.Options) (*config.Result, error) {
	return opts.Load(ctx, config.WithLogger(log.Logger.With().Str("component", "config").Logger()))
}

// bootstrap resolves the configuration and builds telemetry, the log bridge
// and the script runtime from it.
func bootstrap(ctx context.Context, opts *config.Options, version string, out io.Writer) (*environment, error) {
	res, err := loadSettings(ctx, opts)
	if err != nil {
		return nil, err
	}
	s := res.Settings

	tel, err := telemetry.NewTelemetry(s.TelemetryConfig(version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	// From here on the configured logger replaces the bootstrap one.
	zerolog.SetGlobalLevel(telemetry.ParseLevel(s.LogLevel))
	log.Logger = tel.Logger.Zerolog()
	res.Report(tel.Metrics)

	env := &environment{
		settings:  s,
		telemetry: tel,
		logger:    tel.Logger.NewComponentLogger("chassis").Zerolog(),
	}
	env.ctx = tel.WithContext(ctx)
	env.done, env.stop = context.WithCancel(env.ctx)

	if err := tel.StartMetricsServer(env.done); err != nil {
		env.close()
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}

	bridge := logbridge.New(
		tel.Logger.NewComponentLogger("script").Zerolog(),
		logbridge.WithWalker(logbridge.NewWalker(s.BaseDir, s.StackDepth)),
		logbridge.WithObserver(tel.Metrics),
	)

	searchPath := append(append([]string(nil), s.ScriptPath...), s.BaseDir)
	env.runtime = scripting.NewRuntime(bridge,
		scripting.WithTimeout(s.Timeout()),
		scripting.WithRedirectPrint(s.RedirectPrint),
		scripting.WithOutput(out),
		scripting.WithSearchPath(searchPath...),
		scripting.WithShutdown(env.requestShutdown),
		scripting.WithLogger(tel.Logger.NewComponentLogger("scripting").Zerolog()),
		scripting.WithRecorder(tel.Metrics),
	)

	env.logger.Debug().
		Str("basedir", s.BaseDir).
		Str("status", res.Status.String()).
		Int("scripts", len(s.Scripts)).
		Msg("Configuration resolved")

	return env, nil
}

func (e *environment) requestShutdown() {
	if e.settings.VerboseShutdown {
		e.logger.Info().Time("at", time.Now()).Msg("Shutdown requested by script")
	}
	e.stop()
}

// close flushes telemetry and releases the log file.
func (e *environment) close() {
	e.stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.telemetry.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Telemetry shutdown failed")
	}
	if e.settings.VerboseShutdown {
		log.Info().Msg("Shutting down normally")
	}
}
