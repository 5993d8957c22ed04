package scripting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/openfroyo/chassis/pkg/logbridge"
	"github.com/openfroyo/chassis/pkg/telemetry"
)

const (
	// ModuleName is the name scripts use to reach the host functions.
	ModuleName = "chassis"

	// ModuleVersion is exposed to scripts as chassis._VERSION.
	ModuleVersion = "chassis 0.1"
)

// ErrTimeout is returned when a script runs past its deadline.
var ErrTimeout = errors.New("script execution timeout")

// Recorder is told when a script starts and how it finished.
type Recorder interface {
	ScriptStarted()
	ObserveScriptRun(status string, duration time.Duration)
}

// Result is the outcome of a script execution.
type Result struct {
	// RunID identifies the execution in logs.
	RunID string

	// Output holds the script's public globals converted to Go values.
	Output map[string]interface{}

	// ExecutionTime is the wall-clock duration of the run.
	ExecutionTime time.Duration
}

// Runtime executes Starlark scripts with the log bridge installed.
type Runtime struct {
	bridge     *logbridge.Bridge
	logger     zerolog.Logger
	timeout    time.Duration
	redirect   bool
	output     io.Writer
	searchPath []string
	shutdown   func()
	recorder   Recorder
}

// Option customizes a Runtime.
type Option func(*Runtime)

// WithTimeout bounds every execution. Zero selects the 30 second default.
func WithTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		r.timeout = d
	}
}

// WithRedirectPrint routes print() through the bridge and keeps the plain
// output function as os.print.
func WithRedirectPrint(enabled bool) Option {
	return func(r *Runtime) {
		r.redirect = enabled
	}
}

// WithOutput sets where unredirected print() output goes. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) {
		r.output = w
	}
}

// WithSearchPath sets the directories load() searches, in order.
func WithSearchPath(dirs ...string) Option {
	return func(r *Runtime) {
		r.searchPath = append([]string(nil), dirs...)
	}
}

// WithShutdown sets the function chassis.set_shutdown() calls.
func WithShutdown(fn func()) Option {
	return func(r *Runtime) {
		r.shutdown = fn
	}
}

// WithLogger sets the logger for runtime diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithRecorder reports every execution to rec.
func WithRecorder(rec Recorder) Option {
	return func(r *Runtime) {
		r.recorder = rec
	}
}

// NewRuntime creates a runtime whose scripts log through bridge.
func NewRuntime(bridge *logbridge.Bridge, opts ...Option) *Runtime {
	r := &Runtime{
		bridge: bridge,
		logger: zerolog.Nop(),
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.timeout == 0 {
		r.timeout = 30 * time.Second
	}
	return r
}

// ExecFile runs the script at path. The chunk is named with the file
// marker so log lines are attributed to the file.
func (r *Runtime) ExecFile(ctx context.Context, path string, input map[string]interface{}) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return r.Exec(ctx, string(logbridge.FileMarker)+path, src, input)
}

// ExecString runs src as a chunk called name.
func (r *Runtime) ExecString(ctx context.Context, name, src string, input map[string]interface{}) (*Result, error) {
	return r.Exec(ctx, name, src, input)
}

// Exec runs src, named chunk, with input bound as predeclared globals.
func (r *Runtime) Exec(ctx context.Context, chunk string, src interface{}, input map[string]interface{}) (*Result, error) {
	runID := uuid.New().String()
	startTime := time.Now()

	ctx, span := telemetry.StartScriptSpan(ctx, chunk, runID)
	defer span.End()

	evalCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	thread, env, err := r.newThread(runID, input)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		globals starlark.StringDict
		err     error
	}
	done := make(chan outcome, 1)

	r.logger.Debug().Str("run_id", runID).Str("chunk", chunk).Msg("Executing script")
	if r.recorder != nil {
		r.recorder.ScriptStarted()
	}

	go func() {
		globals, err := starlark.ExecFile(thread, chunk, src, env)
		done <- outcome{globals, err}
	}()

	var res outcome
	select {
	case <-evalCtx.Done():
		thread.Cancel(evalCtx.Err().Error())
		<-done
		r.finish(span, "timeout", evalCtx.Err(), startTime)
		if errors.Is(evalCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", ErrTimeout, r.timeout)
		}
		return nil, fmt.Errorf("script execution cancelled: %w", evalCtx.Err())
	case res = <-done:
	}

	if res.err != nil {
		r.finish(span, "failed", res.err, startTime)
		return nil, fmt.Errorf("starlark execution failed: %w", res.err)
	}

	output := make(map[string]interface{})
	for name, val := range res.globals {
		if len(name) > 0 && name[0] == '_' {
			continue
		}
		goVal, err := fromStarlarkValue(val)
		if errors.Is(err, errUnsupported) {
			continue
		}
		if err != nil {
			r.finish(span, "failed", err, startTime)
			return nil, fmt.Errorf("failed to convert output %s: %w", name, err)
		}
		output[name] = goVal
	}

	elapsed := r.finish(span, "succeeded", nil, startTime)
	return &Result{RunID: runID, Output: output, ExecutionTime: elapsed}, nil
}

func (r *Runtime) finish(span trace.Span, status string, err error, start time.Time) time.Duration {
	elapsed := time.Since(start)
	telemetry.FinishScriptSpan(span, status, err)
	if r.recorder != nil {
		r.recorder.ObserveScriptRun(status, elapsed)
	}
	return elapsed
}

// newThread builds the thread and predeclared environment for one run.
func (r *Runtime) newThread(runID string, input map[string]interface{}) (*starlark.Thread, starlark.StringDict, error) {
	bridge := r.bridge.WithField("run_id", runID)
	out := r.output

	thread := &starlark.Thread{
		Name: "chassis-" + runID,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(out, msg)
		},
	}

	env := starlark.StringDict{
		"struct":   starlark.NewBuiltin("struct", starlarkstruct.Make),
		ModuleName: r.module(bridge),
	}

	for key, val := range input {
		starlarkVal, err := toStarlarkValue(val)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to convert input %s: %w", key, err)
		}
		env[key] = starlarkVal
	}

	if r.redirect {
		if err := logbridge.NewRedirect(bridge, out).Install(thread, env); err != nil {
			return nil, nil, err
		}
	}

	thread.Load = newLoader(r.searchPath, env).load
	return thread, env, nil
}

// module assembles the chassis module: the bridge entry points plus host
// controls.
func (r *Runtime) module(bridge *logbridge.Bridge) *starlarkstruct.Module {
	members := bridge.Builtins()
	members["set_shutdown"] = starlark.NewBuiltin("set_shutdown", r.builtinSetShutdown)
	members["_VERSION"] = starlark.String(ModuleVersion)
	members["_DESCRIPTION"] = starlark.String("export chassis functions as chassis.*")
	return &starlarkstruct.Module{Name: ModuleName, Members: members}
}

func (r *Runtime) builtinSetShutdown(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	r.logger.Info().Str("thread", thread.Name).Msg("Shutdown requested by script")
	if r.shutdown != nil {
		r.shutdown()
	}
	return starlark.None, nil
}
