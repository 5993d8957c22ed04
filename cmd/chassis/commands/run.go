package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/chassis/pkg/config"
	"github.com/openfroyo/chassis/pkg/scripting"
	"github.com/openfroyo/chassis/pkg/telemetry"
)

func newRunCommand(opts *config.Options, version string) *cobra.Command {
	var (
		watch bool
		dump  bool
		vars  map[string]string
	)

	cmd := &cobra.Command{
		Use:   "run [script...]",
		Short: "Run Starlark scripts",
		Long: `Run the scripts named by --script and on the command line, in order.

Scripts see the chassis module (chassis.log, chassis.critical ... chassis.debug,
chassis.set_shutdown) and any --var values as globals. With --redirect-print,
print() goes through the logger at message level and the plain output function
stays available as os.print.`,
		Example: `  # Run a script with options from a keyfile
  chassis --defaults-file /etc/chassis.ini run main.star

  # Pass variables and print the resulting globals
  chassis run --var env=prod --dump report.star

  # Re-run scripts whenever they change
  chassis --basedir ./app --script init.star run --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(cmd.Context(), opts, version, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer env.close()

			scripts := append([]string(nil), env.settings.Scripts...)
			for _, arg := range args {
				abs, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("invalid script path %s: %w", arg, err)
				}
				scripts = append(scripts, abs)
			}
			if len(scripts) == 0 {
				return errors.New("no scripts to run: pass them as arguments or with --script")
			}

			input := make(map[string]interface{}, len(vars))
			for k, v := range vars {
				input[k] = v
			}

			r := &runner{env: env, input: input}
			if dump {
				r.dump = yaml.NewEncoder(cmd.OutOrStdout())
				defer r.dump.Close()
			}

			for _, script := range scripts {
				if env.done.Err() != nil {
					env.logger.Info().Str("script", script).Msg("Skipping script after shutdown")
					break
				}
				if err := r.run(script); err != nil {
					return err
				}
			}

			if !watch || env.done.Err() != nil {
				return nil
			}
			return r.watch(scripts)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-run a script whenever its file changes")
	cmd.Flags().BoolVar(&dump, "dump", false, "print each script's globals as YAML")
	cmd.Flags().StringToStringVar(&vars, "var", nil, "script variables (key=value)")

	return cmd
}

type runner struct {
	env   *environment
	input map[string]interface{}
	dump  *yaml.Encoder
	mu    sync.Mutex
}

// scriptDump is one --dump document.
type scriptDump struct {
	Script  string                 `yaml:"script"`
	RunID   string                 `yaml:"run_id"`
	Globals map[string]interface{} `yaml:"globals"`
}

func (r *runner) run(script string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, span := r.env.telemetry.Tracer.StartSpan(r.env.ctx, "chassis.run", telemetry.AttrScriptPath.String(script))
	defer span.End()

	res, err := r.env.runtime.ExecFile(ctx, script, r.input)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("script %s failed: %w", script, err)
	}
	telemetry.RecordSuccess(span)

	r.env.logger.Debug().
		Str("script", script).
		Str("run_id", res.RunID).
		Str("trace_id", telemetry.TraceID(ctx)).
		Dur("duration", res.ExecutionTime).
		Msg("Script finished")

	if r.dump != nil {
		return r.dump.Encode(scriptDump{Script: script, RunID: res.RunID, Globals: res.Output})
	}
	return nil
}

func (r *runner) watch(scripts []string) error {
	logger := r.env.telemetry.Logger.NewComponentLogger("watch")
	w, err := scripting.NewWatcher(scripts, logger.Zerolog(), 0)
	if err != nil {
		return err
	}

	r.env.logger.Info().Strs("scripts", scripts).Msg("Watching scripts for changes")
	return w.Run(r.env.done, func(path string) {
		if err := r.run(path); err != nil {
			logger.WithField("script", path).WithError(err).Error("Script run failed")
		}
	})
}
