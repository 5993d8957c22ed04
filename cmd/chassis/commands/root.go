package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfroyo/chassis/pkg/config"
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	opts := config.NewOptions()

	rootCmd := &cobra.Command{
		Use:   "chassis",
		Short: "chassis - script host with layered configuration",
		Long: `chassis runs Starlark scripts inside a host process.

Options come from command-line flags, then from the [chassis] group of the
keyfile given with --defaults-file, then from built-in defaults. Scripts log
through the chassis module (chassis.warning("..."), chassis.log("debug", "..."))
and every line is tagged with the script file and line it came from, relative
to --basedir.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	opts.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newRunCommand(opts, version))
	rootCmd.AddCommand(newConfigCommand(opts))

	return rootCmd
}
