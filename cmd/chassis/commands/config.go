package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/chassis/pkg/config"
	"github.com/openfroyo/chassis/pkg/options"
)

func newConfigCommand(opts *config.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}

	cmd.AddCommand(newConfigShowCommand(opts))
	cmd.AddCommand(newConfigCheckCommand(opts))

	return cmd
}

func newConfigShowCommand(opts *config.Options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective options after all layers are applied",
		Example: `  chassis --defaults-file /etc/chassis.ini config show
  chassis --log-level debug config show --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := loadSettings(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(res.Settings); err != nil {
					return err
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.Settings)
			default:
				return fmt.Errorf("unsupported format %q (want yaml or json)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format (yaml, json)")

	return cmd
}

func newConfigCheckCommand(opts *config.Options) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the defaults file for malformed values",
		Long: `Resolve the options and report every keyfile value that could not be parsed.

Malformed values are skipped during normal startup. With --strict they make
this command fail, which is useful before deploying a new keyfile.`,
		Example: `  chassis --defaults-file /etc/chassis.ini config check --strict`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := loadSettings(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status: %s\n", res.Status)

			var perr *options.ParseError
			for _, err := range unwrapJoined(res.ResolveErr) {
				if errors.As(err, &perr) {
					fmt.Fprintf(out, "  [%s] %s = %q: %v\n", perr.Group, perr.Option, perr.Raw, perr.Err)
				} else {
					fmt.Fprintf(out, "  %v\n", err)
				}
			}

			if strict && res.Status == options.StatusPartialFailure {
				return fmt.Errorf("defaults file %s has malformed values", res.Settings.DefaultsFile)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any value is malformed")

	return cmd
}

// unwrapJoined splits an errors.Join result back into its parts.
func unwrapJoined(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
