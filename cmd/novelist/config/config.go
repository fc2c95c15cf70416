// Package configcmder provides the config command for managing persistent
// novelist configuration stored in the .novelist/ directory.
package configcmder

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/novelist/pkg/cliui"
	"github.com/papercomputeco/novelist/pkg/config"
)

const configLongDesc string = `Manage persistent novelist configuration.

Configuration is stored as config.toml in the .novelist/ directory and provides
default values for command flags. CLI flags and NOVELIST_* environment
variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  client.api_target, client.mode,
  auth.refresh_path, auth.dev_ping_path, auth.failure_statuses,
  auth.expired_details, auth.refresh_timeout,
  generator.partial_event

Use subcommands to get, set, or list configuration values:
  novelist config set <key> <value>    Set a configuration value
  novelist config get <key>            Get a configuration value
  novelist config list                 List all configuration values

Examples:
  novelist config set client.api_target https://novelist.example.com
  novelist config set client.mode production
  novelist config set auth.failure_statuses 401
  novelist config list`

const configShortDesc string = "Manage persistent novelist configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

func printTarget(w io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if _, err := os.Stat(target); err == nil {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
}
