// Package novelistcmder is the root of the novelist CLI.
package novelistcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/novelist/cmd/novelist/auth"
	configcmder "github.com/papercomputeco/novelist/cmd/novelist/config"
	generatecmder "github.com/papercomputeco/novelist/cmd/novelist/generate"
	getcmder "github.com/papercomputeco/novelist/cmd/novelist/get"
	queriescmder "github.com/papercomputeco/novelist/cmd/novelist/queries"
	storycmder "github.com/papercomputeco/novelist/cmd/novelist/story"
	updatecmder "github.com/papercomputeco/novelist/cmd/novelist/update"
	versioncmder "github.com/papercomputeco/novelist/cmd/novelist/version"
	"github.com/papercomputeco/novelist/pkg/config"
)

const novelistLongDesc string = `Novelist writes stories with you, one layer at a time.

A story is generated top down: the story itself, its outline, the outline of
each chapter, the outline of each scene and finally each scene's text.

Start a session and write:
  novelist auth dev-ping              Start a session on a development server
  novelist story create --title ...   Create a story
  novelist generate story 1           Generate it
  novelist get story 1 --recursive    Read it back with its outline tree

Settings come from flags, NOVELIST_* environment variables and config.toml
in the .novelist/ directory, in that order.`

const novelistShortDesc string = "Novelist - collaborative story generation"

func NewNovelistCmd() *cobra.Command {
	var apiTarget, mode, refreshTimeout, partialEvent string

	cmd := &cobra.Command{
		Use:          "novelist",
		Short:        novelistShortDesc,
		Long:         novelistLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .novelist/ config directory")
	cmd.PersistentFlags().String("log-file", "", "Also write debug logs as JSON to this file")
	config.AddPersistentStringFlag(cmd, config.ClientFlags, config.FlagAPITarget, &apiTarget)
	config.AddPersistentStringFlag(cmd, config.ClientFlags, config.FlagMode, &mode)
	config.AddPersistentStringFlag(cmd, config.ClientFlags, config.FlagRefreshTimeout, &refreshTimeout)
	config.AddPersistentStringFlag(cmd, config.ClientFlags, config.FlagPartialEvent, &partialEvent)

	// Add subcommands
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(generatecmder.NewGenerateCmd())
	cmd.AddCommand(getcmder.NewGetCmd())
	cmd.AddCommand(queriescmder.NewQueriesCmd())
	cmd.AddCommand(storycmder.NewStoryCmd())
	cmd.AddCommand(updatecmder.NewUpdateCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
