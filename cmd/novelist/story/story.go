// Package storycmder provides the story command.
package storycmder

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/novelist/pkg/client"
	"github.com/papercomputeco/novelist/pkg/cliui"
	"github.com/papercomputeco/novelist/pkg/session"
)

const createLongDesc string = `Create a new story from a title and a brief.

The story starts empty; run 'novelist generate story <id>' to generate its
setting, main characters and summary.

Examples:
  novelist story create --title Dune --description "A desert planet" \
    --style epic --themes ecology --request "Focus on the spice trade"`

func NewStoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "story",
		Short: "Manage stories",
	}

	cmd.AddCommand(newCreateCmd())

	return cmd
}

func newCreateCmd() *cobra.Command {
	var in client.StoryCreate

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a story",
		Long:  createLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Title == "" {
				return errors.New("--title is required")
			}

			s, err := session.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.EnsureLogin(cmd.Context()); err != nil {
				return err
			}

			story, err := s.Client.CreateStory(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("failed to create story: %w", err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "\n  %s Created story %s %s\n\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(fmt.Sprintf("#%d", story.ID)),
				cliui.DimStyle.Render(story.Title),
			)

			data, err := json.Marshal(story)
			if err != nil {
				return fmt.Errorf("encoding story: %w", err)
			}
			return cliui.JSON(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Story title")
	cmd.Flags().StringVar(&in.Description, "description", "", "Short description of the story")
	cmd.Flags().StringVar(&in.Style, "style", "", "Writing style")
	cmd.Flags().StringVar(&in.Themes, "themes", "", "Themes to explore")
	cmd.Flags().StringVar(&in.Request, "request", "", "Free-form instructions for the generator")

	return cmd
}
