// Package getcmder provides the get command for reading stories, outlines,
// scenes and queries.
package getcmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/novelist/pkg/client"
	"github.com/papercomputeco/novelist/pkg/cliui"
	"github.com/papercomputeco/novelist/pkg/session"
)

const getLongDesc string = `Fetch one or more resources of the same kind and print them as JSON.

Kinds: story, story-outline, chapter-outline, scene-outline, scene, query.
Several ids are fetched concurrently and printed in the order given.

Examples:
  novelist get story 1
  novelist get story 1 --recursive
  novelist get scene 4 5 6`

const getShortDesc string = "Fetch resources by kind and id"

// maxConcurrentFetches bounds in-flight requests for one invocation.
const maxConcurrentFetches = 4

type getCommander struct {
	recursive bool
}

func NewGetCmd() *cobra.Command {
	cmder := &getCommander{}

	cmd := &cobra.Command{
		Use:   "get <kind> <id>...",
		Short: getShortDesc,
		Long:  getLongDesc,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := client.ParseKind(args[0])
			if err != nil {
				return err
			}
			ids := make([]int, 0, len(args)-1)
			for _, arg := range args[1:] {
				id, err := client.ParseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if cmder.recursive && kind != client.KindStory {
				return errors.New("--recursive only applies to stories")
			}

			s, err := session.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.EnsureLogin(cmd.Context()); err != nil {
				return err
			}

			results, err := cmder.fetch(cmd.Context(), s.Client, kind, ids)
			if err != nil {
				return err
			}
			for _, raw := range results {
				if err := cliui.JSON(cmd.OutOrStdout(), raw); err != nil {
					return err
				}
			}
			return nil
		},
		ValidArgsFunction: CompleteKinds,
	}

	cmd.Flags().BoolVarP(&cmder.recursive, "recursive", "r", false, "Include the story's whole outline tree")

	return cmd
}

func (c *getCommander) fetch(ctx context.Context, api *client.Client, kind client.Kind, ids []int) ([]json.RawMessage, error) {
	results := make([]json.RawMessage, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, id := range ids {
		g.Go(func() error {
			var err error
			if c.recursive {
				err = api.GetRecursive(ctx, id, &results[i])
			} else {
				err = api.Get(ctx, kind, id, &results[i])
			}
			if err != nil {
				return fmt.Errorf("failed to get %s %d: %w", kind.Label(), id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// CompleteKinds completes the kind argument of resource commands.
func CompleteKinds(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	kinds := client.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
