// Package queriescmder provides the queries command, which shows the
// generator queries recorded against a resource.
package queriescmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	getcmder "github.com/papercomputeco/novelist/cmd/novelist/get"
	"github.com/papercomputeco/novelist/pkg/client"
	"github.com/papercomputeco/novelist/pkg/cliui"
	"github.com/papercomputeco/novelist/pkg/session"
)

const queriesLongDesc string = `Print a resource together with the generator queries recorded against it.

Examples:
  novelist queries scene-outline 2`

func NewQueriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queries <kind> <id>",
		Short: "Show the generator queries of a resource",
		Long:  queriesLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := client.ParseKind(args[0])
			if err != nil {
				return err
			}
			id, err := client.ParseID(args[1])
			if err != nil {
				return err
			}

			s, err := session.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.EnsureLogin(cmd.Context()); err != nil {
				return err
			}

			var raw json.RawMessage
			if err := s.Client.Queries(cmd.Context(), kind, id, &raw); err != nil {
				return fmt.Errorf("failed to get queries of %s %d: %w", kind.Label(), id, err)
			}
			return cliui.JSON(cmd.OutOrStdout(), raw)
		},
		ValidArgsFunction: getcmder.CompleteKinds,
	}
}
