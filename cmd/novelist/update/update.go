// Package updatecmder provides the update command for editing resources.
package updatecmder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	getcmder "github.com/papercomputeco/novelist/cmd/novelist/get"
	"github.com/papercomputeco/novelist/pkg/client"
	"github.com/papercomputeco/novelist/pkg/cliui"
	"github.com/papercomputeco/novelist/pkg/session"
)

const updateLongDesc string = `Change fields of a resource and print the updated resource.

Fields are given as --set field=value pairs, or as a JSON object with
--file (use - for stdin). Values from --set are sent as strings and override
the same fields from --file. Editing a resource marks it as modified.

Examples:
  novelist update scene 4 --set final_text="It was a dark night."
  novelist update story 1 --set title=Dune --set style=epic
  novelist update chapter-outline 9 --file patch.json`

type updateCommander struct {
	sets []string
	file string
}

func NewUpdateCmd() *cobra.Command {
	cmder := &updateCommander{}

	cmd := &cobra.Command{
		Use:   "update <kind> <id>",
		Short: "Change fields of a resource",
		Long:  updateLongDesc,
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

			fields, err := cmder.fields(cmd.InOrStdin())
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
			if err := s.Client.Update(cmd.Context(), kind, id, fields, &raw); err != nil {
				return fmt.Errorf("failed to update %s %d: %w", kind.Label(), id, err)
			}
			return cliui.JSON(cmd.OutOrStdout(), raw)
		},
		ValidArgsFunction: getcmder.CompleteKinds,
	}

	cmd.Flags().StringArrayVar(&cmder.sets, "set", nil, "Field to change, as field=value (repeatable)")
	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "JSON object of fields to change, - for stdin")

	return cmd
}

func (c *updateCommander) fields(stdin io.Reader) (map[string]any, error) {
	fields := map[string]any{}

	if c.file != "" {
		var data []byte
		var err error
		if c.file == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(c.file)
		}
		if err != nil {
			return nil, fmt.Errorf("reading fields: %w", err)
		}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("parsing fields: %w", err)
		}
	}

	for _, set := range c.sets {
		name, value, ok := strings.Cut(set, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: expected field=value", set)
		}
		fields[name] = value
	}

	if len(fields) == 0 {
		return nil, errors.New("nothing to update: pass --set or --file")
	}
	return fields, nil
}
