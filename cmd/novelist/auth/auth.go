// Package authcmder provides the auth command for managing the stored
// session token pair.
package authcmder

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/novelist/pkg/auth"
	"github.com/papercomputeco/novelist/pkg/cliui"
	"github.com/papercomputeco/novelist/pkg/credentials"
	"github.com/papercomputeco/novelist/pkg/session"
)

const authLongDesc string = `Manage the novelist session.

The access and refresh tokens are stored in tokens.toml in the .novelist/
directory. Every API command attaches the access token and refreshes it
when the server reports it expired. A failed refresh ends the session and
removes the stored tokens.

Examples:
  novelist auth dev-ping                  Start a session on a development server
  echo $REFRESH | novelist auth login     Start a session from a refresh token
  novelist auth status                    Show the stored session
  novelist auth logout                    Remove the stored session`

const authShortDesc string = "Manage the novelist session"

func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: authShortDesc,
		Long:  authLongDesc,
	}

	cmd.AddCommand(newDevPingCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newLogoutCmd())

	return cmd
}

func newDevPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dev-ping",
		Short: "Start a session on a development server",
		Long: `Ask a development server for a fresh token pair and store it.

Only servers running in development mode answer this endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := session.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var pair auth.TokenPair
			err = cliui.Step(cmd.ErrOrStderr(), "Requesting development session", func() error {
				pair, err = s.DevPing(cmd.Context())
				return err
			})
			if err != nil {
				return fmt.Errorf("failed to start session: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "\n  %s Session started against %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(s.Settings.Client.APITarget),
			)
			printClaims(w, pair.AccessToken)
			fmt.Fprintln(w)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runStatus(cmd.OutOrStdout(), configDir)
		},
	}
}

func runStatus(w io.Writer, configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	pair, err := mgr.Tokens()
	if err != nil {
		return err
	}

	if pair.AccessToken == "" && pair.RefreshToken == "" {
		fmt.Fprintf(w, "\n  %s No stored session.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(w, "  Use 'novelist auth dev-ping' or 'novelist auth login' to start one.\n\n")
		return nil
	}

	fmt.Fprintf(w, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Tokens file:"),
		cliui.DimStyle.Render(mgr.GetTarget()),
	)
	printClaims(w, pair.AccessToken)
	if pair.RefreshToken == "" {
		fmt.Fprintf(w, "  %s No refresh token; the session ends when the access token expires.\n",
			cliui.WarnStyle.Render("!"))
	}
	fmt.Fprintln(w)

	return nil
}

func printClaims(w io.Writer, token string) {
	if token == "" {
		fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render("access token"), cliui.DimStyle.Render("<none>"))
		return
	}

	claims, err := credentials.ParseClaims(token)
	if err != nil {
		fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render("access token"), cliui.WarnStyle.Render("unreadable: "+err.Error()))
		return
	}

	if claims.Subject != "" {
		fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render("subject"), cliui.ValueStyle.Render(claims.Subject))
	}
	if claims.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render("expires"), cliui.DimStyle.Render("never"))
		return
	}

	now := time.Now()
	expires := claims.ExpiresAt.Local().Format(time.RFC3339)
	if claims.Expired(now) {
		fmt.Fprintf(w, "  %s  %s %s\n", cliui.KeyStyle.Render("expires"), cliui.ValueStyle.Render(expires),
			cliui.WarnStyle.Render("(expired, refreshed on next request)"))
	} else {
		fmt.Fprintf(w, "  %s  %s %s\n", cliui.KeyStyle.Render("expires"), cliui.ValueStyle.Render(expires),
			cliui.DimStyle.Render("(in "+claims.ExpiresAt.Sub(now).Round(time.Second).String()+")"))
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			mgr, err := credentials.NewManager(configDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}
			if err := mgr.Clear(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Removed stored session.\n\n", cliui.SuccessMark)
			return nil
		},
	}
}
