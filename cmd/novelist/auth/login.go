package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/novelist/pkg/auth"
	"github.com/papercomputeco/novelist/pkg/cliui"
	"github.com/papercomputeco/novelist/pkg/session"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Start a session from a refresh token",
		Long: `Exchange a refresh token for an access token and store both.

The refresh token is read from stdin. When stdin is a terminal the token is
prompted for with hidden input.

Examples:
  novelist auth login
  echo $REFRESH | novelist auth login`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			refreshToken, err := readRefreshToken(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			s, err := session.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			access, err := s.Auth.Refresh(cmd.Context(), refreshToken)
			if err != nil {
				return fmt.Errorf("failed to start session: %w", err)
			}
			if err := s.Tokens.SetTokens(auth.TokenPair{AccessToken: access, RefreshToken: refreshToken}); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "\n  %s Session started against %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(s.Settings.Client.APITarget),
			)
			printClaims(w, access)
			fmt.Fprintln(w)
			return nil
		},
	}
}

// readRefreshToken reads the first line of in. A terminal is prompted with
// hidden input instead.
func readRefreshToken(in io.Reader, prompt io.Writer) (string, error) {
	var token string

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Refresh token: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading refresh token: %w", err)
		}
		token = string(raw)
	} else {
		scanner := bufio.NewScanner(in)
		if scanner.Scan() {
			token = scanner.Text()
		} else if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("refresh token cannot be empty")
	}
	return token, nil
}
