package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"archdocs/internal/source"

	"github.com/spf13/cobra"
)

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the GitHub token used by remote sources",
		Long: `Manage the GitHub personal access token used by the github and git sources.

The token is kept in the OS credential store. $GITHUB_TOKEN takes precedence
when set.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set-token [token]",
			Short: "Store a GitHub token (reads stdin when no argument is given)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				token := ""
				if len(args) == 1 {
					token = args[0]
				} else {
					fmt.Fprint(cmd.ErrOrStderr(), "GitHub token: ")
					var err error
					token, err = readLine(cmd.InOrStdin())
					if err != nil {
						return err
					}
				}

				if err := source.NewCredentialManager().StoreGitHubToken(token); err != nil {
					return err
				}
				a.logger.Debug("Stored GitHub token")
				fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓ GitHub token stored"))
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete-token",
			Short: "Remove the stored GitHub token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := source.NewCredentialManager().DeleteGitHubToken(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓ GitHub token removed"))
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show where the GitHub token is read from",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				out := cmd.OutOrStdout()
				switch source.NewCredentialManager().TokenSource() {
				case "env":
					fmt.Fprintf(out, "Token: from $%s\n", source.TokenEnvVar)
				case "keyring":
					fmt.Fprintln(out, "Token: stored in the OS credential store")
				default:
					fmt.Fprintln(out, "Token: none (anonymous access, public repositories only)")
				}
				return nil
			},
		},
	)
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
