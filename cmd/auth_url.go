package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/netatmo-mcp/internal/config"
	"github.com/teemow/netatmo-mcp/internal/netatmo"
	"github.com/teemow/netatmo-mcp/internal/server"
)

func newAuthURLCmd() *cobra.Command {
	var (
		settings config.Settings
		envFile  string
	)

	cmd := &cobra.Command{
		Use:   "auth-url",
		Short: "Print the Netatmo authorization URL",
		Long: `Print the URL that grants this server access to your Netatmo account.

Open it in a browser on any machine. Netatmo redirects to the configured
redirect URI, which must reach a running "netatmo-mcp serve" instance so the
authorization code can be exchanged and the tokens stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadSettings(cmd, &settings, envFile); err != nil {
				return err
			}
			if settings.ClientID == "" {
				return fmt.Errorf("netatmo client ID is required (set --netatmo-client-id or %s)", config.EnvClientID)
			}

			client := netatmo.NewClient(settings, nil)
			fmt.Fprintln(cmd.OutOrStdout(), client.AuthorizationURL(server.NewOAuthState()))
			return nil
		},
	}

	addSettingsFlags(cmd, &settings, &envFile)
	return cmd
}
