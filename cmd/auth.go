package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vatfiler/internal/cli"
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Inspect or clear the stored HMRC authorization",
	Long: `Inspect or clear the HMRC tokens stored in the data directory.

These commands work on the token file directly and do not need a running
server.

Examples:
  vatfiler auth status    # Show whether tokens are stored and when they expire
  vatfiler auth logout    # Delete the stored tokens`,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored authorization status",
	Long: `Shows whether HMRC tokens are stored and when the access token expires.

Exits with code 2 when no tokens are stored.`,
	Args: cobra.NoArgs,
	RunE: runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the stored HMRC tokens",
	Long: `Deletes the stored HMRC tokens. A running server picks the change up
through its token file watcher; run 'vatfiler connect' to authorize again.`,
	Args: cobra.NoArgs,
	RunE: runAuthLogout,
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	status, err := localProvider(settings).Status()
	if err != nil {
		return fmt.Errorf("failed to read stored tokens: %w", err)
	}

	cli.RenderStatus(cmd.OutOrStdout(), status, settings.TokenFile(), time.Now())
	if !status.Connected {
		return &cli.NotConnectedError{}
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	if err := localProvider(settings).Disconnect(); err != nil {
		return fmt.Errorf("failed to clear stored tokens: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Stored HMRC tokens removed.")
	return nil
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}
