package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vatfiler/internal/cli"
)

// DefaultConnectTimeout is how long connect waits for the browser flow.
const DefaultConnectTimeout = 5 * time.Minute

// Connect flags.
var (
	connectServer    string
	connectNoBrowser bool
	connectTimeout   time.Duration
	connectQuiet     bool
)

// openBrowser is replaced in tests.
var openBrowser = cli.OpenBrowser

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Authorize vatfiler with HMRC",
	Long: `Opens the HMRC authorization page in your browser through a running
vatfiler server and waits until the tokens have been stored.

Examples:
  vatfiler connect                                  # Use server.listen from config
  vatfiler connect --server http://localhost:3000   # Explicit server
  vatfiler connect --no-browser                     # Print the URL instead`,
	Args: cobra.NoArgs,
	RunE: runConnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
	base := connectServer
	if base == "" {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		base = serverURL(settings.Server.Listen)
	}

	client := cli.NewServerClient(base)
	ctx, cancel := context.WithTimeout(commandContext(cmd), connectTimeout)
	defer cancel()

	// Fail early when the server is not running.
	initial, err := client.Status(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if connectNoBrowser {
		fmt.Fprintf(out, "Open this URL in your browser to authorize vatfiler:\n  %s\n", client.ConnectURL())
	} else if err := openBrowser(client.ConnectURL()); err != nil {
		fmt.Fprintf(out, "Could not open a browser (%v). Open this URL instead:\n  %s\n", err, client.ConnectURL())
	}

	status, err := cli.WaitForConnection(ctx, client, initial, cli.WaitOptions{
		Quiet:  connectQuiet,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Connected to HMRC.")
	if status.ExpiresAt != nil {
		fmt.Fprintf(out, "Access token expires %s.\n", cli.FormatExpiry(*status.ExpiresAt, time.Now()))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().StringVar(&connectServer, "server", "", "Base URL of the running vatfiler server")
	connectCmd.Flags().BoolVar(&connectNoBrowser, "no-browser", false, "Print the authorization URL instead of opening a browser")
	connectCmd.Flags().DurationVar(&connectTimeout, "timeout", DefaultConnectTimeout, "How long to wait for authorization")
	connectCmd.Flags().BoolVarP(&connectQuiet, "quiet", "q", false, "Suppress the progress spinner")
}
