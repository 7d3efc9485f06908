package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"vatfiler/internal/cli"
	"vatfiler/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeNotConnected indicates no usable HMRC authorization is stored.
	ExitCodeNotConnected = 2
	// ExitCodeAuthFailed indicates the authorization flow failed.
	ExitCodeAuthFailed = 3
)

// Flags shared by every command.
var (
	configFile string
	dotEnvFile string
)

// rootCmd represents the base command for the vatfiler application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vatfiler",
	Short: "File UK VAT returns through the HMRC MTD API",
	Long: `vatfiler runs a small local server that connects to HMRC Making Tax
Digital for VAT on your behalf. It handles the OAuth authorization, sends the
fraud-prevention headers HMRC requires, proxies the VAT endpoints and keeps a
log of submission receipts.

Start the server with 'vatfiler serve', then authorize it with
'vatfiler connect'.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	// Offline commands only report warnings; serve reconfigures logging
	// from its settings.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.InitForCLI(logging.LevelWarn, cmd.ErrOrStderr())
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "vatfiler version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var notConnected *cli.NotConnectedError
	if errors.As(err, &notConnected) {
		return ExitCodeNotConnected
	}

	var authFailed *cli.AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config.yaml (default: ./config.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&dotEnvFile, "env-file", "", "Path to a .env file (default: ./.env when present)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
