package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vatfiler/internal/app"
)

// Serve flags.
var (
	serveDebug  bool
	serveListen string
)

// serveCmd starts the local server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local vatfiler server",
	Long: `Starts the local HTTP server that proxies the HMRC VAT API.

Routes:
  GET  /connect              start the HMRC authorization
  GET  /oauth/callback       authorization callback (also /oauth/hmrc/callback)
  GET  /api/obligations      list obligations (?vrn=&status=&scenario=)
  POST /api/returns          submit a return (?vrn=) and record the receipt
  GET  /api/returns/view     view a submitted return (?vrn=&periodKey=)
  GET  /api/liabilities      liabilities (?vrn=&from=&to=)
  GET  /api/payments         payments (?vrn=&from=&to=)
  GET  /api/receipts         recorded receipts (?vrn=)
  GET  /api/status           connection status
  POST /api/excel/preview    compute a nine-box preview from an xlsx upload
  GET  /health               liveness

Configuration is read from config.yaml, .env and the environment, in that
order of increasing precedence. HMRC_CLIENT_ID and HMRC_CLIENT_SECRET are
required.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, configFile, serveListen, GetVersion())
	cfg.DotEnvFile = dotEnvFile

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return application.Run(commandContext(cmd))
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides server.listen)")
}
