package app

import (
	"context"
	"os/signal"
	"syscall"

	"vatfiler/pkg/logging"
)

// runServer starts the token watcher and the HTTP server and blocks until
// ctx is cancelled or SIGINT/SIGTERM arrives.
func runServer(ctx context.Context, services *Services) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := services.Watcher.Start(); err != nil {
		// The server still works; tokens written by another process are
		// just not picked up until restart.
		logging.Warn("App", "Token file watcher not started: %v", err)
	} else {
		defer func() {
			if err := services.Watcher.Stop(); err != nil {
				logging.Warn("App", "Failed to stop token file watcher: %v", err)
			}
		}()
	}

	status, err := services.Tokens.Status()
	switch {
	case err != nil:
		logging.Warn("App", "Stored tokens unreadable: %v", err)
	case status.Connected:
		logging.Info("App", "Connected to HMRC; access token expires at %s", status.ExpiresAt)
	default:
		logging.Info("App", "Not connected yet. Visit /connect to authorize.")
	}

	logging.Info("App", "Press Ctrl+C to stop.")
	return services.Server.Run(ctx)
}
