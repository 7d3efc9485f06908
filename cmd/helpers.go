package cmd

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/spf13/cobra"

	"vatfiler/internal/config"
	"vatfiler/internal/oauth"
)

// commandContext returns the command's context, or Background when the
// command runs outside Execute (tests call RunE directly).
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// loadSettings reads configuration the same way the server does.
func loadSettings() (config.Config, error) {
	settings, err := config.Load(config.Options{ConfigFile: configFile, DotEnvFile: dotEnvFile})
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return settings, nil
}

// localProvider opens the token store offline. It can report status and
// disconnect but never refreshes.
func localProvider(settings config.Config) *oauth.Provider {
	return oauth.NewProvider(oauth.NewTokenStore(settings.TokenFile()), nil)
}

// serverURL derives the local server root from the listen address.
func serverURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://" + strings.TrimPrefix(listen, "http://")
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
