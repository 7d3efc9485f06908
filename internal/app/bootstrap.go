package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"vatfiler/internal/config"
	"vatfiler/pkg/logging"
)

// Application represents the main application structure that bootstraps and
// runs the vatfiler server.
//
// Example usage:
//
//	cfg := app.NewConfig(false, "", "", version)
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// logOutput is where application logs go.
var logOutput io.Writer = os.Stdout

// NewApplication loads configuration, initializes logging and builds every
// service. It fails fast on invalid configuration or missing credentials.
func NewApplication(cfg *Config) (*Application, error) {
	// Provisional logging so configuration errors are visible.
	initLogging(cfg.Debug, config.Default().Logging)

	settings, err := loadSettings(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration")
		return nil, err
	}
	initLogging(cfg.Debug, settings.Logging)

	if err := settings.RequireCredentials(); err != nil {
		return nil, fmt.Errorf("missing OAuth client credentials: %w", err)
	}
	if settings.UsesDefaultSessionSecret() {
		logging.Warn("Bootstrap", "%s is not set; using the development default", config.EnvSessionSecret)
	}

	services, err := InitializeServices(settings, cfg.Version)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Services exposes the initialized components.
func (a *Application) Services() *Services {
	return a.services
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (a *Application) Run(ctx context.Context) error {
	return runServer(ctx, a.services)
}

func loadSettings(cfg *Config) (*config.Config, error) {
	if cfg.Settings != nil {
		settings := *cfg.Settings
		applyOverrides(cfg, &settings)
		return &settings, settings.Validate()
	}

	settings, err := config.Load(config.Options{
		ConfigFile: cfg.ConfigFile,
		DotEnvFile: cfg.DotEnvFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	applyOverrides(cfg, &settings)
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &settings, nil
}

func applyOverrides(cfg *Config, settings *config.Config) {
	if cfg.Listen != "" {
		settings.Server.Listen = cfg.Listen
	}
	if cfg.Debug {
		settings.Logging.Level = "debug"
	}
}

func initLogging(debug bool, lc config.LoggingConfig) {
	level, ok := logging.ParseLevel(lc.Level)
	if debug {
		level = logging.LevelDebug
	}
	format := logging.FormatText
	if lc.Format == string(logging.FormatJSON) {
		format = logging.FormatJSON
	}
	logging.InitWithFormat(level, logOutput, format)
	if !ok {
		logging.Warn("Bootstrap", "Unknown log level %q, using info", lc.Level)
	}
}
