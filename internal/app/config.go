package app

import (
	"vatfiler/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug forces debug logging regardless of the configured level.
	Debug bool

	// ConfigFile and DotEnvFile override the default config.yaml and .env.
	ConfigFile string
	DotEnvFile string

	// Listen overrides server.listen when set.
	Listen string

	// Version is reported in the vendor fraud-prevention headers.
	Version string

	// Settings, when already populated, skips configuration loading.
	Settings *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configFile, listen, version string) *Config {
	return &Config{
		Debug:      debug,
		ConfigFile: configFile,
		Listen:     listen,
		Version:    version,
	}
}
