package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vatfiler/pkg/logging"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	dotEnvFileName = ".env"
)

// Environment variables understood by Load. The HMRC_*, BASE_URL,
// SESSION_SECRET and DATA_DIR names are kept from the original deployment
// scripts so existing .env files keep working.
const (
	EnvClientID      = "HMRC_CLIENT_ID"
	EnvClientSecret  = "HMRC_CLIENT_SECRET"
	EnvRedirectURI   = "HMRC_REDIRECT_URI"
	EnvBaseURL       = "BASE_URL"
	EnvSessionSecret = "SESSION_SECRET"
	EnvDataDir       = "DATA_DIR"
	EnvListen        = "VATFILER_LISTEN"
	EnvDeviceIDMode  = "VATFILER_DEVICE_ID_MODE"
	EnvLogLevel      = "VATFILER_LOG_LEVEL"
	EnvStateTTL      = "VATFILER_STATE_TTL"
	EnvRateLimit     = "VATFILER_RATE_LIMIT"
)

// lookupEnv is a package-level variable so tests can substitute the process environment.
var lookupEnv = os.LookupEnv

// Options controls where Load looks for its inputs.
type Options struct {
	// ConfigFile is an explicit config.yaml path. When empty, config.yaml in
	// the working directory is used if present.
	ConfigFile string

	// DotEnvFile is the .env file to read. When empty, .env in the working
	// directory is used if present.
	DotEnvFile string
}

// Load builds the effective configuration: defaults, then config.yaml, then
// the .env file, then the process environment (highest precedence).
func Load(opts Options) (Config, error) {
	cfg := Default()

	if err := loadYAML(&cfg, opts.ConfigFile); err != nil {
		return Config{}, err
	}

	dotenv, err := readDotEnv(opts.DotEnvFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	explicit := path != ""
	if !explicit {
		path = configFileName
	}

	// #nosec G304 -- the config path is chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			logging.Debug("ConfigLoader", "No %s found, using defaults", configFileName)
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	defaultDataDir := cfg.Storage.DataDir
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return NewConfigurationError(path, "parse", err.Error())
	}

	// A relative dataDir set in an explicit config file is resolved against
	// the file's directory.
	dataDir := cfg.Storage.DataDir
	if explicit && dataDir != defaultDataDir && dataDir != "" && !filepath.IsAbs(dataDir) {
		cfg.Storage.DataDir = filepath.Join(filepath.Dir(path), cfg.Storage.DataDir)
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	return nil
}

func readDotEnv(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = dotEnvFileName
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return map[string]string{}, nil
		}
		return nil, NewConfigurationError(path, "parse", err.Error())
	}

	logging.Debug("ConfigLoader", "Read %d values from %s", len(values), path)
	return values, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	setString := func(key string, target *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}

	setString(EnvClientID, &cfg.Authority.ClientID)
	setString(EnvClientSecret, &cfg.Authority.ClientSecret)
	setString(EnvRedirectURI, &cfg.Authority.RedirectURI)
	setString(EnvBaseURL, &cfg.Authority.BaseURL)
	setString(EnvSessionSecret, &cfg.Session.Secret)
	setString(EnvDataDir, &cfg.Storage.DataDir)
	setString(EnvListen, &cfg.Server.Listen)
	setString(EnvDeviceIDMode, &cfg.FraudPrevention.DeviceIDMode)
	setString(EnvLogLevel, &cfg.Logging.Level)

	if v, ok := lookup(EnvStateTTL); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return NewConfigurationError(EnvStateTTL, "environment", err.Error())
		}
		cfg.OAuth.StateTTL = d
	}

	if v, ok := lookup(EnvRateLimit); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return NewConfigurationError(EnvRateLimit, "environment", fmt.Sprintf("not an integer: %q", v))
		}
		cfg.Server.RateLimitPerMinute = n
	}

	return nil
}
