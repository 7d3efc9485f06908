package app

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vatfiler/internal/config"
	"vatfiler/pkg/logging"
)

func init() {
	logOutput = io.Discard
	logging.InitForCLI(logging.LevelError, io.Discard)
}

func testSettings(t *testing.T) *config.Config {
	t.Helper()
	settings := config.Default()
	settings.Authority.ClientID = "client-id"
	settings.Authority.ClientSecret = "client-secret"
	settings.Authority.BaseURL = "http://127.0.0.1:1"
	settings.Storage.DataDir = t.TempDir()
	settings.Server.Listen = "127.0.0.1:0"
	return &settings
}

func TestNewApplication(t *testing.T) {
	settings := testSettings(t)

	application, err := NewApplication(&Config{Settings: settings, Version: "1.2.3", Listen: "127.0.0.1:0"})
	require.NoError(t, err)

	services := application.Services()
	require.NotNil(t, services)
	assert.Equal(t, "127.0.0.1:0", services.Settings.Server.Listen)
	assert.Equal(t, "vatfiler/1.2.3", services.Fraud.ProductString())
}

func TestNewApplication_MissingCredentials(t *testing.T) {
	settings := testSettings(t)
	settings.Authority.ClientSecret = ""

	_, err := NewApplication(&Config{Settings: settings})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authority.clientSecret")
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	settings := testSettings(t)
	settings.Authority.BaseURL = "ftp://example.com"

	_, err := NewApplication(&Config{Settings: settings})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authority.baseUrl")
}

func TestApplyOverrides(t *testing.T) {
	settings := config.Default()
	applyOverrides(&Config{Debug: true, Listen: "0.0.0.0:9000"}, &settings)

	assert.Equal(t, "0.0.0.0:9000", settings.Server.Listen)
	assert.Equal(t, "debug", settings.Logging.Level)

	settings = config.Default()
	applyOverrides(&Config{}, &settings)
	assert.Equal(t, config.DefaultListen, settings.Server.Listen)
	assert.Equal(t, "info", settings.Logging.Level)
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(true, "custom.yaml", ":8080", "v1")

	assert.True(t, cfg.Debug)
	assert.Equal(t, "custom.yaml", cfg.ConfigFile)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "v1", cfg.Version)
	assert.Nil(t, cfg.Settings)
}
