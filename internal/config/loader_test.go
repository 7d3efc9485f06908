package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withEnv replaces the environment lookup for the duration of a test.
func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	orig := lookupEnv
	lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	t.Cleanup(func() { lookupEnv = orig })
}

// inTempDir runs the test from an empty working directory so that stray
// config.yaml or .env files are not picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)
	withEnv(t, nil)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.Authority.BaseURL)
	assert.Equal(t, DefaultRedirectURI, cfg.Authority.RedirectURI)
	assert.Equal(t, DefaultScope, cfg.Authority.Scope)
	assert.Equal(t, DefaultSessionSecret, cfg.Session.Secret)
	assert.Equal(t, ".", cfg.Storage.DataDir)
	assert.Equal(t, DeviceIDPerProcess, cfg.FraudPrevention.DeviceIDMode)
	assert.Equal(t, time.Duration(0), cfg.OAuth.StateTTL)
	assert.True(t, cfg.UsesDefaultSessionSecret())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	inTempDir(t)
	withEnv(t, map[string]string{
		EnvClientID:      "client-1",
		EnvClientSecret:  "secret-1",
		EnvRedirectURI:   "http://localhost:8080/oauth/hmrc/callback",
		EnvBaseURL:       "https://api.service.hmrc.gov.uk",
		EnvSessionSecret: "a-much-better-secret-value-here!",
		EnvDataDir:       "/var/lib/vatfiler",
		EnvListen:        "0.0.0.0:8080",
		EnvDeviceIDMode:  DeviceIDPersistent,
		EnvLogLevel:      "debug",
		EnvStateTTL:      "600",
		EnvRateLimit:     "5",
	})

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, "client-1", cfg.Authority.ClientID)
	assert.Equal(t, "secret-1", cfg.Authority.ClientSecret)
	assert.Equal(t, "http://localhost:8080/oauth/hmrc/callback", cfg.Authority.RedirectURI)
	assert.Equal(t, "https://api.service.hmrc.gov.uk", cfg.Authority.BaseURL)
	assert.False(t, cfg.UsesDefaultSessionSecret())
	assert.Equal(t, "/var/lib/vatfiler", cfg.Storage.DataDir)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Listen)
	assert.Equal(t, DeviceIDPersistent, cfg.FraudPrevention.DeviceIDMode)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 10*time.Minute, cfg.OAuth.StateTTL)
	assert.Equal(t, 5, cfg.Server.RateLimitPerMinute)
	assert.NoError(t, cfg.RequireCredentials())
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := inTempDir(t)
	withEnv(t, nil)

	content := `
server:
  listen: localhost:4000
authority:
  clientId: from-yaml
  timeout: 5s
storage:
  dataDir: data
oauth:
  stateTTL: 10m
fraudPrevention:
  deviceIdMode: persistent
  localIps: 10.0.0.2
`
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(Options{ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, "localhost:4000", cfg.Server.Listen)
	assert.Equal(t, "from-yaml", cfg.Authority.ClientID)
	assert.Equal(t, 5*time.Second, cfg.Authority.Timeout)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Storage.DataDir)
	assert.Equal(t, 10*time.Minute, cfg.OAuth.StateTTL)
	assert.Equal(t, DeviceIDPersistent, cfg.FraudPrevention.DeviceIDMode)
	assert.Equal(t, "10.0.0.2", cfg.FraudPrevention.LocalIPs)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, DefaultBaseURL, cfg.Authority.BaseURL)
	assert.Equal(t, DefaultTimezone, cfg.FraudPrevention.Timezone)
}

func TestLoad_ExplicitConfigMissing(t *testing.T) {
	dir := inTempDir(t)
	withEnv(t, nil)

	_, err := Load(Options{ConfigFile: filepath.Join(dir, "nope.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := inTempDir(t)
	withEnv(t, nil)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0600))

	_, err := Load(Options{})
	require.Error(t, err)

	var cfgErr ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "parse", cfgErr.ErrorType)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := inTempDir(t)

	dotenv := "HMRC_CLIENT_ID=from-dotenv\nHMRC_CLIENT_SECRET=dotenv-secret\nDATA_DIR=/srv/vat\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0600))

	t.Run("dotenv values apply", func(t *testing.T) {
		withEnv(t, nil)
		cfg, err := Load(Options{})
		require.NoError(t, err)
		assert.Equal(t, "from-dotenv", cfg.Authority.ClientID)
		assert.Equal(t, "dotenv-secret", cfg.Authority.ClientSecret)
		assert.Equal(t, "/srv/vat", cfg.Storage.DataDir)
	})

	t.Run("process environment wins", func(t *testing.T) {
		withEnv(t, map[string]string{EnvClientID: "from-env"})
		cfg, err := Load(Options{})
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Authority.ClientID)
		assert.Equal(t, "dotenv-secret", cfg.Authority.ClientSecret)
	})
}

func TestLoad_InvalidEnvironmentValues(t *testing.T) {
	inTempDir(t)

	tests := []struct {
		name string
		env  map[string]string
		key  string
	}{
		{"bad state ttl", map[string]string{EnvStateTTL: "soon"}, EnvStateTTL},
		{"bad rate limit", map[string]string{EnvRateLimit: "lots"}, EnvRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEnv(t, tt.env)
			_, err := Load(Options{})
			require.Error(t, err)
			var cfgErr ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.key, cfgErr.Source)
		})
	}
}

func TestConfigPaths(t *testing.T) {
	cfg := Default()
	cfg.Storage.DataDir = "/data"

	assert.Equal(t, filepath.Join("/data", "tokens.json"), cfg.TokenFile())
	assert.Equal(t, filepath.Join("/data", "receipts.json"), cfg.ReceiptsFile())
	assert.Equal(t, filepath.Join("/data", "device_id.json"), cfg.DeviceIDFile())
}
