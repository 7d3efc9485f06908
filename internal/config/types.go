package config

import (
	"path/filepath"
	"time"
)

// Config is the top-level configuration structure for vatfiler.
type Config struct {
	Server          ServerConfig    `yaml:"server"`
	Authority       AuthorityConfig `yaml:"authority"`
	Storage         StorageConfig   `yaml:"storage"`
	Session         SessionConfig   `yaml:"session"`
	OAuth           OAuthConfig     `yaml:"oauth"`
	FraudPrevention FraudConfig     `yaml:"fraudPrevention"`
	Logging         LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the local HTTP surface.
type ServerConfig struct {
	Listen string `yaml:"listen,omitempty"` // Address to bind (default: localhost:3000)

	// RateLimitPerMinute caps /connect and callback requests per client IP.
	// Zero disables rate limiting.
	RateLimitPerMinute int `yaml:"rateLimitPerMinute,omitempty"`
}

// AuthorityConfig describes the tax authority API and the registered
// OAuth application used to call it.
type AuthorityConfig struct {
	BaseURL      string        `yaml:"baseUrl,omitempty"`
	ClientID     string        `yaml:"clientId,omitempty"`
	ClientSecret string        `yaml:"clientSecret,omitempty"`
	RedirectURI  string        `yaml:"redirectUri,omitempty"`
	Scope        string        `yaml:"scope,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
}

// StorageConfig locates the persisted JSON files.
type StorageConfig struct {
	DataDir string `yaml:"dataDir,omitempty"`
}

// SessionConfig holds SESSION_SECRET. It is loaded and checked against the
// development default but nothing is signed with it yet.
type SessionConfig struct {
	Secret string `yaml:"secret,omitempty"`
}

// OAuthConfig tunes the authorization redirect flow.
type OAuthConfig struct {
	// StateTTL bounds how long a pending state nonce is accepted.
	// Zero means the nonce never expires.
	StateTTL time.Duration `yaml:"stateTTL,omitempty"`
}

// Device id modes.
const (
	DeviceIDPerProcess = "per-process"
	DeviceIDPersistent = "persistent"
)

// FraudConfig supplies the values of the fraud-prevention headers that
// cannot be derived from the incoming request.
type FraudConfig struct {
	DeviceIDMode    string `yaml:"deviceIdMode,omitempty"`
	DefaultPublicIP string `yaml:"defaultPublicIp,omitempty"`
	LocalIPs        string `yaml:"localIps,omitempty"`
	Timezone        string `yaml:"timezone,omitempty"`
	UserIDs         string `yaml:"userIds,omitempty"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// File names under Storage.DataDir.
const (
	tokenFileName    = "tokens.json"
	receiptsFileName = "receipts.json"
	deviceIDFileName = "device_id.json"
)

// TokenFile returns the path of the persisted OAuth token set.
func (c Config) TokenFile() string {
	return filepath.Join(c.Storage.DataDir, tokenFileName)
}

// ReceiptsFile returns the path of the receipt log.
func (c Config) ReceiptsFile() string {
	return filepath.Join(c.Storage.DataDir, receiptsFileName)
}

// DeviceIDFile returns the path of the persisted device identifier.
func (c Config) DeviceIDFile() string {
	return filepath.Join(c.Storage.DataDir, deviceIDFileName)
}
