package config

import "time"

const (
	// DefaultBaseURL is the HMRC sandbox API.
	DefaultBaseURL = "https://test-api.service.hmrc.gov.uk"

	// DefaultRedirectURI matches the callback route registered with HMRC.
	DefaultRedirectURI = "http://localhost:3000/oauth/hmrc/callback"

	// DefaultScope is requested on the authorize redirect.
	DefaultScope = "read:vat write:vat read:vat-returns"

	// DefaultSessionSecret must be replaced outside local development.
	DefaultSessionSecret = "please_change_me_32chars"

	DefaultListen           = "localhost:3000"
	DefaultAuthorityTimeout = 30 * time.Second
	DefaultRateLimit        = 20

	DefaultPublicIP = "203.0.113.10"
	DefaultLocalIPs = "192.168.1.10"
	DefaultTimezone = "UTC+00:00"
	DefaultUserIDs  = "os=user123"
)

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:             DefaultListen,
			RateLimitPerMinute: DefaultRateLimit,
		},
		Authority: AuthorityConfig{
			BaseURL:     DefaultBaseURL,
			RedirectURI: DefaultRedirectURI,
			Scope:       DefaultScope,
			Timeout:     DefaultAuthorityTimeout,
		},
		Storage: StorageConfig{
			DataDir: ".",
		},
		Session: SessionConfig{
			Secret: DefaultSessionSecret,
		},
		FraudPrevention: FraudConfig{
			DeviceIDMode:    DeviceIDPerProcess,
			DefaultPublicIP: DefaultPublicIP,
			LocalIPs:        DefaultLocalIPs,
			Timezone:        DefaultTimezone,
			UserIDs:         DefaultUserIDs,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
