package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"vatfiler/pkg/logging"
)

// Validate checks the structural validity of the configuration. It does not
// require OAuth credentials; see RequireCredentials.
func (c Config) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(c.Server.Listen) == "" {
		errs.Add("server.listen", "is required")
	}
	if c.Server.RateLimitPerMinute < 0 {
		errs.Add("server.rateLimitPerMinute", "must not be negative", c.Server.RateLimitPerMinute)
	}

	if err := validateHTTPURL(c.Authority.BaseURL); err != nil {
		errs.Add("authority.baseUrl", err.Error(), c.Authority.BaseURL)
	}
	if err := validateHTTPURL(c.Authority.RedirectURI); err != nil {
		errs.Add("authority.redirectUri", err.Error(), c.Authority.RedirectURI)
	}
	if c.Authority.Timeout < 0 {
		errs.Add("authority.timeout", "must not be negative", c.Authority.Timeout)
	}

	if strings.TrimSpace(c.Storage.DataDir) == "" {
		errs.Add("storage.dataDir", "is required")
	}

	if c.OAuth.StateTTL < 0 {
		errs.Add("oauth.stateTTL", "must not be negative", c.OAuth.StateTTL)
	}

	switch c.FraudPrevention.DeviceIDMode {
	case DeviceIDPerProcess, DeviceIDPersistent:
	default:
		errs.Add("fraudPrevention.deviceIdMode",
			fmt.Sprintf("must be %q or %q", DeviceIDPerProcess, DeviceIDPersistent),
			c.FraudPrevention.DeviceIDMode)
	}

	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		errs.Add("logging.level", "must be one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", string(logging.FormatText), string(logging.FormatJSON):
	default:
		errs.Add("logging.format", "must be text or json", c.Logging.Format)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// RequireCredentials checks that the OAuth client credentials are present.
// Only commands that talk to the authority need them.
func (c Config) RequireCredentials() error {
	var errs ValidationErrors
	if strings.TrimSpace(c.Authority.ClientID) == "" {
		errs.Add("authority.clientId", fmt.Sprintf("is required (set %s)", EnvClientID))
	}
	if strings.TrimSpace(c.Authority.ClientSecret) == "" {
		errs.Add("authority.clientSecret", fmt.Sprintf("is required (set %s)", EnvClientSecret))
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// UsesDefaultSessionSecret reports whether the built-in development secret is in use.
func (c Config) UsesDefaultSessionSecret() bool {
	return c.Session.Secret == DefaultSessionSecret
}

func validateHTTPURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a valid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("must include a host")
	}
	return nil
}

// parseDuration accepts Go duration strings ("10m") and bare seconds ("600").
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	var secs int
	if _, err := fmt.Sscanf(v, "%d", &secs); err == nil && fmt.Sprint(secs) == v {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, fmt.Errorf("invalid duration %q", v)
}
