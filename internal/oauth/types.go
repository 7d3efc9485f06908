package oauth

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// RefreshMargin is how long before the real expiry a token is treated as
// expired. It absorbs clock skew and the latency of the upstream call.
const RefreshMargin = 60 * time.Second

// TokenSet is the credential pair issued by the token endpoint together
// with the moment it was obtained. A TokenSet is replaced wholesale on
// every exchange and never mutated in place.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string

	// ExpiresIn is the lifetime in seconds reported by the token endpoint.
	ExpiresIn int64

	// ObtainedAt is stamped locally when the set is stored.
	ObtainedAt time.Time
}

// tokenSetJSON is the on-disk layout. obtained_at is fractional Unix
// seconds so files written by the earlier deployment keep loading.
type tokenSetJSON struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresIn    float64 `json:"expires_in"`
	ObtainedAt   float64 `json:"obtained_at"`
	TokenType    string  `json:"token_type,omitempty"`
	Scope        string  `json:"scope,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t TokenSet) MarshalJSON() ([]byte, error) {
	var obtained float64
	if !t.ObtainedAt.IsZero() {
		obtained = float64(t.ObtainedAt.UnixNano()) / float64(time.Second)
	}
	return json.Marshal(tokenSetJSON{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresIn:    float64(t.ExpiresIn),
		ObtainedAt:   obtained,
		TokenType:    t.TokenType,
		Scope:        t.Scope,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *TokenSet) UnmarshalJSON(data []byte) error {
	var raw tokenSetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*t = TokenSet{
		AccessToken:  raw.AccessToken,
		RefreshToken: raw.RefreshToken,
		TokenType:    raw.TokenType,
		Scope:        raw.Scope,
		ExpiresIn:    int64(raw.ExpiresIn),
	}
	if raw.ObtainedAt > 0 {
		sec, frac := math.Modf(raw.ObtainedAt)
		t.ObtainedAt = time.Unix(int64(sec), int64(frac*float64(time.Second)))
	}
	return nil
}

// ExpiresAt returns the absolute expiry reported by the authority.
func (t TokenSet) ExpiresAt() time.Time {
	return t.ObtainedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// NeedsRefresh reports whether the token must be refreshed before use at now.
// A set without obtained_at (written before stamping existed) is used as is.
func (t TokenSet) NeedsRefresh(now time.Time) bool {
	if t.ObtainedAt.IsZero() {
		return false
	}
	return !now.Before(t.ExpiresAt().Add(-RefreshMargin))
}

// IsZero reports whether the set carries no access token.
func (t TokenSet) IsZero() bool {
	return t.AccessToken == ""
}

// String never prints the token values so a TokenSet is safe to log.
func (t TokenSet) String() string {
	return fmt.Sprintf("TokenSet{access_token:[REDACTED], refresh_token:[REDACTED], expires_in:%d, obtained_at:%s}",
		t.ExpiresIn, t.ObtainedAt.UTC().Format(time.RFC3339))
}

// GoString redacts the token values for %#v as well.
func (t TokenSet) GoString() string {
	return t.String()
}

// Status is a secret-free snapshot of the connection state.
type Status struct {
	Connected bool       `json:"connected"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Expired   bool       `json:"expired"`
}
