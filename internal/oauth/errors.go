package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when no token set has been stored yet.
	ErrNotConnected = errors.New("not connected to HMRC yet")

	// ErrStateMismatch is returned when a callback carries a state value
	// that does not match the pending nonce.
	ErrStateMismatch = errors.New("state mismatch")
)

// UpstreamAuthError is a non-success response from the token endpoint.
// Body is the raw response body, passed through to the caller unmodified.
type UpstreamAuthError struct {
	Status int
	Body   []byte
}

// Error implements the error interface.
func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("token endpoint returned status %d: %s", e.Status, truncateBody(e.Body))
}

// IsNotConnected reports whether err means the user must run the connect flow.
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

// AsUpstreamAuthError extracts an *UpstreamAuthError from err's chain.
func AsUpstreamAuthError(err error) (*UpstreamAuthError, bool) {
	var authErr *UpstreamAuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

const maxErrorBody = 200

func truncateBody(body []byte) string {
	if len(body) <= maxErrorBody {
		return string(body)
	}
	return string(body[:maxErrorBody]) + "..."
}
