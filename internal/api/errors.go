package api

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"

	"vatfiler/internal/hmrc"
	"vatfiler/internal/oauth"
	"vatfiler/pkg/logging"
)

// NotConnectedDetail is the body detail returned when no tokens are stored.
const NotConnectedDetail = "Not connected to HMRC yet."

// RequestError is a problem with the local request itself.
type RequestError struct {
	Message string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

func badRequest(message string) error {
	return &RequestError{Message: message}
}

// writeError maps err onto a response. Upstream failures keep their status
// and body byte for byte.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *RequestError
	var apiErr *hmrc.APIError
	var authErr *oauth.UpstreamAuthError
	var netErr net.Error

	switch {
	case errors.Is(err, oauth.ErrNotConnected):
		writeDetail(w, http.StatusUnauthorized, NotConnectedDetail)

	case errors.As(err, &reqErr):
		writeDetail(w, http.StatusBadRequest, reqErr.Message)

	case errors.As(err, &apiErr):
		logging.Warn("API", "%s %s: upstream returned %d", r.Method, r.URL.Path, apiErr.Status)
		writeRaw(w, apiErr.Status, apiErr.Body)

	case errors.As(err, &authErr):
		logging.Warn("API", "%s %s: token endpoint returned %d", r.Method, r.URL.Path, authErr.Status)
		writeRaw(w, authErr.Status, authErr.Body)

	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		logging.Error("API", err, "%s %s: upstream unreachable", r.Method, r.URL.Path)
		writeDetail(w, http.StatusBadGateway, "HMRC API unreachable.")

	default:
		logging.Error("API", err, "%s %s failed", r.Method, r.URL.Path)
		writeDetail(w, http.StatusInternalServerError, "Internal error.")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeRaw writes an upstream body unchanged. JSON-looking bodies are
// labelled as JSON; everything else as plain text.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	contentType := "text/plain; charset=utf-8"
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
