package api

import (
	"net/http"

	"vatfiler/internal/oauth"
)

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// RouterConfig collects what the router serves.
type RouterConfig struct {
	Handlers *Handlers
	OAuth    *oauth.Handler

	// AuthLimiter, when set, wraps /connect and the callback routes.
	AuthLimiter Middleware
}

// Callback paths. /oauth/hmrc/callback is the redirect URI registered by
// earlier deployments and stays routable.
const (
	CallbackPath       = "/oauth/callback"
	LegacyCallbackPath = "/oauth/hmrc/callback"
)

// NewRouter builds the mux for every local route.
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	limit := cfg.AuthLimiter
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	mux.HandleFunc("GET /health", Health)

	mux.Handle("GET /connect", limit(http.HandlerFunc(cfg.OAuth.HandleConnect)))
	mux.Handle("GET "+CallbackPath, limit(http.HandlerFunc(cfg.OAuth.HandleCallback)))
	mux.Handle("GET "+LegacyCallbackPath, limit(http.HandlerFunc(cfg.OAuth.HandleCallback)))

	h := cfg.Handlers
	mux.HandleFunc("GET /api/obligations", h.Obligations)
	mux.HandleFunc("POST /api/returns", h.SubmitReturn)
	mux.HandleFunc("GET /api/returns/view", h.ViewReturn)
	mux.HandleFunc("GET /api/liabilities", h.Liabilities)
	mux.HandleFunc("GET /api/payments", h.Payments)
	mux.HandleFunc("GET /api/receipts", h.Receipts)
	mux.HandleFunc("GET /api/status", h.Status)
	mux.HandleFunc("POST /api/excel/preview", h.ExcelPreview)

	return mux
}
