package oauth

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/Masterminds/sprig/v3"

	"vatfiler/pkg/logging"
)

// Handler serves the browser side of the authorization flow.
type Handler struct {
	flow *Flow
}

// NewHandler creates a Handler for flow.
func NewHandler(flow *Flow) *Handler {
	return &Handler{flow: flow}
}

// HandleConnect redirects the browser to the authority's authorize page.
func (h *Handler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	setSecurityHeaders(w)
	http.Redirect(w, r, h.flow.Begin(), http.StatusFound)
}

// HandleCallback completes the flow when the authority redirects back.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")

	// The user denied access or the authority rejected the request. The
	// pending nonce is kept so the user can retry from the same tab.
	if errParam := query.Get("error"); errParam != "" {
		logging.Warn("OAuth", "Authorization callback returned error: %s - %s", errParam, query.Get("error_description"))
		h.renderResultPage(w, http.StatusBadRequest, resultPage{
			Title:   "authorization failed",
			Message: "The authority returned: " + errParam,
			Detail:  query.Get("error_description"),
		})
		return
	}

	if code == "" {
		logging.Warn("OAuth", "Authorization callback missing code parameter")
		h.renderResultPage(w, http.StatusBadRequest, resultPage{
			Title:   "authorization failed",
			Message: "Invalid callback: missing code.",
		})
		return
	}

	tokens, err := h.flow.Complete(r.Context(), code, state)
	if err != nil {
		h.handleCallbackError(w, err)
		return
	}

	h.renderResultPage(w, http.StatusOK, resultPage{
		Success:   true,
		Title:     "connected",
		Message:   "Connected. Access token received.",
		ExpiresIn: tokens.ExpiresIn,
		ExpiresAt: tokens.ExpiresAt(),
	})
}

func (h *Handler) handleCallbackError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrStateMismatch) {
		h.renderResultPage(w, http.StatusBadRequest, resultPage{
			Title:   "state mismatch",
			Message: "state mismatch",
			Detail:  "Start again from the connect page.",
		})
		return
	}

	// Token endpoint rejections are passed through with their own status
	// and body so the caller sees exactly what the authority said.
	if authErr, ok := AsUpstreamAuthError(err); ok {
		w.Header().Set("Content-Type", contentTypeFor(authErr.Body))
		w.WriteHeader(authErr.Status)
		_, _ = w.Write(authErr.Body)
		return
	}

	logging.Error("OAuth", err, "Failed to complete authorization")
	h.renderResultPage(w, http.StatusInternalServerError, resultPage{
		Title:   "authorization failed",
		Message: "Failed to complete authorization. Please try again.",
	})
}

// setSecurityHeaders sets recommended security headers for HTML responses.
// These headers help prevent XSS, clickjacking, and MIME sniffing attacks.
func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
}

type resultPage struct {
	Success   bool
	Title     string
	Message   string
	Detail    string
	ExpiresIn int64
	ExpiresAt time.Time
}

var resultTemplate = template.Must(template.New("result").Funcs(sprig.HtmlFuncMap()).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{ .Title | title }} - vatfiler</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif;
            background: #f3f2f1;
            min-height: 100vh;
            display: flex;
            align-items: center;
            justify-content: center;
            color: #0b0c0c;
        }
        .container {
            text-align: center;
            padding: 3rem;
            background: #fff;
            border-top: 8px solid #d4351c;
            max-width: 500px;
            margin: 1rem;
        }
        .container.ok { border-top-color: #00703c; }
        h1 { font-size: 1.75rem; font-weight: 700; margin-bottom: 1rem; }
        p { line-height: 1.6; margin-top: 1rem; }
        .detail { color: #505a5f; }
    </style>
</head>
<body>
    <div class="container {{ ternary "ok" "failed" .Success }}">
        <h1>{{ .Title | title }}</h1>
        <p class="message">{{ .Message }}{{ if .Success }} Expires in {{ .ExpiresIn }} seconds.{{ end }}</p>
        {{- if .Success }}
        <p class="detail">Valid until {{ .ExpiresAt | date "02 Jan 2006 15:04:05 MST" }}. You can close this window.</p>
        {{- end }}
        {{- with .Detail | trim }}
        <p class="detail">{{ . }}</p>
        {{- end }}
    </div>
</body>
</html>`))

// renderResultPage renders the callback outcome. Values are escaped by
// html/template.
func (h *Handler) renderResultPage(w http.ResponseWriter, status int, page resultPage) {
	var buf bytes.Buffer
	if err := resultTemplate.Execute(&buf, page); err != nil {
		logging.Error("OAuth", err, "Failed to render result page")
		http.Error(w, page.Message, status)
		return
	}

	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func contentTypeFor(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}
