package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenEndpoint is a minimal authority token endpoint that records the
// forms it receives.
type tokenEndpoint struct {
	mu     sync.Mutex
	forms  []url.Values
	status int
	body   string
}

func (e *tokenEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/oauth/token" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e.mu.Lock()
	e.forms = append(e.forms, r.PostForm)
	status, body := e.status, e.body
	e.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (e *tokenEndpoint) Forms() []url.Values {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]url.Values(nil), e.forms...)
}

func newTestExchanger(t *testing.T, endpoint *tokenEndpoint) *Exchanger {
	t.Helper()
	server := httptest.NewServer(endpoint)
	t.Cleanup(server.Close)

	return NewExchanger(ExchangerConfig{
		BaseURL:      server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:3000/oauth/hmrc/callback",
		Scope:        "read:vat write:vat read:vat-returns",
		HTTPClient:   server.Client(),
	})
}

func TestExchanger_AuthCodeURL(t *testing.T) {
	ex := NewExchanger(ExchangerConfig{
		BaseURL:     "https://test-api.service.hmrc.gov.uk/",
		ClientID:    "client-id",
		RedirectURI: "http://localhost:3000/oauth/hmrc/callback",
		Scope:       "read:vat write:vat read:vat-returns",
	})

	raw := ex.AuthCodeURL("nonce-1")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "test-api.service.hmrc.gov.uk", u.Host)
	assert.Equal(t, "/oauth/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost:3000/oauth/hmrc/callback", q.Get("redirect_uri"))
	assert.Equal(t, "read:vat write:vat read:vat-returns", q.Get("scope"))
	assert.Equal(t, "nonce-1", q.Get("state"))
}

func TestExchanger_ExchangeAuthorizationCode(t *testing.T) {
	endpoint := &tokenEndpoint{
		body: `{"access_token":"at-1","refresh_token":"rt-1","expires_in":14400,"scope":"read:vat write:vat","token_type":"bearer"}`,
	}
	ex := newTestExchanger(t, endpoint)

	tokens, err := ex.ExchangeAuthorizationCode(context.Background(), "auth-code")
	require.NoError(t, err)

	assert.Equal(t, "at-1", tokens.AccessToken)
	assert.Equal(t, "rt-1", tokens.RefreshToken)
	assert.Equal(t, int64(14400), tokens.ExpiresIn)
	assert.Equal(t, "read:vat write:vat", tokens.Scope)
	assert.True(t, tokens.ObtainedAt.IsZero(), "exchanger must not stamp obtained_at")

	forms := endpoint.Forms()
	require.Len(t, forms, 1)
	form := forms[0]
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "auth-code", form.Get("code"))
	assert.Equal(t, "client-id", form.Get("client_id"))
	assert.Equal(t, "client-secret", form.Get("client_secret"))
	assert.Equal(t, "http://localhost:3000/oauth/hmrc/callback", form.Get("redirect_uri"))
}

func TestExchanger_ExchangeRefreshToken(t *testing.T) {
	t.Run("new refresh token returned", func(t *testing.T) {
		endpoint := &tokenEndpoint{body: `{"access_token":"at-2","refresh_token":"rt-2","expires_in":3600}`}
		ex := newTestExchanger(t, endpoint)

		tokens, err := ex.ExchangeRefreshToken(context.Background(), "rt-1")
		require.NoError(t, err)
		assert.Equal(t, "at-2", tokens.AccessToken)
		assert.Equal(t, "rt-2", tokens.RefreshToken)

		form := endpoint.Forms()[0]
		assert.Equal(t, "refresh_token", form.Get("grant_type"))
		assert.Equal(t, "rt-1", form.Get("refresh_token"))
		assert.Equal(t, "client-id", form.Get("client_id"))
		assert.Equal(t, "client-secret", form.Get("client_secret"))
	})

	t.Run("refresh token carried over when omitted", func(t *testing.T) {
		endpoint := &tokenEndpoint{body: `{"access_token":"at-3","expires_in":3600}`}
		ex := newTestExchanger(t, endpoint)

		tokens, err := ex.ExchangeRefreshToken(context.Background(), "rt-1")
		require.NoError(t, err)
		assert.Equal(t, "rt-1", tokens.RefreshToken)
	})

	t.Run("empty refresh token", func(t *testing.T) {
		endpoint := &tokenEndpoint{}
		ex := newTestExchanger(t, endpoint)

		_, err := ex.ExchangeRefreshToken(context.Background(), "")
		require.Error(t, err)
		assert.Empty(t, endpoint.Forms())
	})
}

func TestExchanger_UpstreamRejection(t *testing.T) {
	body := `{"error":"invalid_grant","error_description":"refresh token has expired"}`
	endpoint := &tokenEndpoint{status: http.StatusBadRequest, body: body}
	ex := newTestExchanger(t, endpoint)

	_, err := ex.ExchangeRefreshToken(context.Background(), "rt-old")
	require.Error(t, err)

	authErr, ok := AsUpstreamAuthError(err)
	require.True(t, ok, "expected UpstreamAuthError, got %T: %v", err, err)
	assert.Equal(t, http.StatusBadRequest, authErr.Status)
	assert.JSONEq(t, body, string(authErr.Body))
}

func TestExchanger_MissingExpiresIn(t *testing.T) {
	endpoint := &tokenEndpoint{body: `{"access_token":"at","refresh_token":"rt"}`}
	ex := newTestExchanger(t, endpoint)

	_, err := ex.ExchangeAuthorizationCode(context.Background(), "code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expires_in")
}
