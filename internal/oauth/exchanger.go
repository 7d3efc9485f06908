package oauth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"vatfiler/pkg/logging"
)

// DefaultHTTPTimeout bounds every call to the authority.
const DefaultHTTPTimeout = 30 * time.Second

// ExchangerConfig describes the registered OAuth application.
type ExchangerConfig struct {
	// BaseURL is the authority root; /oauth/authorize and /oauth/token are
	// resolved against it.
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string

	// HTTPClient is used for token requests. Defaults to a client with
	// DefaultHTTPTimeout.
	HTTPClient *http.Client
}

// TokenRefresher trades a refresh token for a new TokenSet.
type TokenRefresher interface {
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (TokenSet, error)
}

// CodeExchanger builds the authorize URL and redeems authorization codes.
type CodeExchanger interface {
	AuthCodeURL(state string) string
	ExchangeAuthorizationCode(ctx context.Context, code string) (TokenSet, error)
}

// Exchanger talks to the authority's token endpoint. It has no side
// effects: callers stamp ObtainedAt and persist the result.
type Exchanger struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewExchanger creates an Exchanger for cfg.
func NewExchanger(cfg ExchangerConfig) *Exchanger {
	base := strings.TrimRight(cfg.BaseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	return &Exchanger{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       strings.Fields(cfg.Scope),
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/oauth/authorize",
				TokenURL: base + "/oauth/token",
				// The authority expects client credentials in the form body.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
	}
}

// AuthCodeURL returns the authorize URL carrying response_type=code,
// client_id, redirect_uri, scope and state.
func (e *Exchanger) AuthCodeURL(state string) string {
	return e.config.AuthCodeURL(state)
}

// ExchangeAuthorizationCode redeems an authorization code.
func (e *Exchanger) ExchangeAuthorizationCode(ctx context.Context, code string) (TokenSet, error) {
	logging.Debug("OAuth", "Exchanging authorization code at %s", e.config.Endpoint.TokenURL)

	token, err := e.config.Exchange(e.withClient(ctx), code)
	if err != nil {
		return TokenSet{}, e.mapError("code exchange", err)
	}
	return toTokenSet(token, time.Now())
}

// ExchangeRefreshToken trades a refresh token for a new TokenSet. When the
// response omits refresh_token the one passed in is carried over.
func (e *Exchanger) ExchangeRefreshToken(ctx context.Context, refreshToken string) (TokenSet, error) {
	if refreshToken == "" {
		return TokenSet{}, fmt.Errorf("refresh exchange: no refresh token available")
	}

	logging.Debug("OAuth", "Refreshing access token at %s", e.config.Endpoint.TokenURL)

	// A token without an access token is never valid, so the source always
	// performs the refresh grant.
	source := e.config.TokenSource(e.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return TokenSet{}, e.mapError("refresh exchange", err)
	}
	return toTokenSet(token, time.Now())
}

func (e *Exchanger) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
}

// mapError turns a token endpoint rejection into an UpstreamAuthError
// carrying the raw body. Transport failures are wrapped as they are.
func (e *Exchanger) mapError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		logging.Warn("OAuth", "%s rejected with status %d", op, retrieveErr.Response.StatusCode)
		return &UpstreamAuthError{
			Status: retrieveErr.Response.StatusCode,
			Body:   retrieveErr.Body,
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func toTokenSet(token *oauth2.Token, now time.Time) (TokenSet, error) {
	expiresIn := expiresInSeconds(token, now)
	if expiresIn <= 0 {
		return TokenSet{}, fmt.Errorf("token response missing expires_in")
	}

	tokens := TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresIn:    expiresIn,
	}
	if scope, ok := token.Extra("scope").(string); ok {
		tokens.Scope = scope
	}
	return tokens, nil
}

func expiresInSeconds(token *oauth2.Token, now time.Time) int64 {
	if token.ExpiresIn > 0 {
		return token.ExpiresIn
	}
	switch v := token.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	if !token.Expiry.IsZero() {
		return int64(math.Round(token.Expiry.Sub(now).Seconds()))
	}
	return 0
}
