package oauth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"vatfiler/pkg/logging"
)

const refreshFlightKey = "refresh"

// Provider hands out a valid access token, refreshing it lazily when it is
// within RefreshMargin of expiry. It is the only owner of the cached
// TokenSet in a process; everything else receives tokens through it.
type Provider struct {
	store     *TokenStore
	refresher TokenRefresher
	now       func() time.Time

	mu     sync.RWMutex
	cached *TokenSet
	loaded bool

	// refreshGroup collapses concurrent refreshes into a single call to
	// the token endpoint.
	refreshGroup singleflight.Group
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider creates a Provider. The token file is read on first use.
func NewProvider(store *TokenStore, refresher TokenRefresher, opts ...ProviderOption) *Provider {
	p := &Provider{
		store:     store,
		refresher: refresher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AccessToken returns a usable access token. It returns ErrNotConnected
// without any network call when no TokenSet is stored.
func (p *Provider) AccessToken(ctx context.Context) (string, error) {
	tokens, err := p.current()
	if err != nil {
		return "", err
	}
	if tokens == nil {
		return "", ErrNotConnected
	}
	if !tokens.NeedsRefresh(p.now()) {
		return tokens.AccessToken, nil
	}

	// The flight outlives any single caller, so it must not inherit the
	// first caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	result, err, shared := p.refreshGroup.Do(refreshFlightKey, func() (interface{}, error) {
		return p.refresh(flightCtx)
	})
	if err != nil {
		return "", err
	}
	if shared {
		logging.Debug("OAuth", "Shared in-flight token refresh")
	}
	return result.(string), nil
}

// refresh performs the refresh grant. It re-checks the cache first because
// a flight that completed just before this one may already have refreshed.
func (p *Provider) refresh(ctx context.Context) (string, error) {
	tokens, err := p.current()
	if err != nil {
		return "", err
	}
	if tokens == nil {
		return "", ErrNotConnected
	}
	if !tokens.NeedsRefresh(p.now()) {
		return tokens.AccessToken, nil
	}

	logging.Info("OAuth", "Access token expired at %s, refreshing", tokens.ExpiresAt().UTC().Format(time.RFC3339))

	fresh, err := p.refresher.ExchangeRefreshToken(ctx, tokens.RefreshToken)
	if err != nil {
		logging.Audit(logging.AuditEvent{
			Action:  "token_refresh",
			Outcome: "failure",
			Err:     err,
		})
		return "", fmt.Errorf("failed to refresh access token: %w", err)
	}

	fresh.ObtainedAt = p.now()
	if err := p.store.Save(fresh); err != nil {
		return "", err
	}
	p.setCached(&fresh)

	logging.Audit(logging.AuditEvent{
		Action:  "token_refresh",
		Outcome: "success",
		Details: fmt.Sprintf("expires_in=%d", fresh.ExpiresIn),
	})
	return fresh.AccessToken, nil
}

// Store stamps a freshly exchanged TokenSet with the current time,
// persists it and makes it the cached set.
func (p *Provider) Store(ctx context.Context, tokens TokenSet) (TokenSet, error) {
	if err := ctx.Err(); err != nil {
		return TokenSet{}, err
	}

	tokens.ObtainedAt = p.now()
	if err := p.store.Save(tokens); err != nil {
		return TokenSet{}, err
	}
	p.setCached(&tokens)

	logging.Audit(logging.AuditEvent{
		Action:  "token_stored",
		Outcome: "success",
		Subject: p.store.Path(),
		Details: fmt.Sprintf("expires_in=%d", tokens.ExpiresIn),
	})
	return tokens, nil
}

// Status reports whether a TokenSet is held and when it expires.
func (p *Provider) Status() (Status, error) {
	tokens, err := p.current()
	if err != nil {
		return Status{}, err
	}
	if tokens == nil {
		return Status{}, nil
	}

	if tokens.ObtainedAt.IsZero() {
		return Status{Connected: true}, nil
	}
	expiresAt := tokens.ExpiresAt()
	return Status{
		Connected: true,
		ExpiresAt: &expiresAt,
		Expired:   !p.now().Before(expiresAt),
	}, nil
}

// Reload discards the cached TokenSet and re-reads the token file. It is
// called when another process changes the file.
func (p *Provider) Reload() error {
	tokens, found, err := p.store.Load()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = true
	if !found {
		p.cached = nil
		logging.Info("OAuth", "Token file %s is empty or missing, now disconnected", p.store.Path())
		return nil
	}
	p.cached = &tokens
	logging.Info("OAuth", "Reloaded tokens from %s", p.store.Path())
	return nil
}

// Disconnect forgets the TokenSet in memory and on disk.
func (p *Provider) Disconnect() error {
	if err := p.store.Clear(); err != nil {
		logging.Audit(logging.AuditEvent{
			Action:  "token_cleared",
			Outcome: "failure",
			Subject: p.store.Path(),
			Err:     err,
		})
		return err
	}
	p.setCached(nil)

	logging.Audit(logging.AuditEvent{
		Action:  "token_cleared",
		Outcome: "success",
		Subject: p.store.Path(),
	})
	return nil
}

// current returns the cached TokenSet, loading it from disk on first use.
// A nil result means not connected.
func (p *Provider) current() (*TokenSet, error) {
	p.mu.RLock()
	if p.loaded {
		tokens := p.cached
		p.mu.RUnlock()
		return tokens, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return p.cached, nil
	}

	tokens, found, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	p.loaded = true
	if found {
		p.cached = &tokens
	}
	return p.cached, nil
}

func (p *Provider) setCached(tokens *TokenSet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = tokens
	p.loaded = true
}
