package oauth

import (
	"context"
	"fmt"

	"vatfiler/pkg/logging"
)

// Flow drives the authorization redirect: Begin hands out the authorize
// URL, Complete validates the callback and stores the resulting tokens.
type Flow struct {
	states    *StateStore
	exchanger CodeExchanger
	provider  *Provider
}

// NewFlow wires a Flow.
func NewFlow(states *StateStore, exchanger CodeExchanger, provider *Provider) *Flow {
	return &Flow{
		states:    states,
		exchanger: exchanger,
		provider:  provider,
	}
}

// Begin starts a new authorization and returns the URL to redirect to.
func (f *Flow) Begin() string {
	state := f.states.Generate()
	logging.Info("OAuth", "Starting authorization, state %s", logging.Truncate(state))
	return f.exchanger.AuthCodeURL(state)
}

// Complete handles the callback. The state is checked before any network
// call; a mismatch returns ErrStateMismatch and leaves the pending nonce
// in place.
func (f *Flow) Complete(ctx context.Context, code, state string) (TokenSet, error) {
	if err := f.states.Consume(state); err != nil {
		return TokenSet{}, err
	}

	tokens, err := f.exchanger.ExchangeAuthorizationCode(ctx, code)
	if err != nil {
		logging.Audit(logging.AuditEvent{
			Action:  "code_exchange",
			Outcome: "failure",
			Err:     err,
		})
		return TokenSet{}, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	stored, err := f.provider.Store(ctx, tokens)
	if err != nil {
		return TokenSet{}, err
	}

	logging.Info("OAuth", "Connected, access token expires in %d seconds", stored.ExpiresIn)
	return stored, nil
}

// Pending reports whether an authorization is awaiting its callback.
func (f *Flow) Pending() bool {
	return f.states.Pending()
}
