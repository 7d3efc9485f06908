// Package oauth implements the OAuth2 token lifecycle against the HMRC
// authority: the authorization redirect flow, code and refresh exchanges,
// persistence of the single TokenSet and lazy refresh on use.
//
// # Flow
//
//  1. The browser hits /connect; Flow.Begin records a fresh state nonce and
//     redirects to <base>/oauth/authorize
//  2. The authority redirects back to the callback with code and state
//  3. Flow.Complete checks the state, exchanges the code at
//     <base>/oauth/token and stores the TokenSet through the Provider
//  4. Every upstream API call asks Provider.AccessToken for a token, which
//     refreshes once the token is within RefreshMargin of expiry
//
// # Components
//
//   - TokenStore: the tokens.json file, written atomically
//   - Exchanger: token endpoint calls via golang.org/x/oauth2
//   - Provider: owns the cached TokenSet; concurrent refreshes share one call
//   - StateStore: the single pending nonce, optionally with a TTL
//   - Flow and Handler: the redirect flow and its HTTP endpoints
//   - TokenFileWatcher: reloads the Provider when tokens.json changes on disk
//
// # Errors
//
// ErrNotConnected means no TokenSet has been stored. ErrStateMismatch is
// returned for a callback whose state does not match. Rejections from the
// token endpoint surface as *UpstreamAuthError with the raw status and body.
//
// # Security
//
// Token values are never logged; TokenSet's String method redacts them.
// The token file is written with mode 0600 inside a 0700 directory.
package oauth
