package oauth

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock is a settable clock for Provider and StateStore tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeRefresher records refresh calls and returns a canned result.
type fakeRefresher struct {
	mu       sync.Mutex
	calls    int
	received []string
	result   TokenSet
	err      error
	delay    time.Duration
}

func (f *fakeRefresher) ExchangeRefreshToken(_ context.Context, refreshToken string) (TokenSet, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.received = append(f.received, refreshToken)
	if f.err != nil {
		return TokenSet{}, f.err
	}
	return f.result, nil
}

func (f *fakeRefresher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeCodeExchanger records code exchanges.
type fakeCodeExchanger struct {
	mu     sync.Mutex
	codes  []string
	result TokenSet
	err    error
}

func (f *fakeCodeExchanger) AuthCodeURL(state string) string {
	return "https://authority.test/oauth/authorize?state=" + state
}

func (f *fakeCodeExchanger) ExchangeAuthorizationCode(_ context.Context, code string) (TokenSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
	if f.err != nil {
		return TokenSet{}, f.err
	}
	return f.result, nil
}

func (f *fakeCodeExchanger) Codes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.codes...)
}

func newTestStore(t *testing.T) *TokenStore {
	t.Helper()
	return NewTokenStore(filepath.Join(t.TempDir(), "tokens.json"))
}

func seedTokens(t *testing.T, store *TokenStore, tokens TokenSet) {
	t.Helper()
	require.NoError(t, store.Save(tokens))
}
