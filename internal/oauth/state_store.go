package oauth

import (
	"crypto/subtle"
	"sync"
	"time"

	"github.com/google/uuid"

	"vatfiler/pkg/logging"
)

// StateStore holds the single pending state nonce of the authorization
// redirect flow. Starting a new flow replaces any nonce still pending.
type StateStore struct {
	mu        sync.Mutex
	pending   string
	createdAt time.Time

	// ttl bounds the age of an accepted nonce. Zero disables expiry.
	ttl time.Duration
	now func() time.Time
}

// NewStateStore creates an empty store. A ttl of zero means a pending nonce
// stays valid until it is consumed or replaced.
func NewStateStore(ttl time.Duration) *StateStore {
	return &StateStore{
		ttl: ttl,
		now: time.Now,
	}
}

// Generate creates a fresh nonce, replacing any pending one.
func (s *StateStore) Generate() string {
	nonce := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != "" {
		logging.Debug("OAuth", "Replacing pending state %s", logging.Truncate(s.pending))
	}
	s.pending = nonce
	s.createdAt = s.now()
	return nonce
}

// Consume checks state against the pending nonce. On a match the nonce is
// cleared so it cannot be replayed. On any failure the pending nonce is left
// as it was, so a retried callback with the right state still succeeds.
func (s *StateStore) Consume(state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == "" {
		logging.Warn("OAuth", "Callback received with no pending authorization")
		return ErrStateMismatch
	}
	if subtle.ConstantTimeCompare([]byte(state), []byte(s.pending)) != 1 {
		logging.Warn("OAuth", "Callback state does not match pending state %s", logging.Truncate(s.pending))
		return ErrStateMismatch
	}
	if s.ttl > 0 && s.now().Sub(s.createdAt) > s.ttl {
		logging.Warn("OAuth", "Pending state %s expired after %v", logging.Truncate(s.pending), s.ttl)
		return ErrStateMismatch
	}

	s.pending = ""
	s.createdAt = time.Time{}
	return nil
}

// Pending reports whether a flow is awaiting its callback.
func (s *StateStore) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != ""
}
