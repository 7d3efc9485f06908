package oauth

import (
	"fmt"

	"vatfiler/internal/storage"
	"vatfiler/pkg/logging"
)

// TokenStore persists the single TokenSet of this installation as a JSON
// object on disk. It holds no cache; Provider owns the in-memory copy.
type TokenStore struct {
	file *storage.JSONFile
}

// NewTokenStore returns a store backed by the file at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{file: storage.NewJSONFile(path)}
}

// Path returns the token file location.
func (s *TokenStore) Path() string {
	return s.file.Path()
}

// Load reads the stored TokenSet. found is false when nothing has been
// stored yet, or when the file holds an object without an access token.
func (s *TokenStore) Load() (tokens TokenSet, found bool, err error) {
	found, err = s.file.Read(&tokens)
	if err != nil {
		return TokenSet{}, false, fmt.Errorf("failed to load tokens: %w", err)
	}
	if !found || tokens.IsZero() {
		return TokenSet{}, false, nil
	}
	return tokens, true, nil
}

// Save replaces the stored TokenSet.
func (s *TokenStore) Save(tokens TokenSet) error {
	if err := s.file.Write(tokens); err != nil {
		logging.Audit(logging.AuditEvent{
			Action:  "token_persist",
			Outcome: "failure",
			Subject: s.file.Path(),
			Err:     err,
		})
		return fmt.Errorf("failed to save tokens: %w", err)
	}
	logging.Debug("TokenStore", "Saved tokens to %s (%s)", s.file.Path(), tokens)
	return nil
}

// Clear removes the token file. Clearing an empty store is not an error.
func (s *TokenStore) Clear() error {
	if err := s.file.Remove(); err != nil {
		return fmt.Errorf("failed to remove tokens: %w", err)
	}
	return nil
}
