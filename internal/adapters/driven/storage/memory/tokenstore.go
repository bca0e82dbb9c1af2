package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore is an in-memory per-root change token store. Used when
// cursor persistence across restarts is not wanted.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewTokenStore creates an empty in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[string]string),
	}
}

// Save stores or replaces the token for a root.
func (s *TokenStore) Save(_ context.Context, root, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[root] = token
	return nil
}

// Get returns the token for a root.
func (s *TokenStore) Get(_ context.Context, root string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[root]
	if !ok {
		return "", domain.ErrNotFound
	}
	return token, nil
}

// All returns the tokens of every tracked root.
func (s *TokenStore) All(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.tokens))
	for root, token := range s.tokens {
		out[root] = token
	}
	return out, nil
}

// Delete removes the token for a root.
func (s *TokenStore) Delete(_ context.Context, root string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, root)
	return nil
}

// Clear removes all tokens.
func (s *TokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
	return nil
}
