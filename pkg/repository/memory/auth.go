package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Rubix982/triage/pkg/domain/model/auth"
	"github.com/Rubix982/triage/pkg/domain/types"
)

type tokenStore struct {
	mu     sync.RWMutex
	tokens map[auth.TokenID]*auth.Token
}

func newTokenStore() *tokenStore {
	return &tokenStore{
		tokens: make(map[auth.TokenID]*auth.Token),
	}
}

func copyToken(t *auth.Token) *auth.Token {
	copied := *t
	copied.Scopes = append([]string(nil), t.Scopes...)
	return &copied
}

func (s *tokenStore) Put(ctx context.Context, token *auth.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyToken(token)
	if stored.ID == "" {
		stored.ID = auth.NewTokenID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.tokens[stored.ID] = stored
	return nil
}

func (s *tokenStore) Get(ctx context.Context, tokenID auth.TokenID) (*auth.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, exists := s.tokens[tokenID]
	if !exists {
		return nil, ErrNotFound
	}
	return copyToken(token), nil
}

func (s *tokenStore) GetActive(ctx context.Context, platform types.Platform) (*auth.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UTC()
	var best *auth.Token
	for _, token := range s.tokens {
		if token.Platform != platform || !token.Usable(now) {
			continue
		}
		if best == nil || token.LastUsedAt.After(best.LastUsedAt) {
			best = token
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return copyToken(best), nil
}

func (s *tokenStore) Delete(ctx context.Context, tokenID auth.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[tokenID]; !exists {
		return ErrNotFound
	}
	delete(s.tokens, tokenID)
	return nil
}
