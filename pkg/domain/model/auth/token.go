package auth

import (
	"slices"
	"time"

	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/google/uuid"
)

// TokenID is a UUID-based identifier for Token
type TokenID string

// NewTokenID generates a new UUID v4 TokenID
func NewTokenID() TokenID {
	return TokenID(uuid.New().String())
}

// Token mirrors the platform access-token record owned by the external OAuth
// collaborator. This core only reads IsActive and Scopes to gate
// access-permission checks; the secret material itself is never interpreted
// here and is redacted from logs.
type Token struct {
	ID          TokenID
	UserID      string
	Platform    types.Platform
	TeamID      string
	AccessToken string // opaque encrypted blob, masked in log output
	ExpiresAt   time.Time
	Scopes      []string
	IsActive    bool
	CreatedAt   time.Time
	LastUsedAt  time.Time
}

// HasScope reports whether the token grants the given scope
func (t *Token) HasScope(scope string) bool {
	return slices.Contains(t.Scopes, scope)
}

// Usable reports whether the token may gate ingestion for its platform
func (t *Token) Usable(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	if !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt) {
		return false
	}
	return true
}
