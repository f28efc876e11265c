package model

import (
	"time"

	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/google/uuid"
)

// PersonID is a UUID-based identifier for Person
type PersonID string

// NewPersonID generates a new UUID v4 PersonID
func NewPersonID() PersonID {
	return PersonID(uuid.New().String())
}

// IdentityID is a UUID-based identifier for PlatformIdentity
type IdentityID string

// NewIdentityID generates a new UUID v4 IdentityID
func NewIdentityID() IdentityID {
	return IdentityID(uuid.New().String())
}

// Person is a canonical cross-platform identity. Expertise and influence are
// derived state recomputed from the event and edge logs, never authoritative.
type Person struct {
	ID          PersonID
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlatformIdentity binds one platform-local identity string (email, username,
// numeric ID) to exactly one Person at a time.
type PlatformIdentity struct {
	ID          IdentityID
	PersonID    PersonID
	Platform    types.Platform
	LocalID     string
	Confidence  float64
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// IdentityKey returns the deterministic lookup key of a platform identity
func IdentityKey(platform types.Platform, localID string) string {
	return platform.String() + "/" + localID
}
