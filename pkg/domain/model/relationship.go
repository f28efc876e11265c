package model

import (
	"time"

	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/google/uuid"
)

// RelationshipID is a UUID-based identifier for Relationship
type RelationshipID string

// NewRelationshipID generates a new UUID v4 RelationshipID
func NewRelationshipID() RelationshipID {
	return RelationshipID(uuid.New().String())
}

// Relationship is a typed, weighted, directed edge between two content items.
// The upsert key is (SourceID, TargetID, Type); repeated detection strengthens
// the edge instead of overwriting it. Strength stays within [0.0, 1.0].
type Relationship struct {
	ID        RelationshipID
	SourceID  ContentID
	TargetID  ContentID
	Type      types.RelationType
	Strength  float64
	Context   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PendingLinkID is a UUID-based identifier for PendingLink
type PendingLinkID string

// NewPendingLinkID generates a new UUID v4 PendingLinkID
func NewPendingLinkID() PendingLinkID {
	return PendingLinkID(uuid.New().String())
}

// PendingLink is an extracted URL whose target content is not yet stored.
// Pending links are retried whenever new content arrives until they resolve.
type PendingLink struct {
	ID          PendingLinkID
	SourceID    ContentID
	URL         string
	Platform    types.Platform
	Context     string
	Explicit    bool
	Attempts    int
	FirstSeenAt time.Time
	LastTriedAt time.Time
}
