package model

import (
	"time"

	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/google/uuid"
)

// EventID is a UUID-based identifier for CollaborationEvent
type EventID string

// NewEventID generates a new UUID v4 EventID
func NewEventID() EventID {
	return EventID(uuid.New().String())
}

// CollaborationEvent is an immutable record of one person's observed
// interaction with content or another person. Events are append-only.
type CollaborationEvent struct {
	ID        EventID
	ActorID   PersonID // may be empty when the acting author is unknown
	SubjectID PersonID
	ContentID ContentID
	Kind      types.EventKind
	CreatedAt time.Time
}
