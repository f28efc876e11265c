package interfaces

import (
	"context"

	"github.com/Rubix982/triage/pkg/domain/model"
)

// EventRepository defines the interface for CollaborationEvent persistence.
// Events are append-only and never mutated, except for person re-parenting
// during an identity merge.
type EventRepository interface {
	// Append stores a new collaboration event
	Append(ctx context.Context, event *model.CollaborationEvent) (*model.CollaborationEvent, error)

	// ListByPerson returns events where the person is actor or subject
	ListByPerson(ctx context.Context, personID model.PersonID) ([]*model.CollaborationEvent, error)

	// ListByContent returns events attached to a content item
	ListByContent(ctx context.Context, contentID model.ContentID) ([]*model.CollaborationEvent, error)

	// List returns all events
	List(ctx context.Context) ([]*model.CollaborationEvent, error)
}
