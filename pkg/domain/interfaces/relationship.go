package interfaces

import (
	"context"

	"github.com/Rubix982/triage/pkg/domain/model"
)

// RelationshipRepository defines the interface for Relationship persistence.
// Edge upsert is a read-modify-write serialized per (source, target, type) key.
type RelationshipRepository interface {
	// Upsert inserts the edge, or strengthens an existing edge with the same
	// (source, target, type) key by increment, capped at 1.0 and never
	// decreasing. A non-empty context on the incoming edge replaces the stored
	// context.
	Upsert(ctx context.Context, edge *model.Relationship, increment float64) (*model.Relationship, error)

	// Related returns edges leaving contentID with strength >= minStrength,
	// ordered by strength descending then creation time descending, capped at
	// limit (limit <= 0 means no cap).
	Related(ctx context.Context, contentID model.ContentID, minStrength float64, limit int) ([]*model.Relationship, error)

	// ListBySource returns all edges leaving the given content item
	ListBySource(ctx context.Context, contentID model.ContentID) ([]*model.Relationship, error)

	// ListByTarget returns all edges entering the given content item
	ListByTarget(ctx context.Context, contentID model.ContentID) ([]*model.Relationship, error)

	// List returns all edges
	List(ctx context.Context) ([]*model.Relationship, error)

	// SavePending records an extracted URL whose target is not stored yet.
	// One pending row is kept per (source, URL) pair.
	SavePending(ctx context.Context, link *model.PendingLink) error

	// ListPendingByURL returns pending links waiting on the given URL
	ListPendingByURL(ctx context.Context, url string) ([]*model.PendingLink, error)

	// ListPending returns all pending links
	ListPending(ctx context.Context) ([]*model.PendingLink, error)

	// DeletePending removes a resolved or expired pending link
	DeletePending(ctx context.Context, id model.PendingLinkID) error
}
