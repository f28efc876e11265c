package interfaces

import (
	"context"

	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/types"
)

// ContentRepository defines the interface for ContentItem and ContentVersion
// persistence. The repository owns the dedup/version lifecycle: Upsert runs as
// a read-modify-write serialized per source URL.
type ContentRepository interface {
	// Upsert stores a raw extraction. An unchanged body for a known URL only
	// touches LastUpdatedAt; a changed body appends a new version and updates
	// the live fields; an unknown URL creates the item at version 1. Returns
	// the stored item and whether a new version was written.
	Upsert(ctx context.Context, raw *model.RawExtraction) (*model.ContentItem, bool, error)

	// Get retrieves a content item by ID
	Get(ctx context.Context, id model.ContentID) (*model.ContentItem, error)

	// GetByURL retrieves a content item by its unique source URL
	GetByURL(ctx context.Context, sourceURL string) (*model.ContentItem, error)

	// GetByHash retrieves content items sharing a content hash
	GetByHash(ctx context.Context, hash string) ([]*model.ContentItem, error)

	// ListByTypeAndAuthor retrieves items filtered by content type and author.
	// Empty author matches any author.
	ListByTypeAndAuthor(ctx context.Context, contentType types.ContentType, author string) ([]*model.ContentItem, error)

	// ListVersions retrieves all versions of an item ordered by version number
	ListVersions(ctx context.Context, id model.ContentID) ([]*model.ContentVersion, error)

	// List retrieves all content items
	List(ctx context.Context) ([]*model.ContentItem, error)

	// SetStatus updates the lifecycle status of an item. Deletion is soft;
	// version history stays auditable.
	SetStatus(ctx context.Context, id model.ContentID, status types.ContentStatus) error
}
