package interfaces

import (
	"context"

	"github.com/Rubix982/triage/pkg/domain/model"
)

// SearchIndexRepository defines the interface for SearchIndexEntry persistence.
// Entries are not versioned: Put replaces any previous entry for the item.
type SearchIndexRepository interface {
	// Put stores the entry, replacing an existing entry for the same content
	Put(ctx context.Context, entry *model.SearchIndexEntry) (*model.SearchIndexEntry, error)

	// Get retrieves the entry for a content item
	Get(ctx context.Context, contentID model.ContentID) (*model.SearchIndexEntry, error)

	// List retrieves all entries
	List(ctx context.Context) ([]*model.SearchIndexEntry, error)

	// Delete removes the entry for a content item
	Delete(ctx context.Context, contentID model.ContentID) error
}
