package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type contentRepository struct {
	mu       sync.RWMutex
	items    map[model.ContentID]*model.ContentItem
	byURL    map[string]model.ContentID
	versions map[model.ContentID][]*model.ContentVersion
	urlLocks *keyedMutex
}

func newContentRepository() *contentRepository {
	return &contentRepository{
		items:    make(map[model.ContentID]*model.ContentItem),
		byURL:    make(map[string]model.ContentID),
		versions: make(map[model.ContentID][]*model.ContentVersion),
		urlLocks: newKeyedMutex(),
	}
}

func copyContentItem(item *model.ContentItem) *model.ContentItem {
	copied := *item
	if item.AccessScopes != nil {
		copied.AccessScopes = make([]string, len(item.AccessScopes))
		copy(copied.AccessScopes, item.AccessScopes)
	}
	if item.Metadata != nil {
		copied.Metadata = make(map[string]string, len(item.Metadata))
		for k, v := range item.Metadata {
			copied.Metadata[k] = v
		}
	}
	return &copied
}

func copyContentVersion(v *model.ContentVersion) *model.ContentVersion {
	copied := *v
	return &copied
}

func (r *contentRepository) Upsert(ctx context.Context, raw *model.RawExtraction) (*model.ContentItem, bool, error) {
	if err := raw.Validate(); err != nil {
		return nil, false, err
	}

	// Serialize the read-modify-write per source URL; upserts on different
	// URLs proceed independently.
	unlock := r.urlLocks.Lock(raw.SourceURL)
	defer unlock()

	now := time.Now().UTC()
	incoming := raw.ToContentItem()

	r.mu.Lock()
	defer r.mu.Unlock()

	existingID, known := r.byURL[raw.SourceURL]
	if !known {
		incoming.ID = model.NewContentID()
		incoming.Status = types.ContentStatusActive
		incoming.ExtractedAt = now
		incoming.LastUpdatedAt = now
		incoming.VersionCount = 1

		version := model.NewVersionFromItem(incoming, 1, "initial extraction")
		version.CreatedAt = now

		r.items[incoming.ID] = copyContentItem(incoming)
		r.byURL[incoming.SourceURL] = incoming.ID
		r.versions[incoming.ID] = []*model.ContentVersion{version}

		return copyContentItem(incoming), true, nil
	}

	existing := r.items[existingID]
	existing.ExtractedAt = now
	existing.LastUpdatedAt = now

	if existing.ContentHash == incoming.ContentHash {
		// Unchanged body: no new version, timestamps only
		return copyContentItem(existing), false, nil
	}

	// Changed body: append a version snapshot and update live fields
	existing.Title = incoming.Title
	existing.Body = incoming.Body
	existing.ContentHash = incoming.ContentHash
	existing.RawPayload = incoming.RawPayload
	existing.Author = incoming.Author
	existing.ModifiedAt = incoming.ModifiedAt
	existing.AccessScopes = incoming.AccessScopes
	existing.Metadata = incoming.Metadata
	existing.VersionCount++

	version := model.NewVersionFromItem(existing, existing.VersionCount, "content changed")
	version.CreatedAt = now
	r.versions[existingID] = append(r.versions[existingID], version)

	return copyContentItem(existing), true, nil
}

func (r *contentRepository) Get(ctx context.Context, id model.ContentID) (*model.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "content not found", goerr.V("id", id))
	}
	return copyContentItem(item), nil
}

func (r *contentRepository) GetByURL(ctx context.Context, sourceURL string) (*model.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byURL[sourceURL]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "content not found", goerr.V("source_url", sourceURL))
	}
	return copyContentItem(r.items[id]), nil
}

func (r *contentRepository) GetByHash(ctx context.Context, hash string) ([]*model.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.ContentItem
	for _, item := range r.items {
		if item.ContentHash == hash {
			result = append(result, copyContentItem(item))
		}
	}
	sortContentItems(result)
	return result, nil
}

func (r *contentRepository) ListByTypeAndAuthor(ctx context.Context, contentType types.ContentType, author string) ([]*model.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.ContentItem
	for _, item := range r.items {
		if item.ContentType != contentType {
			continue
		}
		if author != "" && item.Author != author {
			continue
		}
		result = append(result, copyContentItem(item))
	}
	sortContentItems(result)
	return result, nil
}

func (r *contentRepository) ListVersions(ctx context.Context, id model.ContentID) ([]*model.ContentVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.items[id]; !exists {
		return nil, goerr.Wrap(ErrNotFound, "content not found", goerr.V("id", id))
	}

	versions := r.versions[id]
	result := make([]*model.ContentVersion, 0, len(versions))
	for _, v := range versions {
		result = append(result, copyContentVersion(v))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].VersionNumber < result[j].VersionNumber
	})
	return result, nil
}

func (r *contentRepository) List(ctx context.Context) ([]*model.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.ContentItem, 0, len(r.items))
	for _, item := range r.items {
		result = append(result, copyContentItem(item))
	}
	sortContentItems(result)
	return result, nil
}

func (r *contentRepository) SetStatus(ctx context.Context, id model.ContentID, status types.ContentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[id]
	if !exists {
		return goerr.Wrap(ErrNotFound, "content not found", goerr.V("id", id))
	}
	item.Status = status
	item.LastUpdatedAt = time.Now().UTC()
	return nil
}

// sortContentItems orders by ExtractedAt descending with ID tie-break so list
// results are stable across calls
func sortContentItems(items []*model.ContentItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].ExtractedAt.Equal(items[j].ExtractedAt) {
			return items[i].ExtractedAt.After(items[j].ExtractedAt)
		}
		return items[i].ID < items[j].ID
	})
}
