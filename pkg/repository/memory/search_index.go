package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type searchIndexRepository struct {
	mu      sync.RWMutex
	entries map[model.ContentID]*model.SearchIndexEntry
}

func newSearchIndexRepository() *searchIndexRepository {
	return &searchIndexRepository{
		entries: make(map[model.ContentID]*model.SearchIndexEntry),
	}
}

func copyIndexEntry(e *model.SearchIndexEntry) *model.SearchIndexEntry {
	copied := *e
	copied.TitleTokens = append([]string(nil), e.TitleTokens...)
	copied.BodyTokens = append([]string(nil), e.BodyTokens...)
	copied.ConceptTokens = append([]string(nil), e.ConceptTokens...)
	copied.AuthorTokens = append([]string(nil), e.AuthorTokens...)
	if e.Embedding != nil {
		copied.Embedding = make([]float32, len(e.Embedding))
		copy(copied.Embedding, e.Embedding)
	}
	return &copied
}

func (r *searchIndexRepository) Put(ctx context.Context, entry *model.SearchIndexEntry) (*model.SearchIndexEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyIndexEntry(entry)
	if stored.ID == "" {
		stored.ID = model.NewEntryID()
	}
	stored.IndexedAt = time.Now().UTC()

	// Replaces any previous entry for the item; index entries are not versioned
	r.entries[stored.ContentID] = stored
	return copyIndexEntry(stored), nil
}

func (r *searchIndexRepository) Get(ctx context.Context, contentID model.ContentID) (*model.SearchIndexEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[contentID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "index entry not found", goerr.V("content_id", contentID))
	}
	return copyIndexEntry(entry), nil
}

func (r *searchIndexRepository) List(ctx context.Context) ([]*model.SearchIndexEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.SearchIndexEntry, 0, len(r.entries))
	for _, e := range r.entries {
		result = append(result, copyIndexEntry(e))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ContentID < result[j].ContentID
	})
	return result, nil
}

func (r *searchIndexRepository) Delete(ctx context.Context, contentID model.ContentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[contentID]; !exists {
		return goerr.Wrap(ErrNotFound, "index entry not found", goerr.V("content_id", contentID))
	}
	delete(r.entries, contentID)
	return nil
}
