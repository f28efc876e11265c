package model

import (
	"time"

	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/google/uuid"
)

// EmbeddingDimension is the dimension of the embedding vector
// Gemini text-embedding-004 uses 768 dimensions
const EmbeddingDimension = 768

// EntryID is a UUID-based identifier for SearchIndexEntry
type EntryID string

// NewEntryID generates a new UUID v4 EntryID
func NewEntryID() EntryID {
	return EntryID(uuid.New().String())
}

// SearchIndexEntry is the searchable projection of a ContentItem's current
// version. Exactly one entry exists per item; re-indexing replaces it entirely.
type SearchIndexEntry struct {
	ID            EntryID
	ContentID     ContentID
	ContentType   types.ContentType
	TitleTokens   []string
	BodyTokens    []string
	ConceptTokens []string
	AuthorTokens  []string
	FullText      string
	Embedding     []float32
	ContentHash   string // hash of the version this entry was built from
	IndexedAt     time.Time
}
