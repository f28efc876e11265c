package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const searchIndexCollection = "search_index"

type searchIndexDoc struct {
	ID            string             `firestore:"ID"`
	ContentID     string             `firestore:"ContentID"`
	ContentType   string             `firestore:"ContentType"`
	TitleTokens   []string           `firestore:"TitleTokens"`
	BodyTokens    []string           `firestore:"BodyTokens"`
	ConceptTokens []string           `firestore:"ConceptTokens"`
	AuthorTokens  []string           `firestore:"AuthorTokens"`
	FullText      string             `firestore:"FullText"`
	Embedding     firestore.Vector32 `firestore:"Embedding,omitempty"`
	ContentHash   string             `firestore:"ContentHash"`
	IndexedAt     time.Time          `firestore:"IndexedAt"`
}

func fromSearchIndexDoc(d *searchIndexDoc) *model.SearchIndexEntry {
	return &model.SearchIndexEntry{
		ID:            model.EntryID(d.ID),
		ContentID:     model.ContentID(d.ContentID),
		ContentType:   types.ContentType(d.ContentType),
		TitleTokens:   d.TitleTokens,
		BodyTokens:    d.BodyTokens,
		ConceptTokens: d.ConceptTokens,
		AuthorTokens:  d.AuthorTokens,
		FullText:      d.FullText,
		Embedding:     []float32(d.Embedding),
		ContentHash:   d.ContentHash,
		IndexedAt:     d.IndexedAt,
	}
}

type searchIndexRepository struct {
	client *firestore.Client
}

func newSearchIndexRepository(client *firestore.Client) *searchIndexRepository {
	return &searchIndexRepository{client: client}
}

func (r *searchIndexRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(searchIndexCollection)
}

// Put replaces any existing entry for the same content item. The document ID
// is the content ID so re-indexing never leaves stale duplicates behind
func (r *searchIndexRepository) Put(ctx context.Context, entry *model.SearchIndexEntry) (*model.SearchIndexEntry, error) {
	doc := &searchIndexDoc{
		ID:            string(entry.ID),
		ContentID:     string(entry.ContentID),
		ContentType:   entry.ContentType.String(),
		TitleTokens:   entry.TitleTokens,
		BodyTokens:    entry.BodyTokens,
		ConceptTokens: entry.ConceptTokens,
		AuthorTokens:  entry.AuthorTokens,
		FullText:      entry.FullText,
		Embedding:     firestore.Vector32(entry.Embedding),
		ContentHash:   entry.ContentHash,
		IndexedAt:     time.Now().UTC(),
	}
	if doc.ID == "" {
		doc.ID = string(model.NewEntryID())
	}
	if _, err := r.collection().Doc(doc.ContentID).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to save index entry", goerr.V("content_id", entry.ContentID))
	}
	return fromSearchIndexDoc(doc), nil
}

func (r *searchIndexRepository) Get(ctx context.Context, contentID model.ContentID) (*model.SearchIndexEntry, error) {
	doc, err := r.collection().Doc(string(contentID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "index entry not found", goerr.V("content_id", contentID))
		}
		return nil, goerr.Wrap(err, "failed to get index entry", goerr.V("content_id", contentID))
	}

	var d searchIndexDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal index entry")
	}
	return fromSearchIndexDoc(&d), nil
}

func (r *searchIndexRepository) List(ctx context.Context) ([]*model.SearchIndexEntry, error) {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	var result []*model.SearchIndexEntry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate index entries")
		}
		var d searchIndexDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal index entry")
		}
		result = append(result, fromSearchIndexDoc(&d))
	}
	return result, nil
}

func (r *searchIndexRepository) Delete(ctx context.Context, contentID model.ContentID) error {
	if _, err := r.collection().Doc(string(contentID)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete index entry", goerr.V("content_id", contentID))
	}
	return nil
}
