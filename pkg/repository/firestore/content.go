package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	contentCollection = "extracted_content"
	versionCollection = "versions"
)

// contentDoc is the Firestore document representation of model.ContentItem.
// The tagged payload variant is stored as a JSON blob so the document schema
// stays flat.
type contentDoc struct {
	ID             string            `firestore:"ID"`
	ContentType    string            `firestore:"ContentType"`
	SourceURL      string            `firestore:"SourceURL"`
	SourcePlatform string            `firestore:"SourcePlatform"`
	Title          string            `firestore:"Title"`
	Body           string            `firestore:"Body"`
	RawPayload     []byte            `firestore:"RawPayload,omitempty"`
	ContentHash    string            `firestore:"ContentHash"`
	Author         string            `firestore:"Author,omitempty"`
	CreatedAt      time.Time         `firestore:"CreatedAt"`
	ModifiedAt     time.Time         `firestore:"ModifiedAt"`
	ExtractedAt    time.Time         `firestore:"ExtractedAt"`
	LastUpdatedAt  time.Time         `firestore:"LastUpdatedAt"`
	Status         string            `firestore:"Status"`
	AccessScopes   []string          `firestore:"AccessScopes,omitempty"`
	Metadata       map[string]string `firestore:"Metadata,omitempty"`
	VersionCount   int               `firestore:"VersionCount"`
}

type versionDoc struct {
	ID               string    `firestore:"ID"`
	ContentID        string    `firestore:"ContentID"`
	VersionNumber    int       `firestore:"VersionNumber"`
	Title            string    `firestore:"Title"`
	Body             string    `firestore:"Body"`
	ContentHash      string    `firestore:"ContentHash"`
	Author           string    `firestore:"Author,omitempty"`
	ModifiedAt       time.Time `firestore:"ModifiedAt"`
	ChangeSummary    string    `firestore:"ChangeSummary,omitempty"`
	DiffFromPrevious string    `firestore:"DiffFromPrevious,omitempty"`
	CreatedAt        time.Time `firestore:"CreatedAt"`
}

func toContentDoc(item *model.ContentItem) *contentDoc {
	doc := &contentDoc{
		ID:             string(item.ID),
		ContentType:    item.ContentType.String(),
		SourceURL:      item.SourceURL,
		SourcePlatform: item.SourcePlatform.String(),
		Title:          item.Title,
		Body:           item.Body,
		ContentHash:    item.ContentHash,
		Author:         item.Author,
		CreatedAt:      item.CreatedAt,
		ModifiedAt:     item.ModifiedAt,
		ExtractedAt:    item.ExtractedAt,
		LastUpdatedAt:  item.LastUpdatedAt,
		Status:         item.Status.String(),
		AccessScopes:   item.AccessScopes,
		Metadata:       item.Metadata,
		VersionCount:   item.VersionCount,
	}
	if raw, err := json.Marshal(item.RawPayload); err == nil {
		doc.RawPayload = raw
	}
	return doc
}

func fromContentDoc(d *contentDoc) *model.ContentItem {
	item := &model.ContentItem{
		ID:             model.ContentID(d.ID),
		ContentType:    types.ContentType(d.ContentType),
		SourceURL:      d.SourceURL,
		SourcePlatform: types.Platform(d.SourcePlatform),
		Title:          d.Title,
		Body:           d.Body,
		ContentHash:    d.ContentHash,
		Author:         d.Author,
		CreatedAt:      d.CreatedAt,
		ModifiedAt:     d.ModifiedAt,
		ExtractedAt:    d.ExtractedAt,
		LastUpdatedAt:  d.LastUpdatedAt,
		Status:         types.ContentStatus(d.Status),
		AccessScopes:   d.AccessScopes,
		Metadata:       d.Metadata,
		VersionCount:   d.VersionCount,
	}
	if len(d.RawPayload) > 0 {
		var p model.Payload
		if err := json.Unmarshal(d.RawPayload, &p); err == nil {
			item.RawPayload = p
		}
	}
	return item
}

func docToContent(doc *firestore.DocumentSnapshot) (*model.ContentItem, error) {
	var d contentDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromContentDoc(&d), nil
}

type contentRepository struct {
	client *firestore.Client
}

func newContentRepository(client *firestore.Client) *contentRepository {
	return &contentRepository{client: client}
}

func (r *contentRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(contentCollection)
}

func (r *contentRepository) versionRef(contentID model.ContentID, versionNumber int) *firestore.DocumentRef {
	return r.collection().Doc(string(contentID)).
		Collection(versionCollection).Doc(fmt.Sprintf("%06d", versionNumber))
}

// Upsert runs the hash-compare-and-version sequence inside a transaction so
// concurrent upserts on the same source URL cannot lose updates. Different
// URLs hit different documents and proceed independently.
func (r *contentRepository) Upsert(ctx context.Context, raw *model.RawExtraction) (*model.ContentItem, bool, error) {
	if err := raw.Validate(); err != nil {
		return nil, false, err
	}

	var result *model.ContentItem
	var newVersion bool

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		incoming := raw.ToContentItem()

		iter := tx.Documents(r.collection().Where("SourceURL", "==", raw.SourceURL).Limit(1))
		doc, err := iter.Next()
		if err != nil && err != iterator.Done {
			return goerr.Wrap(err, "failed to query content by URL")
		}

		if err == iterator.Done {
			incoming.ID = model.NewContentID()
			incoming.Status = types.ContentStatusActive
			incoming.ExtractedAt = now
			incoming.LastUpdatedAt = now
			incoming.VersionCount = 1

			version := model.NewVersionFromItem(incoming, 1, "initial extraction")
			version.CreatedAt = now

			if err := tx.Set(r.collection().Doc(string(incoming.ID)), toContentDoc(incoming)); err != nil {
				return goerr.Wrap(err, "failed to create content")
			}
			if err := tx.Set(r.versionRef(incoming.ID, 1), toVersionDoc(version)); err != nil {
				return goerr.Wrap(err, "failed to write initial version")
			}

			result = incoming
			newVersion = true
			return nil
		}

		existing, err := docToContent(doc)
		if err != nil {
			return goerr.Wrap(err, "failed to unmarshal content")
		}

		existing.ExtractedAt = now
		existing.LastUpdatedAt = now

		if existing.ContentHash == incoming.ContentHash {
			if err := tx.Update(doc.Ref, []firestore.Update{
				{Path: "ExtractedAt", Value: now},
				{Path: "LastUpdatedAt", Value: now},
			}); err != nil {
				return goerr.Wrap(err, "failed to touch content")
			}
			result = existing
			newVersion = false
			return nil
		}

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

		if err := tx.Set(doc.Ref, toContentDoc(existing)); err != nil {
			return goerr.Wrap(err, "failed to update content")
		}
		if err := tx.Set(r.versionRef(existing.ID, existing.VersionCount), toVersionDoc(version)); err != nil {
			return goerr.Wrap(err, "failed to append version")
		}

		result = existing
		newVersion = true
		return nil
	})
	if err != nil {
		return nil, false, goerr.Wrap(txError(err), "content upsert transaction failed",
			goerr.V("source_url", raw.SourceURL))
	}

	return result, newVersion, nil
}

func toVersionDoc(v *model.ContentVersion) *versionDoc {
	return &versionDoc{
		ID:               string(v.ID),
		ContentID:        string(v.ContentID),
		VersionNumber:    v.VersionNumber,
		Title:            v.Title,
		Body:             v.Body,
		ContentHash:      v.ContentHash,
		Author:           v.Author,
		ModifiedAt:       v.ModifiedAt,
		ChangeSummary:    v.ChangeSummary,
		DiffFromPrevious: v.DiffFromPrevious,
		CreatedAt:        v.CreatedAt,
	}
}

func fromVersionDoc(d *versionDoc) *model.ContentVersion {
	return &model.ContentVersion{
		ID:               model.VersionID(d.ID),
		ContentID:        model.ContentID(d.ContentID),
		VersionNumber:    d.VersionNumber,
		Title:            d.Title,
		Body:             d.Body,
		ContentHash:      d.ContentHash,
		Author:           d.Author,
		ModifiedAt:       d.ModifiedAt,
		ChangeSummary:    d.ChangeSummary,
		DiffFromPrevious: d.DiffFromPrevious,
		CreatedAt:        d.CreatedAt,
	}
}

func (r *contentRepository) Get(ctx context.Context, id model.ContentID) (*model.ContentItem, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "content not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get content", goerr.V("id", id))
	}
	return docToContent(doc)
}

func (r *contentRepository) GetByURL(ctx context.Context, sourceURL string) (*model.ContentItem, error) {
	iter := r.collection().Where("SourceURL", "==", sourceURL).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(ErrNotFound, "content not found", goerr.V("source_url", sourceURL))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query content by URL", goerr.V("source_url", sourceURL))
	}
	return docToContent(doc)
}

func (r *contentRepository) GetByHash(ctx context.Context, hash string) ([]*model.ContentItem, error) {
	return r.queryAll(ctx, r.collection().Where("ContentHash", "==", hash))
}

func (r *contentRepository) ListByTypeAndAuthor(ctx context.Context, contentType types.ContentType, author string) ([]*model.ContentItem, error) {
	q := r.collection().Where("ContentType", "==", contentType.String())
	if author != "" {
		q = q.Where("Author", "==", author)
	}
	return r.queryAll(ctx, q)
}

func (r *contentRepository) List(ctx context.Context) ([]*model.ContentItem, error) {
	return r.queryAll(ctx, r.collection().Query)
}

func (r *contentRepository) queryAll(ctx context.Context, q firestore.Query) ([]*model.ContentItem, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var result []*model.ContentItem
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate content")
		}
		item, err := docToContent(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal content")
		}
		result = append(result, item)
	}
	return result, nil
}

func (r *contentRepository) ListVersions(ctx context.Context, id model.ContentID) ([]*model.ContentVersion, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}

	iter := r.collection().Doc(string(id)).Collection(versionCollection).
		OrderBy("VersionNumber", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var result []*model.ContentVersion
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate versions", goerr.V("content_id", id))
		}
		var d versionDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal version")
		}
		result = append(result, fromVersionDoc(&d))
	}
	return result, nil
}

func (r *contentRepository) SetStatus(ctx context.Context, id model.ContentID, contentStatus types.ContentStatus) error {
	_, err := r.collection().Doc(string(id)).Update(ctx, []firestore.Update{
		{Path: "Status", Value: contentStatus.String()},
		{Path: "LastUpdatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "content not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to update content status", goerr.V("id", id))
	}
	return nil
}
