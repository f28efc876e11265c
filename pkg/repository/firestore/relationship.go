package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
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
	relationshipCollection = "content_relationships"
	pendingLinkCollection  = "pending_links"
)

type relationshipDoc struct {
	ID        string    `firestore:"ID"`
	SourceID  string    `firestore:"SourceID"`
	TargetID  string    `firestore:"TargetID"`
	Type      string    `firestore:"Type"`
	Strength  float64   `firestore:"Strength"`
	Context   string    `firestore:"Context,omitempty"`
	CreatedAt time.Time `firestore:"CreatedAt"`
	UpdatedAt time.Time `firestore:"UpdatedAt"`
}

type pendingLinkDoc struct {
	ID          string    `firestore:"ID"`
	SourceID    string    `firestore:"SourceID"`
	URL         string    `firestore:"URL"`
	Platform    string    `firestore:"Platform"`
	Context     string    `firestore:"Context,omitempty"`
	Explicit    bool      `firestore:"Explicit"`
	Attempts    int       `firestore:"Attempts"`
	FirstSeenAt time.Time `firestore:"FirstSeenAt"`
	LastTriedAt time.Time `firestore:"LastTriedAt"`
}

func fromRelationshipDoc(d *relationshipDoc) *model.Relationship {
	return &model.Relationship{
		ID:        model.RelationshipID(d.ID),
		SourceID:  model.ContentID(d.SourceID),
		TargetID:  model.ContentID(d.TargetID),
		Type:      types.RelationType(d.Type),
		Strength:  d.Strength,
		Context:   d.Context,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type relationshipRepository struct {
	client *firestore.Client
}

func newRelationshipRepository(client *firestore.Client) *relationshipRepository {
	return &relationshipRepository{client: client}
}

func (r *relationshipRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(relationshipCollection)
}

func (r *relationshipRepository) pendingCollection() *firestore.CollectionRef {
	return r.client.Collection(pendingLinkCollection)
}

// edgeDocID derives the document ID from the upsert key so the same
// (source, target, type) always hits the same document
func edgeDocID(sourceID, targetID model.ContentID, typ types.RelationType) string {
	return string(sourceID) + "_" + string(targetID) + "_" + typ.String()
}

// pendingDocID derives the document ID from (source, URL); URLs are hashed to
// stay within Firestore document ID constraints
func pendingDocID(sourceID model.ContentID, url string) string {
	sum := sha256.Sum256([]byte(url))
	return string(sourceID) + "_" + hex.EncodeToString(sum[:8])
}

func clampStrength(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1.0 {
		return 1.0
	}
	return s
}

func (r *relationshipRepository) Upsert(ctx context.Context, edge *model.Relationship, increment float64) (*model.Relationship, error) {
	docRef := r.collection().Doc(edgeDocID(edge.SourceID, edge.TargetID, edge.Type))

	var result *model.Relationship
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()

		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to read edge")
			}

			created := &relationshipDoc{
				ID:        string(model.NewRelationshipID()),
				SourceID:  string(edge.SourceID),
				TargetID:  string(edge.TargetID),
				Type:      edge.Type.String(),
				Strength:  clampStrength(edge.Strength),
				Context:   edge.Context,
				CreatedAt: now,
				UpdatedAt: now,
			}
			result = fromRelationshipDoc(created)
			return tx.Set(docRef, created)
		}

		var existing relationshipDoc
		if err := doc.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to unmarshal edge")
		}

		// a stronger incoming observation overrides the incremental path
		strength := existing.Strength + increment
		if s := clampStrength(edge.Strength); s > strength {
			strength = s
		}
		existing.Strength = clampStrength(strength)
		if edge.Context != "" {
			existing.Context = edge.Context
		}
		existing.UpdatedAt = now

		result = fromRelationshipDoc(&existing)
		return tx.Set(docRef, &existing)
	})
	if err != nil {
		return nil, goerr.Wrap(txError(err), "edge upsert transaction failed",
			goerr.V("source_id", edge.SourceID),
			goerr.V("target_id", edge.TargetID),
			goerr.V("type", edge.Type))
	}

	return result, nil
}

func (r *relationshipRepository) Related(ctx context.Context, contentID model.ContentID, minStrength float64, limit int) ([]*model.Relationship, error) {
	edges, err := r.queryAll(ctx, r.collection().Where("SourceID", "==", string(contentID)))
	if err != nil {
		return nil, err
	}

	var result []*model.Relationship
	for _, edge := range edges {
		if edge.Strength >= minStrength {
			result = append(result, edge)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Strength != result[j].Strength {
			return result[i].Strength > result[j].Strength
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *relationshipRepository) ListBySource(ctx context.Context, contentID model.ContentID) ([]*model.Relationship, error) {
	return r.queryAll(ctx, r.collection().Where("SourceID", "==", string(contentID)))
}

func (r *relationshipRepository) ListByTarget(ctx context.Context, contentID model.ContentID) ([]*model.Relationship, error) {
	return r.queryAll(ctx, r.collection().Where("TargetID", "==", string(contentID)))
}

func (r *relationshipRepository) List(ctx context.Context) ([]*model.Relationship, error) {
	return r.queryAll(ctx, r.collection().Query)
}

func (r *relationshipRepository) queryAll(ctx context.Context, q firestore.Query) ([]*model.Relationship, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var result []*model.Relationship
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate edges")
		}
		var d relationshipDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal edge")
		}
		result = append(result, fromRelationshipDoc(&d))
	}
	return result, nil
}

func (r *relationshipRepository) SavePending(ctx context.Context, link *model.PendingLink) error {
	docRef := r.pendingCollection().Doc(pendingDocID(link.SourceID, link.URL))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()

		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to read pending link")
			}

			id := link.ID
			if id == "" {
				id = model.NewPendingLinkID()
			}
			return tx.Set(docRef, &pendingLinkDoc{
				ID:          string(id),
				SourceID:    string(link.SourceID),
				URL:         link.URL,
				Platform:    link.Platform.String(),
				Context:     link.Context,
				Explicit:    link.Explicit,
				Attempts:    1,
				FirstSeenAt: now,
				LastTriedAt: now,
			})
		}

		var existing pendingLinkDoc
		if err := doc.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to unmarshal pending link")
		}
		existing.Attempts++
		existing.LastTriedAt = now
		return tx.Set(docRef, &existing)
	})
	if err != nil {
		return goerr.Wrap(txError(err), "pending link transaction failed", goerr.V("url", link.URL))
	}
	return nil
}

func (r *relationshipRepository) ListPendingByURL(ctx context.Context, url string) ([]*model.PendingLink, error) {
	return r.queryPending(ctx, r.pendingCollection().Where("URL", "==", url))
}

func (r *relationshipRepository) ListPending(ctx context.Context) ([]*model.PendingLink, error) {
	return r.queryPending(ctx, r.pendingCollection().Query)
}

func (r *relationshipRepository) queryPending(ctx context.Context, q firestore.Query) ([]*model.PendingLink, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var result []*model.PendingLink
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate pending links")
		}
		var d pendingLinkDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal pending link")
		}
		result = append(result, &model.PendingLink{
			ID:          model.PendingLinkID(d.ID),
			SourceID:    model.ContentID(d.SourceID),
			URL:         d.URL,
			Platform:    types.Platform(d.Platform),
			Context:     d.Context,
			Explicit:    d.Explicit,
			Attempts:    d.Attempts,
			FirstSeenAt: d.FirstSeenAt,
			LastTriedAt: d.LastTriedAt,
		})
	}
	return result, nil
}

func (r *relationshipRepository) DeletePending(ctx context.Context, id model.PendingLinkID) error {
	iter := r.pendingCollection().Where("ID", "==", string(id)).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return goerr.Wrap(ErrNotFound, "pending link not found", goerr.V("id", id))
	}
	if err != nil {
		return goerr.Wrap(err, "failed to query pending link", goerr.V("id", id))
	}

	if _, err := doc.Ref.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete pending link", goerr.V("id", id))
	}
	return nil
}
