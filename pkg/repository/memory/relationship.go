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

type edgeKey struct {
	source model.ContentID
	target model.ContentID
	typ    types.RelationType
}

type pendingKey struct {
	source model.ContentID
	url    string
}

type relationshipRepository struct {
	mu       sync.RWMutex
	edges    map[edgeKey]*model.Relationship
	pending  map[pendingKey]*model.PendingLink
	keyLocks *keyedMutex
}

func newRelationshipRepository() *relationshipRepository {
	return &relationshipRepository{
		edges:    make(map[edgeKey]*model.Relationship),
		pending:  make(map[pendingKey]*model.PendingLink),
		keyLocks: newKeyedMutex(),
	}
}

func copyRelationship(rel *model.Relationship) *model.Relationship {
	copied := *rel
	return &copied
}

func copyPendingLink(p *model.PendingLink) *model.PendingLink {
	copied := *p
	return &copied
}

func (r *relationshipRepository) Upsert(ctx context.Context, edge *model.Relationship, increment float64) (*model.Relationship, error) {
	key := edgeKey{source: edge.SourceID, target: edge.TargetID, typ: edge.Type}

	unlock := r.keyLocks.Lock(string(key.source) + "/" + string(key.target) + "/" + key.typ.String())
	defer unlock()

	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, found := r.edges[key]
	if !found {
		created := copyRelationship(edge)
		if created.ID == "" {
			created.ID = model.NewRelationshipID()
		}
		created.Strength = clampStrength(created.Strength)
		created.CreatedAt = now
		created.UpdatedAt = now
		r.edges[key] = created
		return copyRelationship(created), nil
	}

	// Re-detection reinforces confidence: strengthen, never decrease. A
	// stronger incoming observation overrides the incremental path outright.
	strength := existing.Strength + increment
	if s := clampStrength(edge.Strength); s > strength {
		strength = s
	}
	existing.Strength = clampStrength(strength)
	if edge.Context != "" {
		existing.Context = edge.Context
	}
	existing.UpdatedAt = now
	return copyRelationship(existing), nil
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

func (r *relationshipRepository) Related(ctx context.Context, contentID model.ContentID, minStrength float64, limit int) ([]*model.Relationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Relationship
	for _, edge := range r.edges {
		if edge.SourceID != contentID {
			continue
		}
		if edge.Strength < minStrength {
			continue
		}
		result = append(result, copyRelationship(edge))
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
	return r.listWhere(func(e *model.Relationship) bool { return e.SourceID == contentID })
}

func (r *relationshipRepository) ListByTarget(ctx context.Context, contentID model.ContentID) ([]*model.Relationship, error) {
	return r.listWhere(func(e *model.Relationship) bool { return e.TargetID == contentID })
}

func (r *relationshipRepository) List(ctx context.Context) ([]*model.Relationship, error) {
	return r.listWhere(func(*model.Relationship) bool { return true })
}

func (r *relationshipRepository) listWhere(match func(*model.Relationship) bool) ([]*model.Relationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Relationship
	for _, edge := range r.edges {
		if match(edge) {
			result = append(result, copyRelationship(edge))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *relationshipRepository) SavePending(ctx context.Context, link *model.PendingLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pendingKey{source: link.SourceID, url: link.URL}
	now := time.Now().UTC()

	if existing, found := r.pending[key]; found {
		existing.Attempts++
		existing.LastTriedAt = now
		return nil
	}

	saved := copyPendingLink(link)
	if saved.ID == "" {
		saved.ID = model.NewPendingLinkID()
	}
	saved.Attempts = 1
	saved.FirstSeenAt = now
	saved.LastTriedAt = now
	r.pending[key] = saved
	return nil
}

func (r *relationshipRepository) ListPendingByURL(ctx context.Context, url string) ([]*model.PendingLink, error) {
	return r.listPendingWhere(func(p *model.PendingLink) bool { return p.URL == url })
}

func (r *relationshipRepository) ListPending(ctx context.Context) ([]*model.PendingLink, error) {
	return r.listPendingWhere(func(*model.PendingLink) bool { return true })
}

func (r *relationshipRepository) listPendingWhere(match func(*model.PendingLink) bool) ([]*model.PendingLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.PendingLink
	for _, p := range r.pending {
		if match(p) {
			result = append(result, copyPendingLink(p))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].FirstSeenAt.Equal(result[j].FirstSeenAt) {
			return result[i].FirstSeenAt.Before(result[j].FirstSeenAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *relationshipRepository) DeletePending(ctx context.Context, id model.PendingLinkID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, p := range r.pending {
		if p.ID == id {
			delete(r.pending, key)
			return nil
		}
	}
	return goerr.Wrap(ErrNotFound, "pending link not found", goerr.V("id", id))
}
