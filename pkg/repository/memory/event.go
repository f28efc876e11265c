package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Rubix982/triage/pkg/domain/model"
)

type eventRepository struct {
	mu     sync.RWMutex
	events []*model.CollaborationEvent
}

func newEventRepository() *eventRepository {
	return &eventRepository{}
}

func copyEvent(e *model.CollaborationEvent) *model.CollaborationEvent {
	copied := *e
	return &copied
}

func (r *eventRepository) Append(ctx context.Context, event *model.CollaborationEvent) (*model.CollaborationEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyEvent(event)
	if created.ID == "" {
		created.ID = model.NewEventID()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	r.events = append(r.events, created)
	return copyEvent(created), nil
}

func (r *eventRepository) ListByPerson(ctx context.Context, personID model.PersonID) ([]*model.CollaborationEvent, error) {
	return r.listWhere(func(e *model.CollaborationEvent) bool {
		return e.ActorID == personID || e.SubjectID == personID
	})
}

func (r *eventRepository) ListByContent(ctx context.Context, contentID model.ContentID) ([]*model.CollaborationEvent, error) {
	return r.listWhere(func(e *model.CollaborationEvent) bool {
		return e.ContentID == contentID
	})
}

func (r *eventRepository) List(ctx context.Context) ([]*model.CollaborationEvent, error) {
	return r.listWhere(func(*model.CollaborationEvent) bool { return true })
}

func (r *eventRepository) listWhere(match func(*model.CollaborationEvent) bool) ([]*model.CollaborationEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.CollaborationEvent
	for _, e := range r.events {
		if match(e) {
			result = append(result, copyEvent(e))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
