package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

const eventCollection = "collaboration_events"

type eventDoc struct {
	ID        string    `firestore:"ID"`
	ActorID   string    `firestore:"ActorID,omitempty"`
	SubjectID string    `firestore:"SubjectID"`
	ContentID string    `firestore:"ContentID"`
	Kind      string    `firestore:"Kind"`
	CreatedAt time.Time `firestore:"CreatedAt"`
}

func fromEventDoc(d *eventDoc) *model.CollaborationEvent {
	return &model.CollaborationEvent{
		ID:        model.EventID(d.ID),
		ActorID:   model.PersonID(d.ActorID),
		SubjectID: model.PersonID(d.SubjectID),
		ContentID: model.ContentID(d.ContentID),
		Kind:      types.EventKind(d.Kind),
		CreatedAt: d.CreatedAt,
	}
}

type eventRepository struct {
	client *firestore.Client
}

func newEventRepository(client *firestore.Client) *eventRepository {
	return &eventRepository{client: client}
}

func (r *eventRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(eventCollection)
}

func (r *eventRepository) Append(ctx context.Context, event *model.CollaborationEvent) (*model.CollaborationEvent, error) {
	doc := &eventDoc{
		ID:        string(event.ID),
		ActorID:   string(event.ActorID),
		SubjectID: string(event.SubjectID),
		ContentID: string(event.ContentID),
		Kind:      event.Kind.String(),
		CreatedAt: event.CreatedAt,
	}
	if doc.ID == "" {
		doc.ID = string(model.NewEventID())
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection().Doc(doc.ID).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to append event", goerr.V("event_id", doc.ID))
	}
	return fromEventDoc(doc), nil
}

func (r *eventRepository) ListByPerson(ctx context.Context, personID model.PersonID) ([]*model.CollaborationEvent, error) {
	asActor, err := r.queryAll(ctx, r.collection().Where("ActorID", "==", string(personID)))
	if err != nil {
		return nil, err
	}
	asSubject, err := r.queryAll(ctx, r.collection().Where("SubjectID", "==", string(personID)))
	if err != nil {
		return nil, err
	}

	seen := map[model.EventID]bool{}
	var result []*model.CollaborationEvent
	for _, ev := range append(asActor, asSubject...) {
		if seen[ev.ID] {
			continue
		}
		seen[ev.ID] = true
		result = append(result, ev)
	}
	sortEvents(result)
	return result, nil
}

func (r *eventRepository) ListByContent(ctx context.Context, contentID model.ContentID) ([]*model.CollaborationEvent, error) {
	result, err := r.queryAll(ctx, r.collection().Where("ContentID", "==", string(contentID)))
	if err != nil {
		return nil, err
	}
	sortEvents(result)
	return result, nil
}

func (r *eventRepository) List(ctx context.Context) ([]*model.CollaborationEvent, error) {
	result, err := r.queryAll(ctx, r.collection().Query)
	if err != nil {
		return nil, err
	}
	sortEvents(result)
	return result, nil
}

func sortEvents(events []*model.CollaborationEvent) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].ID < events[j].ID
	})
}

func (r *eventRepository) queryAll(ctx context.Context, q firestore.Query) ([]*model.CollaborationEvent, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var result []*model.CollaborationEvent
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate events")
		}
		var d eventDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal event")
		}
		result = append(result, fromEventDoc(&d))
	}
	return result, nil
}
