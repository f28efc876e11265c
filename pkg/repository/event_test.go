package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/types"
)

func runEventRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Append assigns ID and timestamp", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		actor, err := repo.Person().Create(ctx, &model.Person{DisplayName: "Alice"})
		if err != nil {
			t.Fatalf("failed to create actor: %v", err)
		}
		subject, err := repo.Person().Create(ctx, &model.Person{DisplayName: "Bob"})
		if err != nil {
			t.Fatalf("failed to create subject: %v", err)
		}

		event, err := repo.Event().Append(ctx, &model.CollaborationEvent{
			ActorID:   actor.ID,
			SubjectID: subject.ID,
			ContentID: uniqueContentID("ev"),
			Kind:      types.EventMentioned,
		})
		if err != nil {
			t.Fatalf("failed to append event: %v", err)
		}
		if event.ID == "" {
			t.Error("expected non-empty event ID")
		}
		if event.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be set")
		}
	})

	t.Run("Append accepts events without an actor", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		subject, err := repo.Person().Create(ctx, &model.Person{DisplayName: "Bob"})
		if err != nil {
			t.Fatalf("failed to create subject: %v", err)
		}

		// authored events from system extractors carry no acting person
		event, err := repo.Event().Append(ctx, &model.CollaborationEvent{
			SubjectID: subject.ID,
			ContentID: uniqueContentID("ev"),
			Kind:      types.EventAuthored,
		})
		if err != nil {
			t.Fatalf("failed to append actorless event: %v", err)
		}
		if event.ActorID != "" {
			t.Errorf("expected empty ActorID, got %s", event.ActorID)
		}
	})

	t.Run("ListByPerson matches actor and subject roles", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		alice, err := repo.Person().Create(ctx, &model.Person{DisplayName: "Alice"})
		if err != nil {
			t.Fatalf("failed to create alice: %v", err)
		}
		bob, err := repo.Person().Create(ctx, &model.Person{DisplayName: "Bob"})
		if err != nil {
			t.Fatalf("failed to create bob: %v", err)
		}

		contentID := uniqueContentID("ev")
		if _, err := repo.Event().Append(ctx, &model.CollaborationEvent{
			ActorID:   alice.ID,
			SubjectID: bob.ID,
			ContentID: contentID,
			Kind:      types.EventMentioned,
			CreatedAt: time.Now().Add(-2 * time.Hour).UTC(),
		}); err != nil {
			t.Fatalf("failed to append first event: %v", err)
		}
		if _, err := repo.Event().Append(ctx, &model.CollaborationEvent{
			ActorID:   bob.ID,
			SubjectID: alice.ID,
			ContentID: contentID,
			Kind:      types.EventReferenced,
			CreatedAt: time.Now().Add(-1 * time.Hour).UTC(),
		}); err != nil {
			t.Fatalf("failed to append second event: %v", err)
		}

		events, err := repo.Event().ListByPerson(ctx, alice.ID)
		if err != nil {
			t.Fatalf("failed to list by person: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events for alice, got %d", len(events))
		}
		if events[0].CreatedAt.After(events[1].CreatedAt) {
			t.Error("expected events ordered oldest first")
		}
	})

	t.Run("ListByContent returns events attached to an item", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		person, err := repo.Person().Create(ctx, &model.Person{DisplayName: "Alice"})
		if err != nil {
			t.Fatalf("failed to create person: %v", err)
		}

		contentID := uniqueContentID("ev")
		otherID := uniqueContentID("ev")
		for _, id := range []model.ContentID{contentID, contentID, otherID} {
			if _, err := repo.Event().Append(ctx, &model.CollaborationEvent{
				SubjectID: person.ID,
				ContentID: id,
				Kind:      types.EventAuthored,
			}); err != nil {
				t.Fatalf("failed to append event: %v", err)
			}
		}

		events, err := repo.Event().ListByContent(ctx, contentID)
		if err != nil {
			t.Fatalf("failed to list by content: %v", err)
		}
		if len(events) != 2 {
			t.Errorf("expected 2 events for content, got %d", len(events))
		}
	})
}

func TestMemoryEventRepository(t *testing.T) {
	runEventRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreEventRepository(t *testing.T) {
	runEventRepositoryTest(t, newFirestoreRepository)
}
