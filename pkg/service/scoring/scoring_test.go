package scoring_test

import (
	"context"
	"testing"

	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/model/config"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/Rubix982/triage/pkg/repository/memory"
	"github.com/Rubix982/triage/pkg/service/scoring"
	"github.com/Rubix982/triage/pkg/service/search"
)

type fixture struct {
	repo       *memory.Memory
	aggregator *scoring.Aggregator
	indexer    *search.Indexer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := memory.New()
	cfg := config.Default()
	cfg.Search.Concepts = []string{"caching", "authentication"}
	return &fixture{
		repo:       repo,
		aggregator: scoring.New(repo),
		indexer:    search.New(repo, nil, cfg),
	}
}

func (f *fixture) person(t *testing.T, name string) *model.Person {
	t.Helper()
	person, err := f.repo.Person().Create(context.Background(), &model.Person{DisplayName: name})
	if err != nil {
		t.Fatalf("failed to create person: %v", err)
	}
	return person
}

func (f *fixture) content(t *testing.T, url, body string) *model.ContentItem {
	t.Helper()
	ctx := context.Background()
	item, _, err := f.repo.Content().Upsert(ctx, &model.RawExtraction{
		ContentType:    types.ContentTypeDocument,
		SourceURL:      url,
		SourcePlatform: types.PlatformConfluence,
		Title:          "doc",
		Body:           body,
	})
	if err != nil {
		t.Fatalf("failed to store content: %v", err)
	}
	if _, err := f.indexer.Index(ctx, item); err != nil {
		t.Fatalf("failed to index content: %v", err)
	}
	return item
}

func (f *fixture) event(t *testing.T, actor, subject model.PersonID, contentID model.ContentID, kind types.EventKind) {
	t.Helper()
	if _, err := f.repo.Event().Append(context.Background(), &model.CollaborationEvent{
		ActorID:   actor,
		SubjectID: subject,
		ContentID: contentID,
		Kind:      kind,
	}); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}
}

func TestRecompute(t *testing.T) {
	ctx := context.Background()

	t.Run("expertise accumulates weighted concepts", func(t *testing.T) {
		f := newFixture(t)
		alice := f.person(t, "Alice")

		cacheDoc := f.content(t, "https://docs.example.com/c1", "notes on caching strategy")
		authDoc := f.content(t, "https://docs.example.com/a1", "authentication token rotation")

		f.event(t, "", alice.ID, cacheDoc.ID, types.EventAuthored)
		f.event(t, "", alice.ID, authDoc.ID, types.EventMentioned)

		snapshot, err := f.aggregator.Recompute(ctx, alice.ID)
		if err != nil {
			t.Fatalf("failed to recompute: %v", err)
		}
		if snapshot.EventCount != 2 {
			t.Errorf("expected 2 events, got %d", snapshot.EventCount)
		}
		if snapshot.Expertise["caching"] != 1.0 {
			t.Errorf("expected authored weight 1.0 for caching, got %f", snapshot.Expertise["caching"])
		}
		if snapshot.Expertise["authentication"] != 0.5 {
			t.Errorf("expected mention weight 0.5 for authentication, got %f", snapshot.Expertise["authentication"])
		}
	})

	t.Run("influence sums inbound edge strengths on authored content", func(t *testing.T) {
		f := newFixture(t)
		alice := f.person(t, "Alice")

		doc := f.content(t, "https://docs.example.com/c1", "caching deep dive")
		f.event(t, "", alice.ID, doc.ID, types.EventAuthored)

		sources := []*model.ContentItem{
			f.content(t, "https://docs.example.com/o1", "unrelated"),
			f.content(t, "https://docs.example.com/o2", "another"),
		}
		for i, strength := range []float64{1.0, 0.5} {
			if _, err := f.repo.Relationship().Upsert(ctx, &model.Relationship{
				SourceID: sources[i].ID,
				TargetID: doc.ID,
				Type:     types.RelationLinksTo,
				Strength: strength,
			}, 0); err != nil {
				t.Fatalf("failed to upsert edge: %v", err)
			}
		}

		snapshot, err := f.aggregator.Recompute(ctx, alice.ID)
		if err != nil {
			t.Fatalf("failed to recompute: %v", err)
		}
		if snapshot.Influence != 1.5 {
			t.Errorf("expected influence 1.5, got %f", snapshot.Influence)
		}
	})

	t.Run("snapshot is reproducible", func(t *testing.T) {
		f := newFixture(t)
		alice := f.person(t, "Alice")
		doc := f.content(t, "https://docs.example.com/c1", "caching")
		f.event(t, "", alice.ID, doc.ID, types.EventAuthored)

		first, err := f.aggregator.Recompute(ctx, alice.ID)
		if err != nil {
			t.Fatalf("failed first recompute: %v", err)
		}
		second, err := f.aggregator.Recompute(ctx, alice.ID)
		if err != nil {
			t.Fatalf("failed second recompute: %v", err)
		}
		if first.Influence != second.Influence || first.EventCount != second.EventCount {
			t.Error("expected identical snapshots")
		}
		for concept, score := range first.Expertise {
			if second.Expertise[concept] != score {
				t.Errorf("expected expertise %s=%f to reproduce, got %f",
					concept, score, second.Expertise[concept])
			}
		}
	})

	t.Run("merged-away ID resolves through the alias", func(t *testing.T) {
		f := newFixture(t)
		survivor := f.person(t, "Sarah Smith")
		loser := f.person(t, "sarah.smith")

		doc := f.content(t, "https://docs.example.com/c1", "caching")
		f.event(t, "", loser.ID, doc.ID, types.EventAuthored)

		if err := f.repo.MergePersons(ctx, survivor.ID, loser.ID); err != nil {
			t.Fatalf("failed to merge: %v", err)
		}

		snapshot, err := f.aggregator.Recompute(ctx, loser.ID)
		if err != nil {
			t.Fatalf("failed to recompute via alias: %v", err)
		}
		if snapshot.PersonID != survivor.ID {
			t.Errorf("expected snapshot for survivor, got %s", snapshot.PersonID)
		}
		if snapshot.EventCount != 1 {
			t.Errorf("expected re-parented event counted, got %d", snapshot.EventCount)
		}
	})
}

func TestCollaborators(t *testing.T) {
	ctx := context.Background()

	t.Run("ranks by shared activity", func(t *testing.T) {
		f := newFixture(t)
		alice := f.person(t, "Alice")
		bob := f.person(t, "Bob")
		carol := f.person(t, "Carol")

		shared := f.content(t, "https://docs.example.com/s1", "caching")
		second := f.content(t, "https://docs.example.com/s2", "more caching")

		f.event(t, "", alice.ID, shared.ID, types.EventAuthored)
		f.event(t, alice.ID, bob.ID, shared.ID, types.EventMentioned)
		f.event(t, "", bob.ID, second.ID, types.EventAuthored)
		f.event(t, "", alice.ID, second.ID, types.EventMentioned)
		f.event(t, alice.ID, carol.ID, shared.ID, types.EventMentioned)

		collaborators, err := f.aggregator.Collaborators(ctx, alice.ID, 10)
		if err != nil {
			t.Fatalf("failed to rank collaborators: %v", err)
		}
		if len(collaborators) != 2 {
			t.Fatalf("expected 2 collaborators, got %d", len(collaborators))
		}
		if collaborators[0].PersonID != bob.ID {
			t.Errorf("expected bob ranked first, got %s", collaborators[0].DisplayName)
		}
		if collaborators[0].SharedItems != 2 {
			t.Errorf("expected 2 shared items with bob, got %d", collaborators[0].SharedItems)
		}
		if collaborators[1].PersonID != carol.ID {
			t.Errorf("expected carol second, got %s", collaborators[1].DisplayName)
		}
	})

	t.Run("person with no events has no collaborators", func(t *testing.T) {
		f := newFixture(t)
		loner := f.person(t, "Loner")

		collaborators, err := f.aggregator.Collaborators(ctx, loner.ID, 10)
		if err != nil {
			t.Fatalf("failed to rank collaborators: %v", err)
		}
		if len(collaborators) != 0 {
			t.Errorf("expected no collaborators, got %d", len(collaborators))
		}
	})
}
