package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/model/config"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/Rubix982/triage/pkg/repository/memory"
	"github.com/Rubix982/triage/pkg/service/identity"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a person for an unknown identity", func(t *testing.T) {
		repo := memory.New()
		resolver := identity.New(repo, nil)

		person, err := resolver.Resolve(ctx, types.PlatformSlack, "U123", "Sarah Smith")
		if err != nil {
			t.Fatalf("failed to resolve: %v", err)
		}
		if person.ID == "" {
			t.Error("expected non-empty person ID")
		}
		if person.DisplayName != "Sarah Smith" {
			t.Errorf("expected display name from hint, got %s", person.DisplayName)
		}

		binding, err := repo.Person().GetIdentity(ctx, types.PlatformSlack, "U123")
		if err != nil {
			t.Fatalf("failed to get binding: %v", err)
		}
		if binding.PersonID != person.ID {
			t.Errorf("expected binding to new person, got %s", binding.PersonID)
		}
		if binding.Confidence != 1.0 {
			t.Errorf("expected confidence 1.0 for fresh binding, got %f", binding.Confidence)
		}
	})

	t.Run("known identity resolves deterministically", func(t *testing.T) {
		repo := memory.New()
		resolver := identity.New(repo, nil)

		first, err := resolver.Resolve(ctx, types.PlatformSlack, "U123", "Sarah Smith")
		if err != nil {
			t.Fatalf("failed to resolve: %v", err)
		}
		second, err := resolver.Resolve(ctx, types.PlatformSlack, "U123", "completely different hint")
		if err != nil {
			t.Fatalf("failed to re-resolve: %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("expected same person, got %s and %s", first.ID, second.ID)
		}

		persons, err := repo.Person().List(ctx)
		if err != nil {
			t.Fatalf("failed to list persons: %v", err)
		}
		if len(persons) != 1 {
			t.Errorf("expected 1 person, got %d", len(persons))
		}
	})

	t.Run("similar name on another platform joins the same person", func(t *testing.T) {
		repo := memory.New()
		resolver := identity.New(repo, nil)

		slack, err := resolver.Resolve(ctx, types.PlatformSlack, "sarah.smith", "Sarah Smith")
		if err != nil {
			t.Fatalf("failed to resolve slack identity: %v", err)
		}
		jira, err := resolver.Resolve(ctx, types.PlatformJira, "sarah_smith", "")
		if err != nil {
			t.Fatalf("failed to resolve jira identity: %v", err)
		}
		if jira.ID != slack.ID {
			t.Errorf("expected identities to join, got %s and %s", slack.ID, jira.ID)
		}

		identities, err := repo.Person().ListIdentities(ctx, slack.ID)
		if err != nil {
			t.Fatalf("failed to list identities: %v", err)
		}
		if len(identities) != 2 {
			t.Errorf("expected 2 bound identities, got %d", len(identities))
		}
		for _, id := range identities {
			if id.Platform == types.PlatformJira && id.Confidence < 0.85 {
				t.Errorf("expected match confidence at or above the threshold, got %f", id.Confidence)
			}
		}
	})

	t.Run("email local part matches a display name", func(t *testing.T) {
		repo := memory.New()
		resolver := identity.New(repo, nil)

		slack, err := resolver.Resolve(ctx, types.PlatformSlack, "U42", "Sarah Smith")
		if err != nil {
			t.Fatalf("failed to resolve slack identity: %v", err)
		}
		jira, err := resolver.Resolve(ctx, types.PlatformJira, "sarah.smith@example.com", "")
		if err != nil {
			t.Fatalf("failed to resolve email identity: %v", err)
		}
		if jira.ID != slack.ID {
			t.Errorf("expected email local part to match, got %s and %s", slack.ID, jira.ID)
		}
	})

	t.Run("dissimilar names stay separate", func(t *testing.T) {
		repo := memory.New()
		resolver := identity.New(repo, nil)

		alice, err := resolver.Resolve(ctx, types.PlatformSlack, "alice", "Alice Jones")
		if err != nil {
			t.Fatalf("failed to resolve alice: %v", err)
		}
		bob, err := resolver.Resolve(ctx, types.PlatformJira, "bob", "Bob Brown")
		if err != nil {
			t.Fatalf("failed to resolve bob: %v", err)
		}
		if alice.ID == bob.ID {
			t.Error("expected distinct persons for dissimilar names")
		}
	})

	t.Run("threshold is configurable", func(t *testing.T) {
		repo := memory.New()
		cfg := config.Default()
		cfg.Identity.AcceptanceThreshold = 1.01 // nothing can reach it
		resolver := identity.New(repo, cfg)

		first, err := resolver.Resolve(ctx, types.PlatformSlack, "sarah.smith", "Sarah Smith")
		if err != nil {
			t.Fatalf("failed to resolve: %v", err)
		}
		second, err := resolver.Resolve(ctx, types.PlatformJira, "sarah.smith", "Sarah Smith")
		if err != nil {
			t.Fatalf("failed to resolve: %v", err)
		}
		if first.ID == second.ID {
			t.Error("expected unreachable threshold to force separate persons")
		}
	})

	t.Run("rejects empty local ID", func(t *testing.T) {
		repo := memory.New()
		resolver := identity.New(repo, nil)

		_, err := resolver.Resolve(ctx, types.PlatformSlack, "", "Sarah")
		if err == nil {
			t.Fatal("expected error for empty local ID")
		}
		if !errors.Is(err, model.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("identity of a merged person follows the alias", func(t *testing.T) {
		repo := memory.New()
		resolver := identity.New(repo, nil)

		slack, err := resolver.Resolve(ctx, types.PlatformSlack, "U1", "Person One")
		if err != nil {
			t.Fatalf("failed to resolve slack: %v", err)
		}
		jira, err := resolver.Resolve(ctx, types.PlatformJira, "someone.else", "Someone Else")
		if err != nil {
			t.Fatalf("failed to resolve jira: %v", err)
		}

		if _, err := resolver.Merge(ctx, jira.ID, slack.ID); err != nil {
			t.Fatalf("failed to merge: %v", err)
		}

		resolved, err := resolver.Resolve(ctx, types.PlatformSlack, "U1", "")
		if err != nil {
			t.Fatalf("failed to re-resolve: %v", err)
		}
		if resolved.ID != jira.ID {
			t.Errorf("expected survivor %s, got %s", jira.ID, resolved.ID)
		}
	})
}

func TestResolveStorageFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("identity lookup failure surfaces instead of minting a person", func(t *testing.T) {
		repo := memory.New()
		resolver := identity.New(&brokenRepository{
			Repository: repo,
			person:     &brokenPersonRepository{PersonRepository: repo.Person(), failGetIdentity: true},
		}, nil)

		if _, err := resolver.Resolve(ctx, types.PlatformSlack, "U1", "Sarah Smith"); !errors.Is(err, errStorage) {
			t.Fatalf("expected storage failure to surface, got %v", err)
		}

		persons, err := repo.Person().List(ctx)
		if err != nil {
			t.Fatalf("failed to list persons: %v", err)
		}
		if len(persons) != 0 {
			t.Errorf("expected no persons after failed resolve, got %d", len(persons))
		}
	})

	t.Run("matching scan failure surfaces instead of minting a person", func(t *testing.T) {
		repo := memory.New()
		resolver := identity.New(&brokenRepository{
			Repository: repo,
			person:     &brokenPersonRepository{PersonRepository: repo.Person(), failListAll: true},
		}, nil)

		if _, err := resolver.Resolve(ctx, types.PlatformSlack, "U1", "Sarah Smith"); !errors.Is(err, errStorage) {
			t.Fatalf("expected storage failure to surface, got %v", err)
		}

		identities, err := repo.Person().ListAllIdentities(ctx)
		if err != nil {
			t.Fatalf("failed to list identities: %v", err)
		}
		if len(identities) != 0 {
			t.Errorf("expected no identities after failed resolve, got %d", len(identities))
		}
	})
}

var errStorage = errors.New("storage unavailable")

type brokenRepository struct {
	interfaces.Repository
	person *brokenPersonRepository
}

func (r *brokenRepository) Person() interfaces.PersonRepository { return r.person }

type brokenPersonRepository struct {
	interfaces.PersonRepository
	failGetIdentity bool
	failListAll     bool
}

func (p *brokenPersonRepository) GetIdentity(ctx context.Context, platform types.Platform, localID string) (*model.PlatformIdentity, error) {
	if p.failGetIdentity {
		return nil, errStorage
	}
	return p.PersonRepository.GetIdentity(ctx, platform, localID)
}

func (p *brokenPersonRepository) ListAllIdentities(ctx context.Context) ([]*model.PlatformIdentity, error) {
	if p.failListAll {
		return nil, errStorage
	}
	return p.PersonRepository.ListAllIdentities(ctx)
}

func TestMerge(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the surviving person", func(t *testing.T) {
		repo := memory.New()
		resolver := identity.New(repo, nil)

		survivor, err := resolver.Resolve(ctx, types.PlatformSlack, "U1", "Sarah Smith")
		if err != nil {
			t.Fatalf("failed to resolve survivor: %v", err)
		}
		loser, err := resolver.Resolve(ctx, types.PlatformJira, "not.sarah", "Not Sarah")
		if err != nil {
			t.Fatalf("failed to resolve loser: %v", err)
		}

		merged, err := resolver.Merge(ctx, survivor.ID, loser.ID)
		if err != nil {
			t.Fatalf("failed to merge: %v", err)
		}
		if merged.ID != survivor.ID {
			t.Errorf("expected survivor %s, got %s", survivor.ID, merged.ID)
		}

		identities, err := repo.Person().ListIdentities(ctx, survivor.ID)
		if err != nil {
			t.Fatalf("failed to list identities: %v", err)
		}
		if len(identities) != 2 {
			t.Errorf("expected survivor to hold both identities, got %d", len(identities))
		}
	})

	t.Run("merge of unknown person surfaces integrity error", func(t *testing.T) {
		repo := memory.New()
		resolver := identity.New(repo, nil)

		survivor, err := resolver.Resolve(ctx, types.PlatformSlack, "U1", "Sarah")
		if err != nil {
			t.Fatalf("failed to resolve survivor: %v", err)
		}

		_, err = resolver.Merge(ctx, survivor.ID, model.PersonID("ghost"))
		if err == nil {
			t.Fatal("expected error for unknown loser")
		}
		if !errors.Is(err, identity.ErrMergeIntegrity) {
			t.Errorf("expected ErrMergeIntegrity, got %v", err)
		}

		// survivor is untouched
		if _, err := repo.Person().Get(ctx, survivor.ID); err != nil {
			t.Errorf("expected survivor to remain, got %v", err)
		}
	})

	t.Run("repeated merge is a no-op", func(t *testing.T) {
		repo := memory.New()
		resolver := identity.New(repo, nil)

		survivor, err := resolver.Resolve(ctx, types.PlatformSlack, "U1", "A")
		if err != nil {
			t.Fatalf("failed to resolve survivor: %v", err)
		}
		loser, err := resolver.Resolve(ctx, types.PlatformJira, "unrelated.name", "Zed")
		if err != nil {
			t.Fatalf("failed to resolve loser: %v", err)
		}

		if _, err := resolver.Merge(ctx, survivor.ID, loser.ID); err != nil {
			t.Fatalf("failed first merge: %v", err)
		}
		if _, err := resolver.Merge(ctx, survivor.ID, loser.ID); err != nil {
			t.Errorf("expected repeated merge to succeed, got %v", err)
		}
		if _, err := resolver.Merge(ctx, loser.ID, survivor.ID); err != nil {
			t.Errorf("expected reversed merge to succeed, got %v", err)
		}
	})
}
