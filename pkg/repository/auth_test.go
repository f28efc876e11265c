package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/Rubix982/triage/pkg/domain/model/auth"
	"github.com/Rubix982/triage/pkg/domain/types"
)

func runAuthRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("PutToken and GetToken round-trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		token := &auth.Token{
			ID:          auth.NewTokenID(),
			UserID:      "U123",
			Platform:    types.PlatformSlack,
			TeamID:      "T456",
			AccessToken: "xoxb-secret",
			ExpiresAt:   time.Now().Add(time.Hour).UTC(),
			Scopes:      []string{"channels:read", "users:read"},
			IsActive:    true,
			LastUsedAt:  time.Now().UTC(),
		}
		if err := repo.PutToken(ctx, token); err != nil {
			t.Fatalf("failed to put token: %v", err)
		}

		got, err := repo.GetToken(ctx, token.ID)
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}
		if got.UserID != "U123" {
			t.Errorf("expected UserID=U123, got %s", got.UserID)
		}
		if !got.HasScope("channels:read") {
			t.Error("expected scope channels:read")
		}
		if got.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be set")
		}
	})

	t.Run("GetActiveToken prefers most recently used usable token", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		stale := &auth.Token{
			ID:         auth.NewTokenID(),
			Platform:   types.PlatformJira,
			IsActive:   true,
			LastUsedAt: time.Now().Add(-48 * time.Hour).UTC(),
		}
		fresh := &auth.Token{
			ID:         auth.NewTokenID(),
			Platform:   types.PlatformJira,
			IsActive:   true,
			LastUsedAt: time.Now().Add(-time.Hour).UTC(),
		}
		expired := &auth.Token{
			ID:         auth.NewTokenID(),
			Platform:   types.PlatformJira,
			IsActive:   true,
			ExpiresAt:  time.Now().Add(-time.Minute).UTC(),
			LastUsedAt: time.Now().UTC(),
		}
		revoked := &auth.Token{
			ID:         auth.NewTokenID(),
			Platform:   types.PlatformJira,
			IsActive:   false,
			LastUsedAt: time.Now().UTC(),
		}
		for _, tok := range []*auth.Token{stale, fresh, expired, revoked} {
			if err := repo.PutToken(ctx, tok); err != nil {
				t.Fatalf("failed to put token: %v", err)
			}
		}

		got, err := repo.GetActiveToken(ctx, types.PlatformJira)
		if err != nil {
			t.Fatalf("failed to get active token: %v", err)
		}
		if got.ID != fresh.ID {
			t.Errorf("expected freshest usable token %s, got %s", fresh.ID, got.ID)
		}
	})

	t.Run("GetActiveToken errors when platform has no usable token", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.GetActiveToken(ctx, types.PlatformNotion)
		if err == nil {
			t.Fatal("expected error for platform without tokens")
		}
		if !isNotFound(err) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteToken removes token", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		token := &auth.Token{
			ID:       auth.NewTokenID(),
			Platform: types.PlatformGitHub,
			IsActive: true,
		}
		if err := repo.PutToken(ctx, token); err != nil {
			t.Fatalf("failed to put token: %v", err)
		}
		if err := repo.DeleteToken(ctx, token.ID); err != nil {
			t.Fatalf("failed to delete token: %v", err)
		}

		_, err := repo.GetToken(ctx, token.ID)
		if err == nil {
			t.Fatal("expected error after delete")
		}
		if !isNotFound(err) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMemoryAuthRepository(t *testing.T) {
	runAuthRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreAuthRepository(t *testing.T) {
	runAuthRepositoryTest(t, newFirestoreRepository)
}
