package worker_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/Rubix982/triage/pkg/repository/memory"
	"github.com/Rubix982/triage/pkg/service/search"
	"github.com/Rubix982/triage/pkg/service/worker"
)

func storeItem(t *testing.T, repo *memory.Memory, n int) *model.ContentItem {
	t.Helper()
	item, _, err := repo.Content().Upsert(context.Background(), &model.RawExtraction{
		ContentType:    types.ContentTypeDocument,
		SourceURL:      fmt.Sprintf("https://docs.example.com/d%d", n),
		SourcePlatform: types.PlatformConfluence,
		Title:          fmt.Sprintf("document %d", n),
		Body:           fmt.Sprintf("body of document %d", n),
	})
	if err != nil {
		t.Fatalf("failed to store item: %v", err)
	}
	return item
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("indexes items missing an entry", func(t *testing.T) {
		repo := memory.New()
		indexer := search.New(repo, nil, nil)
		w := worker.NewIndexRefreshWorker(repo, indexer, time.Hour)

		items := []*model.ContentItem{
			storeItem(t, repo, 1),
			storeItem(t, repo, 2),
		}

		if err := w.Refresh(ctx); err != nil {
			t.Fatalf("refresh failed: %v", err)
		}

		for _, item := range items {
			if _, err := repo.SearchIndex().Get(ctx, item.ID); err != nil {
				t.Errorf("expected entry for %s, got %v", item.ID, err)
			}
		}
	})

	t.Run("repairs stale entries only", func(t *testing.T) {
		repo := memory.New()
		indexer := search.New(repo, nil, nil)
		w := worker.NewIndexRefreshWorker(repo, indexer, time.Hour)

		item := storeItem(t, repo, 1)
		if _, err := indexer.Index(ctx, item); err != nil {
			t.Fatalf("failed to index: %v", err)
		}
		fresh, err := repo.SearchIndex().Get(ctx, item.ID)
		if err != nil {
			t.Fatalf("failed to get entry: %v", err)
		}

		// invalidate by writing a new version
		updated, _, err := repo.Content().Upsert(ctx, &model.RawExtraction{
			ContentType:    types.ContentTypeDocument,
			SourceURL:      item.SourceURL,
			SourcePlatform: types.PlatformConfluence,
			Title:          item.Title,
			Body:           "revised body",
		})
		if err != nil {
			t.Fatalf("failed to update item: %v", err)
		}

		if err := w.Refresh(ctx); err != nil {
			t.Fatalf("refresh failed: %v", err)
		}

		entry, err := repo.SearchIndex().Get(ctx, item.ID)
		if err != nil {
			t.Fatalf("failed to get entry after refresh: %v", err)
		}
		if entry.ContentHash != updated.ContentHash {
			t.Errorf("expected entry re-indexed for new hash, got %s", entry.ContentHash)
		}
		if entry.ContentHash == fresh.ContentHash {
			t.Error("expected stale entry replaced")
		}
	})

	t.Run("skips deleted items", func(t *testing.T) {
		repo := memory.New()
		indexer := search.New(repo, nil, nil)
		w := worker.NewIndexRefreshWorker(repo, indexer, time.Hour)

		item := storeItem(t, repo, 1)
		if err := repo.Content().SetStatus(ctx, item.ID, types.ContentStatusDeleted); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}

		if err := w.Refresh(ctx); err != nil {
			t.Fatalf("refresh failed: %v", err)
		}
		if _, err := repo.SearchIndex().Get(ctx, item.ID); err == nil {
			t.Error("expected no entry for deleted item")
		}
	})
}

func TestStartStop(t *testing.T) {
	repo := memory.New()
	indexer := search.New(repo, nil, nil)
	w := worker.NewIndexRefreshWorker(repo, indexer, 10*time.Millisecond)

	item := storeItem(t, repo, 1)

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if _, err := repo.SearchIndex().Get(ctx, item.ID); err == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("worker did not index the item in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop in time")
	}
}
