package worker

import (
	"context"
	"time"

	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/Rubix982/triage/pkg/service/search"
	"github.com/Rubix982/triage/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// IndexRefreshWorker re-indexes content whose search entry is missing or
// stale, which covers both indexing failures during ingestion and entries
// invalidated by content changes.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - For future horizontal scaling, implement distributed locking or leader election
type IndexRefreshWorker struct {
	repo     interfaces.Repository
	indexer  *search.Indexer
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewIndexRefreshWorker creates a new worker for repairing the search index
func NewIndexRefreshWorker(repo interfaces.Repository, indexer *search.Indexer, interval time.Duration) *IndexRefreshWorker {
	return &IndexRefreshWorker{
		repo:     repo,
		indexer:  indexer,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background refresh loop. Does not block server startup.
func (w *IndexRefreshWorker) Start(ctx context.Context) error {
	logging.Default().Info("index refresh worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *IndexRefreshWorker) Stop() {
	logging.Default().Info("index refresh worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("index refresh worker stopped")
}

func (w *IndexRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.Refresh(ctx); err != nil {
		logging.Default().Error("initial index refresh failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil {
				logging.Default().Error("index refresh failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("index refresh worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("index refresh worker context cancelled")
			return
		}
	}
}

// Refresh performs a single repair cycle. Per-item failures are logged and
// skipped so one bad item never starves the rest of the queue.
func (w *IndexRefreshWorker) Refresh(ctx context.Context) error {
	startTime := time.Now()

	items, err := w.repo.Content().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list content")
	}

	var repaired, skipped, failed int
	for _, item := range items {
		if item.Status == types.ContentStatusDeleted {
			continue
		}
		if err := w.indexer.Verify(ctx, item); err == nil {
			skipped++
			continue
		}

		if _, err := w.indexer.Index(ctx, item); err != nil {
			failed++
			logging.Default().Warn("failed to re-index item",
				"content_id", item.ID, "error", err.Error())
			continue
		}
		repaired++
	}

	logging.Default().Info("index refresh cycle finished",
		"repaired", repaired,
		"fresh", skipped,
		"failed", failed,
		"duration", time.Since(startTime).String())
	return nil
}
