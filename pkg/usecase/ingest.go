package usecase

import (
	"context"
	"errors"

	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/Rubix982/triage/pkg/repository/firestore"
	"github.com/Rubix982/triage/pkg/repository/memory"
	"github.com/Rubix982/triage/pkg/service/extract"
	"github.com/Rubix982/triage/pkg/service/graph"
	"github.com/Rubix982/triage/pkg/service/identity"
	"github.com/Rubix982/triage/pkg/service/scoring"
	"github.com/Rubix982/triage/pkg/service/search"
	"github.com/Rubix982/triage/pkg/utils/async"
	"github.com/Rubix982/triage/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// IngestResult summarizes one pipeline run for a raw extraction record
type IngestResult struct {
	ContentID     model.ContentID `json:"content_id"`
	Created       bool            `json:"created"`
	NewVersion    bool            `json:"new_version"`
	VersionCount  int             `json:"version_count"`
	LinksResolved int             `json:"links_resolved"`
	LinksPending  int             `json:"links_pending"`
	Mentions      int             `json:"mentions"`
	BackRefs      int             `json:"back_refs"`
}

// IngestUseCase runs the full pipeline for one raw extraction: store,
// extract, resolve, wire the graph, then index in the background
type IngestUseCase struct {
	repo         interfaces.Repository
	extractor    *extract.Extractor
	resolver     *identity.Resolver
	builder      *graph.Builder
	indexer      *search.Indexer
	aggregator   *scoring.Aggregator
	requireToken bool
}

func NewIngestUseCase(repo interfaces.Repository, extractor *extract.Extractor, resolver *identity.Resolver, builder *graph.Builder, indexer *search.Indexer, aggregator *scoring.Aggregator, requireToken bool) *IngestUseCase {
	return &IngestUseCase{
		repo:         repo,
		extractor:    extractor,
		resolver:     resolver,
		builder:      builder,
		indexer:      indexer,
		aggregator:   aggregator,
		requireToken: requireToken,
	}
}

// Ingest validates and stores the record, then wires the item into the link
// graph. Indexing runs asynchronously so its failure modes never block
// ingestion; the index refresh worker repairs any gap.
func (uc *IngestUseCase) Ingest(ctx context.Context, raw *model.RawExtraction) (*IngestResult, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	if uc.requireToken {
		platform := raw.ToContentItem().SourcePlatform
		if _, err := uc.repo.GetActiveToken(ctx, platform); err != nil {
			if errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound) {
				return nil, goerr.Wrap(ErrAccessDenied, "ingestion rejected",
					goerr.V("platform", platform))
			}
			return nil, err
		}
	}

	item, newVersion, err := uc.repo.Content().Upsert(ctx, raw)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{
		ContentID: item.ID,
		// derived from the upsert itself so concurrent first ingests of one
		// URL report created exactly once
		Created:      newVersion && item.VersionCount == 1,
		NewVersion:   newVersion,
		VersionCount: item.VersionCount,
	}

	links, mentions, err := uc.extractor.Extract(ctx, item, uc.lookupURL)
	if err != nil {
		return nil, goerr.Wrap(err, "extraction failed", goerr.V("content_id", item.ID))
	}

	edges, events, err := uc.builder.Apply(ctx, item, links, mentions)
	if err != nil {
		return nil, goerr.Wrap(err, "graph update failed", goerr.V("content_id", item.ID))
	}
	result.LinksResolved = len(edges)
	result.LinksPending = len(links) - len(edges)
	result.Mentions = len(events)

	// links that were waiting for this URL can resolve now
	backRefs, err := uc.builder.ResolvePending(ctx, item)
	if err != nil {
		return nil, goerr.Wrap(err, "pending link resolution failed", goerr.V("content_id", item.ID))
	}
	result.BackRefs = len(backRefs)

	if item.Author != "" && result.Created {
		author, err := uc.resolver.Resolve(ctx, item.SourcePlatform, item.Author, "")
		if err != nil {
			return nil, goerr.Wrap(err, "author resolution failed", goerr.V("author", item.Author))
		}
		if _, err := uc.repo.Event().Append(ctx, &model.CollaborationEvent{
			SubjectID: author.ID,
			ContentID: item.ID,
			Kind:      types.EventAuthored,
		}); err != nil {
			return nil, goerr.Wrap(err, "failed to record authorship")
		}
	}

	async.Dispatch(ctx, func(ctx context.Context) error {
		if _, err := uc.indexer.Index(ctx, item); err != nil {
			logging.From(ctx).Warn("indexing failed, worker will retry",
				"content_id", item.ID, "error", err)
		}
		return nil
	})

	return result, nil
}

// lookupURL answers the extractor's snapshot queries from the store
func (uc *IngestUseCase) lookupURL(ctx context.Context, url string) (model.ContentID, bool) {
	item, err := uc.repo.Content().GetByURL(ctx, url)
	if err != nil {
		return "", false
	}
	return item.ID, true
}
