package graph

import (
	"context"

	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/model/config"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/Rubix982/triage/pkg/service/extract"
	"github.com/Rubix982/triage/pkg/service/identity"
	"github.com/Rubix982/triage/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Builder turns extraction candidates into relationship edges and
// collaboration events
type Builder struct {
	repo     interfaces.Repository
	resolver *identity.Resolver
	cfg      config.GraphConfig
}

// New creates a graph builder; cfg may be nil
func New(repo interfaces.Repository, resolver *identity.Resolver, cfg *config.PipelineConfig) *Builder {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Builder{
		repo:     repo,
		resolver: resolver,
		cfg:      cfg.Graph,
	}
}

// Apply records the extraction results for one content item. Resolved links
// become links-to edges; unresolved links are parked as pending and retried
// when their target URL is ingested. Mentions are resolved to persons and
// appended as collaboration events.
func (b *Builder) Apply(ctx context.Context, source *model.ContentItem, links []extract.CandidateLink, mentions []extract.CandidateMention) ([]*model.Relationship, []*model.CollaborationEvent, error) {
	logger := logging.From(ctx)

	var edges []*model.Relationship
	for _, link := range links {
		if link.TargetID == "" {
			if err := b.repo.Relationship().SavePending(ctx, &model.PendingLink{
				SourceID: source.ID,
				URL:      link.URL,
				Platform: link.Platform,
				Context:  link.Context,
				Explicit: link.Explicit,
			}); err != nil {
				return nil, nil, goerr.Wrap(err, "failed to park pending link", goerr.V("url", link.URL))
			}
			continue
		}

		edge, err := b.linkEdge(ctx, source.ID, link)
		if err != nil {
			return nil, nil, err
		}
		edges = append(edges, edge)
	}

	var events []*model.CollaborationEvent
	var actorID model.PersonID
	if source.Author != "" {
		author, err := b.resolver.Resolve(ctx, source.SourcePlatform, source.Author, "")
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to resolve author", goerr.V("author", source.Author))
		}
		actorID = author.ID
	}

	for _, mention := range mentions {
		subject, err := b.resolver.Resolve(ctx, mention.Platform, mention.LocalID, mention.Display)
		if err != nil {
			logger.Warn("skipping unresolvable mention",
				"local_id", mention.LocalID, "error", err)
			continue
		}
		event, err := b.repo.Event().Append(ctx, &model.CollaborationEvent{
			ActorID:   actorID,
			SubjectID: subject.ID,
			ContentID: source.ID,
			Kind:      types.EventMentioned,
		})
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to append mention event")
		}
		events = append(events, event)
	}

	return edges, events, nil
}

func (b *Builder) linkEdge(ctx context.Context, sourceID model.ContentID, link extract.CandidateLink) (*model.Relationship, error) {
	strength := b.cfg.ReferenceStrength
	if link.Explicit {
		strength = b.cfg.LinkStrength
	}
	edge, err := b.repo.Relationship().Upsert(ctx, &model.Relationship{
		SourceID: sourceID,
		TargetID: link.TargetID,
		Type:     types.RelationLinksTo,
		Strength: strength,
		Context:  link.Context,
	}, b.cfg.StrengthenIncrement)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upsert edge",
			goerr.V("source_id", sourceID), goerr.V("target_id", link.TargetID))
	}
	return edge, nil
}

// ResolvePending finds links that were waiting for the given item's URL and
// converts them into edges. Called after every successful ingestion.
func (b *Builder) ResolvePending(ctx context.Context, item *model.ContentItem) ([]*model.Relationship, error) {
	pending, err := b.repo.Relationship().ListPendingByURL(ctx, item.SourceURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list pending links", goerr.V("url", item.SourceURL))
	}

	var edges []*model.Relationship
	for _, link := range pending {
		edge, err := b.linkEdge(ctx, link.SourceID, extract.CandidateLink{
			URL:      link.URL,
			Platform: link.Platform,
			TargetID: item.ID,
			Context:  link.Context,
			Explicit: link.Explicit,
		})
		if err != nil {
			return nil, err
		}
		if err := b.repo.Relationship().DeletePending(ctx, link.ID); err != nil {
			return nil, goerr.Wrap(err, "failed to clear pending link", goerr.V("id", link.ID))
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

// Related returns the outgoing edges of an item, skipping edges whose target
// has been soft-deleted. Dangling references are traversal gaps, not errors.
func (b *Builder) Related(ctx context.Context, contentID model.ContentID, minStrength float64, limit int) ([]*model.Relationship, error) {
	fetch := limit
	if fetch > 0 {
		// over-fetch to survive tombstone skips
		fetch *= 2
	}
	edges, err := b.repo.Relationship().Related(ctx, contentID, minStrength, fetch)
	if err != nil {
		return nil, err
	}

	var result []*model.Relationship
	for _, edge := range edges {
		target, err := b.repo.Content().Get(ctx, edge.TargetID)
		if err != nil || target.Status == types.ContentStatusDeleted {
			continue
		}
		result = append(result, edge)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}
