package scoring

import (
	"context"
	"sort"
	"time"

	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// event kinds weigh differently: writing something counts more than being
// name-dropped in it
var kindWeights = map[types.EventKind]float64{
	types.EventAuthored:   1.0,
	types.EventMentioned:  0.5,
	types.EventReferenced: 0.25,
}

// Aggregator folds the collaboration event log and the relationship graph
// into per-person derived scores. Everything here is recomputable; no state
// is kept outside the snapshot.
type Aggregator struct {
	repo interfaces.Repository
}

// New creates a collaboration aggregator
func New(repo interfaces.Repository) *Aggregator {
	return &Aggregator{repo: repo}
}

// Recompute rebuilds the score snapshot for one person. Expertise accumulates
// the concept tokens of content the person touched, weighted by event kind.
// Influence sums the strengths of inbound edges on content the person
// authored.
func (a *Aggregator) Recompute(ctx context.Context, personID model.PersonID) (*model.ScoreSnapshot, error) {
	resolved, err := a.repo.Person().ResolveAlias(ctx, personID)
	if err != nil {
		return nil, err
	}
	if _, err := a.repo.Person().Get(ctx, resolved); err != nil {
		return nil, err
	}

	events, err := a.repo.Event().ListByPerson(ctx, resolved)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list events", goerr.V("person_id", resolved))
	}

	snapshot := &model.ScoreSnapshot{
		PersonID:   resolved,
		Expertise:  map[string]float64{},
		EventCount: len(events),
		ComputedAt: time.Now().UTC(),
	}

	authored := map[model.ContentID]bool{}
	for _, event := range events {
		weight := kindWeights[event.Kind]
		if weight == 0 {
			continue
		}
		if event.Kind == types.EventAuthored && event.SubjectID == resolved {
			authored[event.ContentID] = true
		}

		entry, err := a.repo.SearchIndex().Get(ctx, event.ContentID)
		if err != nil {
			// unindexed content contributes no concepts
			continue
		}
		for _, concept := range entry.ConceptTokens {
			snapshot.Expertise[concept] += weight
		}
	}

	for contentID := range authored {
		edges, err := a.repo.Relationship().ListByTarget(ctx, contentID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list inbound edges", goerr.V("content_id", contentID))
		}
		for _, edge := range edges {
			snapshot.Influence += edge.Strength
		}
	}

	return snapshot, nil
}

// Collaborators ranks the people who share content activity with the given
// person. Strength counts weighted shared events; SharedItems counts distinct
// content items both touched.
func (a *Aggregator) Collaborators(ctx context.Context, personID model.PersonID, limit int) ([]*model.CollaboratorScore, error) {
	resolved, err := a.repo.Person().ResolveAlias(ctx, personID)
	if err != nil {
		return nil, err
	}

	own, err := a.repo.Event().ListByPerson(ctx, resolved)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list events", goerr.V("person_id", resolved))
	}
	if len(own) == 0 {
		return nil, nil
	}

	ownContent := map[model.ContentID]bool{}
	for _, event := range own {
		ownContent[event.ContentID] = true
	}

	type pairStats struct {
		strength float64
		items    map[model.ContentID]bool
	}
	pairs := map[model.PersonID]*pairStats{}

	for contentID := range ownContent {
		events, err := a.repo.Event().ListByContent(ctx, contentID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list content events", goerr.V("content_id", contentID))
		}
		for _, event := range events {
			for _, other := range []model.PersonID{event.ActorID, event.SubjectID} {
				if other == "" || other == resolved {
					continue
				}
				stats, ok := pairs[other]
				if !ok {
					stats = &pairStats{items: map[model.ContentID]bool{}}
					pairs[other] = stats
				}
				stats.strength += kindWeights[event.Kind]
				stats.items[contentID] = true
			}
		}
	}

	var result []*model.CollaboratorScore
	for otherID, stats := range pairs {
		person, err := a.repo.Person().Get(ctx, otherID)
		if err != nil {
			// merged-away or pruned person; alias resolution covers renames
			if aliased, aliasErr := a.repo.Person().ResolveAlias(ctx, otherID); aliasErr == nil && aliased != otherID {
				person, err = a.repo.Person().Get(ctx, aliased)
				otherID = aliased
			}
			if err != nil {
				continue
			}
		}
		result = append(result, &model.CollaboratorScore{
			PersonID:    otherID,
			DisplayName: person.DisplayName,
			Strength:    stats.strength,
			SharedItems: len(stats.items),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Strength != result[j].Strength {
			return result[i].Strength > result[j].Strength
		}
		return result[i].PersonID < result[j].PersonID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
