package usecase

import (
	"context"
	"sort"

	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// NetworkStats is the collaboration network overview
type NetworkStats struct {
	ContentItems   int            `json:"content_items"`
	ContentByType  map[string]int `json:"content_by_type"`
	Persons        int            `json:"persons"`
	Identities     int            `json:"identities"`
	Edges          int            `json:"edges"`
	PendingLinks   int            `json:"pending_links"`
	Events         int            `json:"events"`
	TopConcepts    []ConceptCount `json:"top_concepts,omitempty"`
	MostActive     []PersonCount  `json:"most_active,omitempty"`
	IndexedEntries int            `json:"indexed_entries"`
}

type ConceptCount struct {
	Concept string `json:"concept"`
	Count   int    `json:"count"`
}

type PersonCount struct {
	PersonID    string `json:"person_id"`
	DisplayName string `json:"display_name"`
	Events      int    `json:"events"`
}

// statsTopN bounds the concept and person rankings in the overview
const statsTopN = 10

// StatsUseCase aggregates the network overview from the stored tables
type StatsUseCase struct {
	repo interfaces.Repository
}

func NewStatsUseCase(repo interfaces.Repository) *StatsUseCase {
	return &StatsUseCase{repo: repo}
}

func (uc *StatsUseCase) Overview(ctx context.Context) (*NetworkStats, error) {
	stats := &NetworkStats{
		ContentByType: map[string]int{},
	}

	items, err := uc.repo.Content().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list content")
	}
	for _, item := range items {
		if item.Status == types.ContentStatusDeleted {
			continue
		}
		stats.ContentItems++
		stats.ContentByType[item.ContentType.String()]++
	}

	persons, err := uc.repo.Person().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list persons")
	}
	stats.Persons = len(persons)

	identities, err := uc.repo.Person().ListAllIdentities(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list identities")
	}
	stats.Identities = len(identities)

	edges, err := uc.repo.Relationship().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list edges")
	}
	stats.Edges = len(edges)

	pending, err := uc.repo.Relationship().ListPending(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list pending links")
	}
	stats.PendingLinks = len(pending)

	events, err := uc.repo.Event().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list events")
	}
	stats.Events = len(events)

	eventCounts := map[string]int{}
	for _, event := range events {
		if event.ActorID != "" {
			eventCounts[string(event.ActorID)]++
		}
		eventCounts[string(event.SubjectID)]++
	}
	names := map[string]string{}
	for _, p := range persons {
		names[string(p.ID)] = p.DisplayName
	}
	for id, count := range eventCounts {
		name, live := names[id]
		if !live {
			continue
		}
		stats.MostActive = append(stats.MostActive, PersonCount{
			PersonID:    id,
			DisplayName: name,
			Events:      count,
		})
	}
	sort.Slice(stats.MostActive, func(i, j int) bool {
		if stats.MostActive[i].Events != stats.MostActive[j].Events {
			return stats.MostActive[i].Events > stats.MostActive[j].Events
		}
		return stats.MostActive[i].PersonID < stats.MostActive[j].PersonID
	})
	if len(stats.MostActive) > statsTopN {
		stats.MostActive = stats.MostActive[:statsTopN]
	}

	entries, err := uc.repo.SearchIndex().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list index entries")
	}
	stats.IndexedEntries = len(entries)

	conceptCounts := map[string]int{}
	for _, entry := range entries {
		for _, concept := range entry.ConceptTokens {
			conceptCounts[concept]++
		}
	}
	for concept, count := range conceptCounts {
		stats.TopConcepts = append(stats.TopConcepts, ConceptCount{Concept: concept, Count: count})
	}
	sort.Slice(stats.TopConcepts, func(i, j int) bool {
		if stats.TopConcepts[i].Count != stats.TopConcepts[j].Count {
			return stats.TopConcepts[i].Count > stats.TopConcepts[j].Count
		}
		return stats.TopConcepts[i].Concept < stats.TopConcepts[j].Concept
	})
	if len(stats.TopConcepts) > statsTopN {
		stats.TopConcepts = stats.TopConcepts[:statsTopN]
	}

	return stats, nil
}
