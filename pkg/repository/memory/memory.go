package memory

import (
	"context"
	"time"

	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/model/auth"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	content      *contentRepository
	relationship *relationshipRepository
	person       *personRepository
	event        *eventRepository
	searchIndex  *searchIndexRepository
	tokens       *tokenStore
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		content:      newContentRepository(),
		relationship: newRelationshipRepository(),
		person:       newPersonRepository(),
		event:        newEventRepository(),
		searchIndex:  newSearchIndexRepository(),
		tokens:       newTokenStore(),
	}
}

func (m *Memory) Content() interfaces.ContentRepository {
	return m.content
}

func (m *Memory) Relationship() interfaces.RelationshipRepository {
	return m.relationship
}

func (m *Memory) Person() interfaces.PersonRepository {
	return m.person
}

func (m *Memory) Event() interfaces.EventRepository {
	return m.event
}

func (m *Memory) SearchIndex() interfaces.SearchIndexRepository {
	return m.searchIndex
}

// MergePersons folds loserID into survivorID under both table locks, so
// readers observe either the pre-merge or the fully merged state. Alias
// chains are followed first, which makes repeated merges no-ops.
func (m *Memory) MergePersons(ctx context.Context, survivorID, loserID model.PersonID) error {
	m.person.mu.Lock()
	defer m.person.mu.Unlock()
	m.event.mu.Lock()
	defer m.event.mu.Unlock()

	survivor := m.person.resolveAliasLocked(survivorID)
	loser := m.person.resolveAliasLocked(loserID)

	if survivor == loser {
		// Already merged (or self-merge): idempotent no-op
		return nil
	}

	survivorPerson, ok := m.person.persons[survivor]
	if !ok {
		return goerr.Wrap(ErrNotFound, "surviving person not found", goerr.V("person_id", survivor))
	}
	if _, ok := m.person.persons[loser]; !ok {
		return goerr.Wrap(ErrNotFound, "person to merge not found", goerr.V("person_id", loser))
	}

	now := time.Now().UTC()

	// Re-parent all platform identities
	for _, identity := range m.person.identities {
		if identity.PersonID == loser {
			identity.PersonID = survivor
			identity.LastSeenAt = now
		}
	}

	// Re-parent all collaboration events
	for _, event := range m.event.events {
		if event.ActorID == loser {
			event.ActorID = survivor
		}
		if event.SubjectID == loser {
			event.SubjectID = survivor
		}
	}

	// The losing ID becomes a permanent alias: never reused, always resolvable
	delete(m.person.persons, loser)
	m.person.aliases[loser] = survivor
	survivorPerson.UpdatedAt = now

	return nil
}

// Auth methods

func (m *Memory) PutToken(ctx context.Context, token *auth.Token) error {
	return m.tokens.Put(ctx, token)
}

func (m *Memory) GetToken(ctx context.Context, tokenID auth.TokenID) (*auth.Token, error) {
	return m.tokens.Get(ctx, tokenID)
}

func (m *Memory) GetActiveToken(ctx context.Context, platform types.Platform) (*auth.Token, error) {
	return m.tokens.GetActive(ctx, platform)
}

func (m *Memory) DeleteToken(ctx context.Context, tokenID auth.TokenID) error {
	return m.tokens.Delete(ctx, tokenID)
}

func (m *Memory) Close() error {
	return nil
}
