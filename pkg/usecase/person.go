package usecase

import (
	"context"
	"errors"

	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/repository/firestore"
	"github.com/Rubix982/triage/pkg/repository/memory"
	"github.com/Rubix982/triage/pkg/service/identity"
	"github.com/Rubix982/triage/pkg/service/scoring"
	"github.com/m-mizutani/goerr/v2"
)

// PersonProfile bundles a person with their identity bindings and derived scores
type PersonProfile struct {
	Person     *model.Person             `json:"person"`
	Identities []*model.PlatformIdentity `json:"identities"`
	Scores     *model.ScoreSnapshot      `json:"scores"`
}

// PersonUseCase serves person profiles, merges and collaboration rankings
type PersonUseCase struct {
	repo       interfaces.Repository
	resolver   *identity.Resolver
	aggregator *scoring.Aggregator
}

func NewPersonUseCase(repo interfaces.Repository, resolver *identity.Resolver, aggregator *scoring.Aggregator) *PersonUseCase {
	return &PersonUseCase{repo: repo, resolver: resolver, aggregator: aggregator}
}

// Profile returns the person with identities and a freshly computed score
// snapshot. A merged-away ID resolves to the surviving person.
func (uc *PersonUseCase) Profile(ctx context.Context, id model.PersonID) (*PersonProfile, error) {
	resolved, err := uc.repo.Person().ResolveAlias(ctx, id)
	if err != nil {
		return nil, err
	}

	person, err := uc.repo.Person().Get(ctx, resolved)
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound) {
			return nil, goerr.Wrap(ErrPersonNotFound, "unknown person", goerr.V("person_id", id))
		}
		return nil, err
	}

	identities, err := uc.repo.Person().ListIdentities(ctx, resolved)
	if err != nil {
		return nil, err
	}

	scores, err := uc.aggregator.Recompute(ctx, resolved)
	if err != nil {
		return nil, err
	}

	return &PersonProfile{
		Person:     person,
		Identities: identities,
		Scores:     scores,
	}, nil
}

func (uc *PersonUseCase) List(ctx context.Context) ([]*model.Person, error) {
	return uc.repo.Person().List(ctx)
}

// Merge folds loserID into survivorID and returns the surviving profile
func (uc *PersonUseCase) Merge(ctx context.Context, survivorID, loserID model.PersonID) (*PersonProfile, error) {
	merged, err := uc.resolver.Merge(ctx, survivorID, loserID)
	if err != nil {
		return nil, err
	}
	return uc.Profile(ctx, merged.ID)
}

// Recommendations ranks the person's closest collaborators
func (uc *PersonUseCase) Recommendations(ctx context.Context, id model.PersonID, limit int) ([]*model.CollaboratorScore, error) {
	if _, err := uc.Profile(ctx, id); err != nil {
		return nil, err
	}
	return uc.aggregator.Collaborators(ctx, id, limit)
}
