package usecase

import (
	"context"
	"errors"

	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/Rubix982/triage/pkg/repository/firestore"
	"github.com/Rubix982/triage/pkg/repository/memory"
	"github.com/Rubix982/triage/pkg/service/graph"
	"github.com/m-mizutani/goerr/v2"
)

// ContentUseCase serves reads over stored content and its graph neighborhood
type ContentUseCase struct {
	repo    interfaces.Repository
	builder *graph.Builder
}

func NewContentUseCase(repo interfaces.Repository, builder *graph.Builder) *ContentUseCase {
	return &ContentUseCase{repo: repo, builder: builder}
}

func (uc *ContentUseCase) Get(ctx context.Context, id model.ContentID) (*model.ContentItem, error) {
	item, err := uc.repo.Content().Get(ctx, id)
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound) {
			return nil, goerr.Wrap(ErrContentNotFound, "unknown content", goerr.V("content_id", id))
		}
		return nil, err
	}
	return item, nil
}

func (uc *ContentUseCase) Versions(ctx context.Context, id model.ContentID) ([]*model.ContentVersion, error) {
	if _, err := uc.Get(ctx, id); err != nil {
		return nil, err
	}
	return uc.repo.Content().ListVersions(ctx, id)
}

// Related returns live outgoing edges of an item, strongest first
func (uc *ContentUseCase) Related(ctx context.Context, id model.ContentID, minStrength float64, limit int) ([]*model.Relationship, error) {
	if _, err := uc.Get(ctx, id); err != nil {
		return nil, err
	}
	return uc.builder.Related(ctx, id, minStrength, limit)
}

// Delete soft-deletes an item; version history stays readable
func (uc *ContentUseCase) Delete(ctx context.Context, id model.ContentID) error {
	if _, err := uc.Get(ctx, id); err != nil {
		return err
	}
	return uc.repo.Content().SetStatus(ctx, id, types.ContentStatusDeleted)
}
