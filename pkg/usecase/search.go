package usecase

import (
	"context"

	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/Rubix982/triage/pkg/service/search"
)

// SearchUseCase fronts the search indexer for the API surface
type SearchUseCase struct {
	repo    interfaces.Repository
	indexer *search.Indexer
}

func NewSearchUseCase(repo interfaces.Repository, indexer *search.Indexer) *SearchUseCase {
	return &SearchUseCase{repo: repo, indexer: indexer}
}

func (uc *SearchUseCase) Search(ctx context.Context, query string, filters search.Filters, limit int) ([]search.Result, error) {
	return uc.indexer.Search(ctx, query, filters, limit)
}
