package usecase

import (
	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/Rubix982/triage/pkg/domain/model/config"
	"github.com/Rubix982/triage/pkg/service/extract"
	"github.com/Rubix982/triage/pkg/service/graph"
	"github.com/Rubix982/triage/pkg/service/identity"
	"github.com/Rubix982/triage/pkg/service/scoring"
	"github.com/Rubix982/triage/pkg/service/search"
	"github.com/m-mizutani/gollem"
)

type UseCases struct {
	repo           interfaces.Repository
	pipelineConfig *config.PipelineConfig
	llmClient      gollem.LLMClient
	requireToken   bool

	Ingest  *IngestUseCase
	Content *ContentUseCase
	Search  *SearchUseCase
	Person  *PersonUseCase
	Stats   *StatsUseCase
}

type Option func(*UseCases)

func WithPipelineConfig(cfg *config.PipelineConfig) Option {
	return func(uc *UseCases) {
		uc.pipelineConfig = cfg
	}
}

// WithLLMClient enables embedding generation for the search index. Without it
// search falls back to term matching only.
func WithLLMClient(llmClient gollem.LLMClient) Option {
	return func(uc *UseCases) {
		uc.llmClient = llmClient
	}
}

// WithTokenGate makes ingestion require an active access token for the
// record's source platform
func WithTokenGate() Option {
	return func(uc *UseCases) {
		uc.requireToken = true
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.pipelineConfig == nil {
		uc.pipelineConfig = config.Default()
	}

	resolver := identity.New(repo, uc.pipelineConfig)
	extractor := extract.New(uc.pipelineConfig)
	builder := graph.New(repo, resolver, uc.pipelineConfig)
	indexer := search.New(repo, uc.llmClient, uc.pipelineConfig)
	aggregator := scoring.New(repo)

	uc.Ingest = NewIngestUseCase(repo, extractor, resolver, builder, indexer, aggregator, uc.requireToken)
	uc.Content = NewContentUseCase(repo, builder)
	uc.Search = NewSearchUseCase(repo, indexer)
	uc.Person = NewPersonUseCase(repo, resolver, aggregator)
	uc.Stats = NewStatsUseCase(repo)

	return uc
}

// Indexer exposes the shared search indexer for the background worker
func (uc *UseCases) Indexer() *search.Indexer {
	return uc.Ingest.indexer
}

// Repository exposes the backing repository
func (uc *UseCases) Repository() interfaces.Repository {
	return uc.repo
}
