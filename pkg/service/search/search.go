package search

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/model/config"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/Rubix982/triage/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// ErrIndexDesync is returned when the stored index entry no longer matches the
// live content. The background worker re-indexes such items.
var ErrIndexDesync = goerr.New("search index out of sync")

// Indexer maintains the derived search index. Entries are not versioned: the
// latest content version replaces any previous entry.
type Indexer struct {
	repo interfaces.Repository
	llm  gollem.LLMClient // nil disables embeddings
	cfg  config.SearchConfig
}

// New creates an indexer. A nil llm client disables embedding generation; term
// search still works. cfg may be nil.
func New(repo interfaces.Repository, llm gollem.LLMClient, cfg *config.PipelineConfig) *Indexer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Indexer{
		repo: repo,
		llm:  llm,
		cfg:  cfg.Search,
	}
}

// Index builds and stores the index entry for an item. Token fields are
// deterministic for a given content version; only IndexedAt varies.
func (x *Indexer) Index(ctx context.Context, item *model.ContentItem) (*model.SearchIndexEntry, error) {
	if item.Status == types.ContentStatusDeleted {
		if err := x.repo.SearchIndex().Delete(ctx, item.ID); err != nil {
			logging.From(ctx).Warn("failed to drop index entry of deleted item",
				"content_id", item.ID, "error", err)
		}
		return nil, nil
	}

	entry := &model.SearchIndexEntry{
		ContentID:     item.ID,
		ContentType:   item.ContentType,
		TitleTokens:   Tokenize(item.Title),
		BodyTokens:    Tokenize(item.Body),
		ConceptTokens: x.concepts(item),
		AuthorTokens:  Tokenize(item.Author),
		FullText:      strings.ToLower(model.NormalizeBody(item.Body)),
		ContentHash:   item.ContentHash,
	}

	if x.llm != nil {
		embeddings, err := x.llm.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{item.Title + "\n" + item.Body})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to generate embedding", goerr.V("content_id", item.ID))
		}
		if len(embeddings) > 0 {
			entry.Embedding = toFloat32(embeddings[0])
		}
	}

	stored, err := x.repo.SearchIndex().Put(ctx, entry)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store index entry", goerr.V("content_id", item.ID))
	}
	return stored, nil
}

// concepts returns configured domain keywords present in the item, bounded by
// MaxConcepts
func (x *Indexer) concepts(item *model.ContentItem) []string {
	if len(x.cfg.Concepts) == 0 {
		return nil
	}
	haystack := strings.ToLower(item.Title + " " + item.Body)

	var found []string
	for _, concept := range x.cfg.Concepts {
		if x.cfg.MaxConcepts > 0 && len(found) >= x.cfg.MaxConcepts {
			break
		}
		if strings.Contains(haystack, strings.ToLower(concept)) {
			found = append(found, strings.ToLower(concept))
		}
	}
	sort.Strings(found)
	return found
}

// Verify reports whether the stored entry still matches the live item. A
// missing or stale entry surfaces ErrIndexDesync.
func (x *Indexer) Verify(ctx context.Context, item *model.ContentItem) error {
	entry, err := x.repo.SearchIndex().Get(ctx, item.ID)
	if err != nil {
		return goerr.Wrap(ErrIndexDesync, "index entry missing", goerr.V("content_id", item.ID))
	}
	if entry.ContentHash != item.ContentHash {
		return goerr.Wrap(ErrIndexDesync, "index entry stale",
			goerr.V("content_id", item.ID),
			goerr.V("indexed_hash", entry.ContentHash),
			goerr.V("live_hash", item.ContentHash))
	}
	return nil
}

// Filters narrows a search to structural attributes of the items
type Filters struct {
	ContentType types.ContentType
	Platform    types.Platform
	Author      string
}

// Result pairs a matched item with its ranking score
type Result struct {
	Item  *model.ContentItem
	Score float64
}

// Search ranks indexed items against a free-text query. Ranking combines term
// match density with embedding cosine similarity when both sides carry
// embeddings; ties break by most recent update.
func (x *Indexer) Search(ctx context.Context, query string, filters Filters, limit int) ([]Result, error) {
	terms := Tokenize(query)
	queryLower := strings.ToLower(strings.TrimSpace(query))
	if len(terms) == 0 && queryLower == "" {
		return nil, goerr.Wrap(model.ErrValidation, "empty search query")
	}

	var queryEmbedding []float32
	if x.llm != nil {
		embeddings, err := x.llm.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{query})
		if err != nil {
			logging.From(ctx).Warn("embedding generation failed, falling back to term search", "error", err)
		} else if len(embeddings) > 0 {
			queryEmbedding = toFloat32(embeddings[0])
		}
	}

	entries, err := x.repo.SearchIndex().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list index entries")
	}

	var results []Result
	for _, entry := range entries {
		score := termDensity(terms, entry)
		if score == 0 && queryLower != "" && strings.Contains(entry.FullText, queryLower) {
			// phrase hit that tokenization missed
			score = 0.5
		}
		if len(queryEmbedding) > 0 && len(entry.Embedding) > 0 {
			score += cosine(queryEmbedding, entry.Embedding)
		}
		if score == 0 {
			continue
		}

		item, err := x.repo.Content().Get(ctx, entry.ContentID)
		if err != nil {
			continue
		}
		if item.Status == types.ContentStatusDeleted {
			continue
		}
		if filters.ContentType != "" && item.ContentType != filters.ContentType {
			continue
		}
		if filters.Platform != "" && item.SourcePlatform != filters.Platform {
			continue
		}
		if filters.Author != "" && item.Author != filters.Author {
			continue
		}
		results = append(results, Result{Item: item, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Item.LastUpdatedAt.After(results[j].Item.LastUpdatedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Tokenize lowercases, splits on non-alphanumeric runs, drops single-character
// fragments and returns a sorted unique token set
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})

	seen := map[string]bool{}
	var tokens []string
	for _, f := range fields {
		if len(f) < 2 || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	sort.Strings(tokens)
	return tokens
}

// termDensity is the fraction of query terms present in the entry's token sets
func termDensity(terms []string, entry *model.SearchIndexEntry) float64 {
	if len(terms) == 0 {
		return 0
	}
	indexed := map[string]bool{}
	for _, set := range [][]string{entry.TitleTokens, entry.BodyTokens, entry.ConceptTokens, entry.AuthorTokens} {
		for _, token := range set {
			indexed[token] = true
		}
	}

	matched := 0
	for _, term := range terms {
		if indexed[term] {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
