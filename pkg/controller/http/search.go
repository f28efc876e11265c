package http

import (
	"net/http"

	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/Rubix982/triage/pkg/service/search"
)

type searchResultResponse struct {
	Content contentResponse `json:"content"`
	Score   float64         `json:"score"`
}

func (s *Server) getSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filters := search.Filters{
		ContentType: types.ContentType(q.Get("type")),
		Platform:    types.Platform(q.Get("platform")),
		Author:      q.Get("author"),
	}
	limit := queryLimit(r, 20)

	results, err := s.uc.Search.Search(ctx, q.Get("q"), filters, limit)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	resp := make([]searchResultResponse, len(results))
	for i, result := range results {
		resp[i] = searchResultResponse{
			Content: toContentResponse(result.Item),
			Score:   result.Score,
		}
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"results": resp})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := s.uc.Stats.Overview(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, stats)
}
