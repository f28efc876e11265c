package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
)

type contentResponse struct {
	ID             string            `json:"id"`
	ContentType    string            `json:"content_type"`
	SourceURL      string            `json:"source_url"`
	SourcePlatform string            `json:"source_platform"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	ContentHash    string            `json:"content_hash"`
	Author         string            `json:"author,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	ModifiedAt     time.Time         `json:"modified_at"`
	LastUpdatedAt  time.Time         `json:"last_updated_at"`
	Status         string            `json:"status"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	VersionCount   int               `json:"version_count"`
}

func toContentResponse(item *model.ContentItem) contentResponse {
	return contentResponse{
		ID:             string(item.ID),
		ContentType:    item.ContentType.String(),
		SourceURL:      item.SourceURL,
		SourcePlatform: item.SourcePlatform.String(),
		Title:          item.Title,
		Body:           item.Body,
		ContentHash:    item.ContentHash,
		Author:         item.Author,
		CreatedAt:      item.CreatedAt,
		ModifiedAt:     item.ModifiedAt,
		LastUpdatedAt:  item.LastUpdatedAt,
		Status:         string(item.Status),
		Metadata:       item.Metadata,
		VersionCount:   item.VersionCount,
	}
}

type versionResponse struct {
	VersionNumber int       `json:"version_number"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	ContentHash   string    `json:"content_hash"`
	Author        string    `json:"author,omitempty"`
	ModifiedAt    time.Time `json:"modified_at"`
	CreatedAt     time.Time `json:"created_at"`
}

type edgeResponse struct {
	SourceID string  `json:"source_id"`
	TargetID string  `json:"target_id"`
	Type     string  `json:"type"`
	Strength float64 `json:"strength"`
	Context  string  `json:"context,omitempty"`
}

func (s *Server) postContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var raw model.RawExtraction
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		handleError(ctx, w, goerr.Wrap(model.ErrValidation, "failed to decode request body"))
		return
	}

	result, err := s.uc.Ingest.Ingest(ctx, &raw)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	respondJSON(ctx, w, status, result)
}

func (s *Server) getContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := model.ContentID(chi.URLParam(r, "contentID"))

	item, err := s.uc.Content.Get(ctx, id)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, toContentResponse(item))
}

func (s *Server) deleteContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := model.ContentID(chi.URLParam(r, "contentID"))

	if err := s.uc.Content.Delete(ctx, id); err != nil {
		handleError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getContentVersions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := model.ContentID(chi.URLParam(r, "contentID"))

	versions, err := s.uc.Content.Versions(ctx, id)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	resp := make([]versionResponse, len(versions))
	for i, v := range versions {
		resp[i] = versionResponse{
			VersionNumber: v.VersionNumber,
			Title:         v.Title,
			Body:          v.Body,
			ContentHash:   v.ContentHash,
			Author:        v.Author,
			ModifiedAt:    v.ModifiedAt,
			CreatedAt:     v.CreatedAt,
		}
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"versions": resp})
}

func (s *Server) getContentRelated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := model.ContentID(chi.URLParam(r, "contentID"))

	minStrength := 0.0
	if v := r.URL.Query().Get("min_strength"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			handleError(ctx, w, goerr.Wrap(model.ErrValidation, "invalid min_strength", goerr.V("value", v)))
			return
		}
		minStrength = parsed
	}
	limit := queryLimit(r, 20)

	edges, err := s.uc.Content.Related(ctx, id, minStrength, limit)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	resp := make([]edgeResponse, len(edges))
	for i, edge := range edges {
		resp[i] = edgeResponse{
			SourceID: string(edge.SourceID),
			TargetID: string(edge.TargetID),
			Type:     string(edge.Type),
			Strength: edge.Strength,
			Context:  edge.Context,
		}
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"related": resp})
}

func queryLimit(r *http.Request, fallback int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return fallback
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
