package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
)

type personResponse struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toPersonResponse(p *model.Person) personResponse {
	return personResponse{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type identityResponse struct {
	Platform   string    `json:"platform"`
	LocalID    string    `json:"local_id"`
	Confidence float64   `json:"confidence"`
	FirstSeen  time.Time `json:"first_seen_at"`
	LastSeen   time.Time `json:"last_seen_at"`
}

type scoresResponse struct {
	Expertise  map[string]float64 `json:"expertise"`
	Influence  float64            `json:"influence"`
	EventCount int                `json:"event_count"`
	ComputedAt time.Time          `json:"computed_at"`
}

type profileResponse struct {
	Person     personResponse     `json:"person"`
	Identities []identityResponse `json:"identities"`
	Scores     scoresResponse     `json:"scores"`
}

func toProfileResponse(profile *usecase.PersonProfile) profileResponse {
	resp := profileResponse{
		Person:     toPersonResponse(profile.Person),
		Identities: make([]identityResponse, len(profile.Identities)),
	}
	for i, identity := range profile.Identities {
		resp.Identities[i] = identityResponse{
			Platform:   identity.Platform.String(),
			LocalID:    identity.LocalID,
			Confidence: identity.Confidence,
			FirstSeen:  identity.FirstSeenAt,
			LastSeen:   identity.LastSeenAt,
		}
	}
	if profile.Scores != nil {
		resp.Scores = scoresResponse{
			Expertise:  profile.Scores.Expertise,
			Influence:  profile.Scores.Influence,
			EventCount: profile.Scores.EventCount,
			ComputedAt: profile.Scores.ComputedAt,
		}
	}
	return resp
}

func (s *Server) listPeople(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	persons, err := s.uc.Person.List(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	resp := make([]personResponse, len(persons))
	for i, p := range persons {
		resp[i] = toPersonResponse(p)
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"people": resp})
}

func (s *Server) getPerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := model.PersonID(chi.URLParam(r, "personID"))

	profile, err := s.uc.Person.Profile(ctx, id)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, toProfileResponse(profile))
}

func (s *Server) postPersonMerge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	survivorID := model.PersonID(chi.URLParam(r, "personID"))

	var req struct {
		LoserID string `json:"loser_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(ctx, w, goerr.Wrap(model.ErrValidation, "failed to decode merge request"))
		return
	}
	if req.LoserID == "" {
		handleError(ctx, w, goerr.Wrap(model.ErrValidation, "loser_id is required"))
		return
	}

	profile, err := s.uc.Person.Merge(ctx, survivorID, model.PersonID(req.LoserID))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, toProfileResponse(profile))
}

func (s *Server) getPersonRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := model.PersonID(chi.URLParam(r, "personID"))
	limit := queryLimit(r, 10)

	scores, err := s.uc.Person.Recommendations(ctx, id, limit)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	type collaboratorResponse struct {
		PersonID    string  `json:"person_id"`
		DisplayName string  `json:"display_name"`
		Strength    float64 `json:"strength"`
		SharedItems int     `json:"shared_items"`
	}
	resp := make([]collaboratorResponse, len(scores))
	for i, score := range scores {
		resp[i] = collaboratorResponse{
			PersonID:    string(score.PersonID),
			DisplayName: score.DisplayName,
			Strength:    score.Strength,
			SharedItems: score.SharedItems,
		}
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"collaborators": resp})
}
