package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/repository/firestore"
	"github.com/Rubix982/triage/pkg/repository/memory"
	"github.com/Rubix982/triage/pkg/service/identity"
	"github.com/Rubix982/triage/pkg/usecase"
	"github.com/Rubix982/triage/pkg/utils/errutil"
	"github.com/Rubix982/triage/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}

// statusOf maps domain errors onto HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrContentNotFound),
		errors.Is(err, usecase.ErrPersonNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, identity.ErrMergeIntegrity),
		errors.Is(err, memory.ErrConflict),
		errors.Is(err, firestore.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	errutil.HandleHTTP(ctx, w, err, statusOf(err))
}
