package handler

import (
	"errors"
	"net/http"

	"remod3/internal/domain"
	"remod3/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrCycle):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &conflictErr):
		extras := map[string]interface{}{}
		if conflictErr.ResourceID != "" {
			extras["existing_id"] = conflictErr.ResourceID
		}
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), extras)
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
