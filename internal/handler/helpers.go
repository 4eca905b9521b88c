package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"atelier/internal/domain"
	"atelier/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		upstreamErr   *domain.UpstreamError
	)

	switch {
	case errors.As(err, &validationErr) && len(validationErr.Fields) > 0:
		httputil.RespondErrorWithExtras(w, http.StatusBadRequest, validationErr.Error(), map[string]interface{}{
			"errors": validationErr.Fields,
		})
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &upstreamErr):
		// The wrapped cause stays in the server logs; clients get the summary
		httputil.RespondError(w, http.StatusBadGateway, upstreamErr.Message)
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// pathID extracts a UUID path parameter. A malformed id cannot name any
// resource, so it answers the same 404 a missing resource would.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if uuid.Validate(id) != nil {
		httputil.RespondError(w, http.StatusNotFound, "resource not found")
		return "", false
	}
	return id, true
}
