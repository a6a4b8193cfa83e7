package httpapi

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-facet-catalog/catalog"
	"github.com/goliatone/go-facet-catalog/filter"
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorBody struct {
	Error APIError `json:"error"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("failed to write response")
	}
}

// respondError maps err to a status code. Validation errors carry their per-field
// messages.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *filter.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, r, http.StatusBadRequest, errorBody{APIError{
			Code:    "invalid_filter",
			Message: "one or more filter parameters are invalid",
			Details: verr.Errors,
		}})
	case errors.Is(err, catalog.ErrNotFound):
		respondJSON(w, r, http.StatusNotFound, errorBody{APIError{Code: "not_found", Message: "not found"}})
	case errors.Is(err, catalog.ErrStoreUnavailable):
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("store unavailable")
		respondJSON(w, r, http.StatusServiceUnavailable, errorBody{APIError{Code: "store_unavailable", Message: "catalog is temporarily unavailable"}})
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		respondJSON(w, r, http.StatusInternalServerError, errorBody{APIError{Code: "internal", Message: "internal error"}})
	}
}

func badRequest(w http.ResponseWriter, r *http.Request, code, message string) {
	respondJSON(w, r, http.StatusBadRequest, errorBody{APIError{Code: code, Message: message}})
}
