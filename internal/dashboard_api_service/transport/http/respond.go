package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/voxdesk/golang_services/internal/settings_service/domain"
)

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Default().Error("Failed to write JSON response", "error", err)
		}
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithDomainError maps domain errors onto the API error contract.
// Validation failures name the offending field's reason; a foreign-tenant
// resource and a missing one produce the same 404. Everything else is an
// opaque 500 so storage details never leak.
func respondWithDomainError(w http.ResponseWriter, err error, notFoundMessage string) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondWithError(w, http.StatusBadRequest, validationErr.Reason)
	case errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, domain.ErrInvalidScope):
		respondWithError(w, http.StatusBadRequest, "Invalid scope")
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
