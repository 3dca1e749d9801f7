package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Error("Failed to encode response", "error", err)
		}
	}
}

// writeError maps domain errors onto HTTP status codes. Conflicts with
// the current state are 409, validation failures 422, everything
// unrecognized 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrIncompleteReport),
		errors.Is(err, domain.ErrInvalidExtensionDate),
		errors.Is(err, domain.ErrSettlementExceedsEscrow):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrDuplicateReport),
		errors.Is(err, domain.ErrPrematureReturn),
		errors.Is(err, domain.ErrAlreadyHeld),
		errors.Is(err, domain.ErrReleaseBlocked),
		errors.Is(err, domain.ErrExtensionAlreadyPending),
		errors.Is(err, domain.ErrAlreadyResolved),
		errors.Is(err, domain.ErrDatesUnavailable):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
