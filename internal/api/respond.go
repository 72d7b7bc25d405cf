package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/carebridge/healthcare-portal/internal/appointment"
	"github.com/carebridge/healthcare-portal/internal/identity"
	"github.com/carebridge/healthcare-portal/internal/medhistory"
	"github.com/carebridge/healthcare-portal/internal/prescription"
	"github.com/carebridge/healthcare-portal/internal/session"
	"github.com/carebridge/healthcare-portal/internal/user"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeDomainError maps the portal's error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var mismatch *session.RoleMismatchError
	var partial *medhistory.PartialWriteError

	switch {
	case errors.As(err, &mismatch):
		writeError(w, http.StatusUnauthorized, "role_mismatch", mismatch.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, identity.ErrInvalidToken), errors.Is(err, session.ErrNoSession):
		writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, identity.ErrDuplicateIdentity):
		writeError(w, http.StatusConflict, "duplicate_identity", err.Error())
	case errors.Is(err, session.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, appointment.ErrNotFound),
		errors.Is(err, prescription.ErrNotFound),
		errors.Is(err, medhistory.ErrUnknownSection):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, appointment.ErrValidation),
		errors.Is(err, prescription.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	case errors.As(err, &partial):
		writeError(w, http.StatusBadGateway, "partial_write", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
