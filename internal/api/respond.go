package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"reserba/internal/database"
	"reserba/internal/service"
)

// ErrorResponse is the envelope for every non-2xx reply.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

func writeTypedError(w http.ResponseWriter, status int, message, errorType string) {
	writeJSON(w, status, ErrorResponse{Message: message, ErrorType: errorType})
}

// writeServiceError translates domain errors to HTTP replies.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrUserBanned):
		writeError(w, http.StatusForbidden, "Your account has been banned permanently due to repeated submission of fake payment receipts.")
	case errors.Is(err, database.ErrDuplicate):
		writeTypedError(w, http.StatusConflict, "an account with this email already exists", "duplicate")
	case errors.Is(err, database.ErrDuplicatePendingRequest):
		writeTypedError(w, http.StatusConflict, "you already have a pending verification request", "duplicate_request")
	case errors.Is(err, database.ErrPastDate):
		writeError(w, http.StatusBadRequest, "booking date cannot be in the past")
	case errors.Is(err, database.ErrDateTooFar):
		writeError(w, http.StatusBadRequest, "booking date is beyond the allowed reservation window")
	case errors.Is(err, database.ErrInvalidTransition):
		writeTypedError(w, http.StatusConflict, "booking status cannot change from its current state", "invalid_transition")
	case errors.Is(err, database.ErrConcurrentModification):
		writeTypedError(w, http.StatusConflict, "the record was modified by another request, please retry", "conflict")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrAllDayOfficialOnly):
		writeError(w, http.StatusForbidden, "whole-day reservations are reserved for barangay officials")
	case errors.Is(err, service.ErrVerificationLocked):
		writeTypedError(w, http.StatusConflict, "your account is already verified as a resident", "verification_locked")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
