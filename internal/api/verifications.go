package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"reserba/internal/models"

	"github.com/go-chi/chi/v5"
)

type submitVerificationRequest struct {
	RequestedType string `json:"requested_type" validate:"required,oneof=resident non-resident"`
	Notes         string `json:"notes" validate:"max=1000"`
}

type decideVerificationRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Notes  string `json:"notes" validate:"max=1000"`
}

func (s *Server) handleVerificationStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if userID != session.UserID && session.Role != models.RoleOfficial {
		writeError(w, http.StatusForbidden, "you may only view your own verification status")
		return
	}

	status, err := s.verifications.Status(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSubmitVerification(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req submitVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "requested_type must be resident or non-resident")
		return
	}

	request, err := s.verifications.Submit(r.Context(), session.UserID, models.VerificationType(req.RequestedType), req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

func (s *Server) handleListVerifications(w http.ResponseWriter, r *http.Request) {
	requests, err := s.verifications.ListPending(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) handleDecideVerification(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req decideVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "status must be approved or rejected")
		return
	}

	var request *models.VerificationRequest
	if req.Status == models.VerificationStatusApproved {
		request, err = s.verifications.Approve(r.Context(), id, session.UserID)
	} else {
		request, err = s.verifications.Reject(r.Context(), id, session.UserID, req.Notes)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}
