package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListFacilities(w http.ResponseWriter, r *http.Request) {
	facilities, err := s.repo.GetActiveFacilities(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, facilities)
}

func (s *Server) handleListTimeSlots(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid facility id")
		return
	}

	if _, err := s.repo.GetFacility(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	slots, err := s.repo.GetTimeSlots(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}
