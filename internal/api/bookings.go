package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"reserba/internal/models"
	"reserba/internal/service"

	"github.com/go-chi/chi/v5"
)

const dateLayout = "2006-01-02"

type createBookingRequest struct {
	FacilityID int64  `json:"facility_id" validate:"required,gt=0"`
	Date       string `json:"date" validate:"required"`
	Timeslot   string `json:"timeslot" validate:"required"`
	Purpose    string `json:"purpose" validate:"max=500"`
}

type createBookingResponse struct {
	Success                  bool                            `json:"success"`
	BookingID                int64                           `json:"booking_id"`
	Reference                string                          `json:"reference"`
	Status                   string                          `json:"status"`
	Booking                  *models.Booking                 `json:"booking"`
	RejectedResidentBookings []models.RejectedBookingSummary `json:"rejected_resident_bookings"`
}

type updateStatusRequest struct {
	Status          string `json:"status" validate:"required,oneof=approved rejected cancelled completed"`
	RejectionReason string `json:"rejection_reason"`
	RejectionType   string `json:"rejection_type" validate:"omitempty,oneof=fake_receipt incorrect_downpayment other"`
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "facility, date and timeslot are required")
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	booking, rejected, err := s.bookings.CreateBooking(r.Context(), service.CreateBookingInput{
		FacilityID: req.FacilityID,
		UserEmail:  session.Email,
		Date:       date,
		Timeslot:   req.Timeslot,
		Purpose:    req.Purpose,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if rejected == nil {
		rejected = []models.RejectedBookingSummary{}
	}
	writeJSON(w, http.StatusCreated, createBookingResponse{
		Success:                  true,
		BookingID:                booking.ID,
		Reference:                booking.Reference,
		Status:                   booking.Status,
		Booking:                  booking,
		RejectedResidentBookings: rejected,
	})
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if booking.UserID != session.UserID && session.Role != models.RoleOfficial {
		writeError(w, http.StatusForbidden, "you may only view your own bookings")
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleUserBookings(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if userID != session.UserID && session.Role != models.RoleOfficial {
		writeError(w, http.StatusForbidden, "you may only view your own bookings")
		return
	}

	bookings, err := s.bookings.GetUserBookings(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// handleListBookings returns bookings in a date range, newest first.
// Officials use this for the daily schedule and payment review queue.
func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.bookings.GetBookingsByDateRange(r.Context(), start, end, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// dateRangeParams reads start_date/end_date query params, defaulting to the
// next 30 days.
func dateRangeParams(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().Truncate(24 * time.Hour)
	start, end := now, now.AddDate(0, 0, 30)

	if raw := r.URL.Query().Get("start_date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("start_date must be formatted as YYYY-MM-DD")
		}
		start = parsed
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("end_date must be formatted as YYYY-MM-DD")
		}
		end = parsed
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end_date must not be before start_date")
	}
	return start, end, nil
}

func (s *Server) handleUpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid status update")
		return
	}

	actor, err := s.users.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	booking, err := s.bookings.UpdateStatus(r.Context(), id, req.Status, req.RejectionReason, req.RejectionType, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}
