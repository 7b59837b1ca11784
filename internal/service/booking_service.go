package service

import (
	"context"
	"fmt"
	"time"

	"reserba/internal/database"
	"reserba/internal/domain"
	"reserba/internal/events"
	"reserba/internal/metrics"
	"reserba/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type BookingService struct {
	repo           domain.Repository
	eventBus       domain.EventPublisher
	violations     *ViolationService
	maxBookingDays int
	location       *time.Location
	logger         *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, violations *ViolationService, maxBookingDays int, location *time.Location, logger *zerolog.Logger) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = models.DefaultMaxBookingDays
	}
	if location == nil {
		location = time.Local
	}
	return &BookingService{
		repo:           repo,
		eventBus:       eventBus,
		violations:     violations,
		maxBookingDays: maxBookingDays,
		location:       location,
		logger:         logger,
	}
}

type CreateBookingInput struct {
	FacilityID int64
	UserEmail  string
	Date       time.Time
	Timeslot   string
	Purpose    string
}

// ValidateBookingDate compares calendar days against today in the service's
// configured location, so the day boundary follows barangay local time rather
// than UTC.
func (s *BookingService) ValidateBookingDate(date time.Time) error {
	day := calendarDay(date)
	today := calendarDay(time.Now().In(s.location))
	if day.Before(today) {
		return database.ErrPastDate
	}
	if day.After(today.AddDate(0, 0, s.maxBookingDays)) {
		return database.ErrDateTooFar
	}
	return nil
}

// calendarDay strips the time of day while keeping the date as named, so
// midnight-UTC request dates and located wall clocks compare as plain dates.
func calendarDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateBooking validates and persists a booking. A resident booking is
// created pending. An official booking is created approved and runs the
// conflict resolver: every overlapping resident pending/approved booking on
// the same facility/date is auto-rejected with an apology, inside the same
// transaction as the insert.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*models.Booking, []models.RejectedBookingSummary, error) {
	user, err := s.repo.GetUserByEmail(ctx, input.UserEmail)
	if err != nil {
		return nil, nil, err
	}
	if user.IsBanned {
		return nil, nil, database.ErrUserBanned
	}

	if err := s.ValidateBookingDate(input.Date); err != nil {
		return nil, nil, err
	}

	facility, err := s.repo.GetFacility(ctx, input.FacilityID)
	if err != nil {
		return nil, nil, err
	}
	if !facility.IsActive {
		return nil, nil, database.ErrNotFound
	}

	booking := &models.Booking{
		Reference:    uuid.NewString(),
		UserID:       user.ID,
		UserName:     user.FullName,
		UserEmail:    user.Email,
		FacilityID:   facility.ID,
		FacilityName: facility.Name,
		BookingDate:  input.Date,
		Timeslot:     input.Timeslot,
		Purpose:      input.Purpose,
		Status:       models.StatusPending,
	}

	if input.Timeslot == models.AllDaySlot {
		// Whole-day reservations are official barangay business; no charge.
		if !user.IsOfficial() {
			return nil, nil, ErrAllDayOfficialOnly
		}
	} else {
		slot, err := s.findTimeslot(ctx, facility.ID, input.Timeslot)
		if err != nil {
			return nil, nil, err
		}
		hours := float64(slot.DurationMinutes) / 60
		booking.TotalAmount = facility.HourlyRate * hours * (1 - user.DiscountRate)
		booking.DownpaymentAmount = booking.TotalAmount * facility.DownpaymentRate
	}

	if user.IsOfficial() {
		summaries, err := s.createOfficialBooking(ctx, booking, user)
		if err != nil {
			return nil, nil, err
		}
		return booking, summaries, nil
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, nil, err
	}
	metrics.IncBookingCreated(string(models.RoleResident))
	s.publishBookingEvent(events.EventBookingCreated, booking, "resident", user.ID)
	return booking, nil, nil
}

func (s *BookingService) findTimeslot(ctx context.Context, facilityID int64, display string) (*models.TimeSlot, error) {
	slots, err := s.repo.GetTimeSlots(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	for _, slot := range slots {
		if slot.Display() == display {
			return slot, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *BookingService) createOfficialBooking(ctx context.Context, booking *models.Booking, official *models.User) ([]models.RejectedBookingSummary, error) {
	booking.Status = models.StatusApproved

	candidates, err := s.repo.GetConflictCandidates(ctx, booking.FacilityID, booking.BookingDate, official.ID)
	if err != nil {
		return nil, err
	}

	var (
		rejections []models.AutoRejection
		summaries  []models.RejectedBookingSummary
		conflicts  []*models.Booking
	)
	for _, candidate := range candidates {
		if !models.TimeslotsOverlap(booking.Timeslot, candidate.Timeslot) {
			continue
		}
		conflicts = append(conflicts, candidate)
		rejections = append(rejections, models.AutoRejection{
			BookingID: candidate.ID,
			Reason:    apologyMessage(candidate),
		})
		// The summary keeps the displaced booking's own window, never "ALL DAY".
		summaries = append(summaries, models.RejectedBookingSummary{
			BookingID:     candidate.ID,
			ResidentName:  candidate.UserName,
			ResidentEmail: candidate.UserEmail,
			Timeslot:      candidate.Timeslot,
		})
	}

	if err := s.repo.CreateBookingResolvingConflicts(ctx, booking, rejections); err != nil {
		return nil, err
	}

	metrics.IncBookingCreated(string(models.RoleOfficial))
	metrics.IncAutoRejections(len(conflicts))
	s.publishBookingEvent(events.EventBookingCreated, booking, "official", official.ID)
	for i, conflict := range conflicts {
		conflict.Status = models.StatusRejected
		conflict.RejectionReason = rejections[i].Reason
		conflict.RejectionType = models.RejectionOther
		s.publishBookingEvent(events.EventBookingAutoRejected, conflict, "system", official.ID)
	}

	if len(conflicts) > 0 {
		s.logger.Info().
			Int64("booking_id", booking.ID).
			Int("displaced", len(conflicts)).
			Str("facility", booking.FacilityName).
			Msg("official booking displaced resident bookings")
	}
	return summaries, nil
}

// apologyMessage builds the rejection reason for a displaced resident booking.
func apologyMessage(candidate *models.Booking) string {
	return fmt.Sprintf(
		"We sincerely apologize, but your reservation for %s on %s (%s) had to be cancelled "+
			"because the facility is required for official barangay business. "+
			"A refund of your downpayment is being processed and will be returned to you shortly.",
		candidate.FacilityName,
		candidate.BookingDate.Format("January 2, 2006"),
		candidate.Timeslot,
	)
}

// UpdateStatus performs a lifecycle transition requested by an official.
// Rejections carrying a rejection_type feed the violation tracker.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID int64, status, rejectionReason, rejectionType string, actor *models.User) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.IsTerminal() || !validTransition(booking.Status, status) {
		return nil, database.ErrInvalidTransition
	}
	if status != models.StatusRejected {
		rejectionReason = ""
		rejectionType = ""
	}

	err = s.repo.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, status, rejectionReason, rejectionType)
	if err != nil {
		return nil, err
	}

	if status == models.StatusRejected && rejectionType != "" {
		if err := s.violations.RecordRejection(ctx, booking.UserID, rejectionType); err != nil {
			s.logger.Error().Err(err).Int64("user_id", booking.UserID).Msg("record rejection violation")
		}
	}

	booking.Status = status
	booking.RejectionReason = rejectionReason
	booking.RejectionType = rejectionType
	booking.Version++
	s.publishBookingEvent(eventForStatus(status), booking, "official", actor.ID)
	return booking, nil
}

func validTransition(from, to string) bool {
	switch from {
	case models.StatusPending:
		return to == models.StatusApproved || to == models.StatusRejected || to == models.StatusCancelled
	case models.StatusApproved:
		return to == models.StatusRejected || to == models.StatusCancelled || to == models.StatusCompleted
	default:
		// terminal or unknown statuses never transition
		return false
	}
}

func eventForStatus(status string) string {
	switch status {
	case models.StatusApproved:
		return events.EventBookingApproved
	case models.StatusRejected:
		return events.EventBookingRejected
	case models.StatusCancelled:
		return events.EventBookingCancelled
	case models.StatusCompleted:
		return events.EventBookingCompleted
	default:
		return events.EventBookingCreated
	}
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) GetBookingsByDateRange(ctx context.Context, start, end time.Time, status string) ([]*models.Booking, error) {
	return s.repo.GetBookingsByDateRange(ctx, start, end, status)
}

func (s *BookingService) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return s.repo.GetUserBookings(ctx, userID)
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking, changedBy string, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:       booking.ID,
		Reference:       booking.Reference,
		UserID:          booking.UserID,
		UserName:        booking.UserName,
		UserEmail:       booking.UserEmail,
		FacilityID:      booking.FacilityID,
		FacilityName:    booking.FacilityName,
		BookingDate:     booking.BookingDate,
		Timeslot:        booking.Timeslot,
		Status:          booking.Status,
		RejectionReason: booking.RejectionReason,
		RejectionType:   booking.RejectionType,
		ChangedBy:       changedBy,
		ChangedByID:     changedByID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
