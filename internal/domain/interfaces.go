package domain

import (
	"context"
	"time"

	"reserba/internal/models"
)

type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
	UpdateViolationState(ctx context.Context, id, fromVersion int64, violations int, banned bool, banReason string, bannedAt *time.Time) error

	GetFacility(ctx context.Context, id int64) (*models.Facility, error)
	GetActiveFacilities(ctx context.Context) ([]*models.Facility, error)
	GetTimeSlots(ctx context.Context, facilityID int64) ([]*models.TimeSlot, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	CreateBookingResolvingConflicts(ctx context.Context, booking *models.Booking, rejections []models.AutoRejection) error
	GetConflictCandidates(ctx context.Context, facilityID int64, date time.Time, excludeUserID int64) ([]*models.Booking, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status, rejectionReason, rejectionType string) error
	GetBookingsByDateRange(ctx context.Context, startDate, endDate time.Time, status string) ([]*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)

	CreatePendingRequest(ctx context.Context, request *models.VerificationRequest) error
	GetPendingRequestByUser(ctx context.Context, userID int64) (*models.VerificationRequest, error)
	GetVerificationRequest(ctx context.Context, id int64) (*models.VerificationRequest, error)
	ListPendingRequests(ctx context.Context) ([]*models.VerificationRequest, error)
	ApproveVerification(ctx context.Context, requestID, reviewerID int64) (*models.VerificationRequest, error)
	RejectVerification(ctx context.Context, requestID, reviewerID int64, notes string) (*models.VerificationRequest, error)
}

// SessionStore keeps issued sessions so that a ban can revoke them immediately.
type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	RevokeUser(ctx context.Context, userID int64) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Notifier delivers operational alerts to barangay officials.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
