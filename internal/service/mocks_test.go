package service

import (
	"context"
	"time"

	"reserba/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockRepo) UpdateLastLogin(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepo) UpdateViolationState(ctx context.Context, id, fromVersion int64, violations int, banned bool, banReason string, bannedAt *time.Time) error {
	return m.Called(ctx, id, fromVersion, violations, banned, banReason, bannedAt).Error(0)
}

func (m *mockRepo) GetFacility(ctx context.Context, id int64) (*models.Facility, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Facility), args.Error(1)
}

func (m *mockRepo) GetActiveFacilities(ctx context.Context) ([]*models.Facility, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Facility), args.Error(1)
}

func (m *mockRepo) GetTimeSlots(ctx context.Context, facilityID int64) ([]*models.TimeSlot, error) {
	args := m.Called(ctx, facilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TimeSlot), args.Error(1)
}

func (m *mockRepo) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *mockRepo) CreateBookingResolvingConflicts(ctx context.Context, booking *models.Booking, rejections []models.AutoRejection) error {
	return m.Called(ctx, booking, rejections).Error(0)
}

func (m *mockRepo) GetConflictCandidates(ctx context.Context, facilityID int64, date time.Time, excludeUserID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, facilityID, date, excludeUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockRepo) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status, rejectionReason, rejectionType string) error {
	return m.Called(ctx, id, fromVersion, status, rejectionReason, rejectionType).Error(0)
}

func (m *mockRepo) GetBookingsByDateRange(ctx context.Context, startDate, endDate time.Time, status string) ([]*models.Booking, error) {
	args := m.Called(ctx, startDate, endDate, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockRepo) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockRepo) CreatePendingRequest(ctx context.Context, request *models.VerificationRequest) error {
	return m.Called(ctx, request).Error(0)
}

func (m *mockRepo) GetPendingRequestByUser(ctx context.Context, userID int64) (*models.VerificationRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationRequest), args.Error(1)
}

func (m *mockRepo) GetVerificationRequest(ctx context.Context, id int64) (*models.VerificationRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationRequest), args.Error(1)
}

func (m *mockRepo) ListPendingRequests(ctx context.Context) ([]*models.VerificationRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.VerificationRequest), args.Error(1)
}

func (m *mockRepo) ApproveVerification(ctx context.Context, requestID, reviewerID int64) (*models.VerificationRequest, error) {
	args := m.Called(ctx, requestID, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationRequest), args.Error(1)
}

func (m *mockRepo) RejectVerification(ctx context.Context, requestID, reviewerID int64, notes string) (*models.VerificationRequest, error) {
	args := m.Called(ctx, requestID, reviewerID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationRequest), args.Error(1)
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Save(ctx context.Context, session *models.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessions) Get(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockSessions) Delete(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockSessions) RevokeUser(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

type mockBus struct {
	mock.Mock
}

func (m *mockBus) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}
