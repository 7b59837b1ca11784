package service

import (
	"context"
	"testing"
	"time"

	"reserba/internal/database"
	"reserba/internal/events"
	"reserba/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newViolationService(repo *mockRepo, sessions *mockSessions, bus *mockBus) *ViolationService {
	logger := zerolog.Nop()
	return NewViolationService(repo, sessions, bus, &logger)
}

func TestNextViolationState(t *testing.T) {
	now := time.Now()

	first := nextViolationState(models.User{FakeBookingViolations: 0}, now)
	assert.Equal(t, 1, first.FakeBookingViolations)
	assert.False(t, first.IsBanned)

	second := nextViolationState(models.User{FakeBookingViolations: 1}, now)
	assert.Equal(t, 2, second.FakeBookingViolations)
	assert.False(t, second.IsBanned)

	third := nextViolationState(models.User{FakeBookingViolations: 2}, now)
	assert.Equal(t, 3, third.FakeBookingViolations)
	assert.True(t, third.IsBanned)
	assert.Equal(t, models.BanReasonFakeReceipts, third.BanReason)
	require.NotNil(t, third.BannedAt)

	// An already banned user keeps counting without a second ban timestamp.
	already := models.User{FakeBookingViolations: 3, IsBanned: true, BanReason: "earlier"}
	fourth := nextViolationState(already, now)
	assert.Equal(t, 4, fourth.FakeBookingViolations)
	assert.Equal(t, "earlier", fourth.BanReason)
	assert.Nil(t, fourth.BannedAt)
}

func TestRecordRejection_OnlyFakeReceiptCounts(t *testing.T) {
	repo := new(mockRepo)
	svc := newViolationService(repo, nil, nil)

	for _, rejectionType := range []string{models.RejectionIncorrectDownpayment, models.RejectionOther, ""} {
		err := svc.RecordRejection(context.Background(), 1, rejectionType)
		assert.NoError(t, err)
	}
	// No snapshot read, no write.
	repo.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateViolationState",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordRejection_IncrementsWithoutBan(t *testing.T) {
	repo := new(mockRepo)
	svc := newViolationService(repo, nil, nil)

	user := &models.User{ID: 7, Email: "juan@example.com", FakeBookingViolations: 0, Version: 1}
	repo.On("GetUserByID", mock.Anything, int64(7)).Return(user, nil).Once()
	repo.On("UpdateViolationState", mock.Anything, int64(7), int64(1), 1, false, "", (*time.Time)(nil)).Return(nil).Once()

	err := svc.RecordRejection(context.Background(), 7, models.RejectionFakeReceipt)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRecordRejection_ThirdStrikeBans(t *testing.T) {
	repo := new(mockRepo)
	sessions := new(mockSessions)
	bus := new(mockBus)
	svc := newViolationService(repo, sessions, bus)

	user := &models.User{ID: 7, Email: "juan@example.com", FullName: "Juan", FakeBookingViolations: 2, Version: 3}
	repo.On("GetUserByID", mock.Anything, int64(7)).Return(user, nil).Once()
	repo.On("UpdateViolationState", mock.Anything, int64(7), int64(3), 3, true, models.BanReasonFakeReceipts,
		mock.AnythingOfType("*time.Time")).Return(nil).Once()
	sessions.On("RevokeUser", mock.Anything, int64(7)).Return(nil).Once()
	bus.On("PublishJSON", events.EventUserBanned, mock.MatchedBy(func(p interface{}) bool {
		payload, ok := p.(events.UserEventPayload)
		return ok && payload.UserID == 7 && payload.Violations == 3 && payload.BanReason == models.BanReasonFakeReceipts
	})).Return(nil).Once()

	err := svc.RecordRejection(context.Background(), 7, models.RejectionFakeReceipt)
	require.NoError(t, err)
	repo.AssertExpectations(t)
	sessions.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestRecordRejection_AlreadyBannedNoSideEffects(t *testing.T) {
	repo := new(mockRepo)
	sessions := new(mockSessions)
	bus := new(mockBus)
	svc := newViolationService(repo, sessions, bus)

	bannedAt := time.Now()
	user := &models.User{
		ID: 7, FakeBookingViolations: 3, IsBanned: true,
		BanReason: models.BanReasonFakeReceipts, BannedAt: &bannedAt, Version: 4,
	}
	repo.On("GetUserByID", mock.Anything, int64(7)).Return(user, nil).Once()
	repo.On("UpdateViolationState", mock.Anything, int64(7), int64(4), 4, true, models.BanReasonFakeReceipts,
		mock.AnythingOfType("*time.Time")).Return(nil).Once()

	err := svc.RecordRejection(context.Background(), 7, models.RejectionFakeReceipt)
	require.NoError(t, err)
	sessions.AssertNotCalled(t, "RevokeUser", mock.Anything, mock.Anything)
	bus.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
}

func TestRecordRejection_RetriesOnConcurrentModification(t *testing.T) {
	repo := new(mockRepo)
	svc := newViolationService(repo, nil, nil)

	stale := &models.User{ID: 7, FakeBookingViolations: 0, Version: 1}
	fresh := &models.User{ID: 7, FakeBookingViolations: 1, Version: 2}
	repo.On("GetUserByID", mock.Anything, int64(7)).Return(stale, nil).Once()
	repo.On("UpdateViolationState", mock.Anything, int64(7), int64(1), 1, false, "", (*time.Time)(nil)).
		Return(database.ErrConcurrentModification).Once()
	repo.On("GetUserByID", mock.Anything, int64(7)).Return(fresh, nil).Once()
	repo.On("UpdateViolationState", mock.Anything, int64(7), int64(2), 2, false, "", (*time.Time)(nil)).Return(nil).Once()

	err := svc.RecordRejection(context.Background(), 7, models.RejectionFakeReceipt)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRecordRejection_GivesUpAfterRetries(t *testing.T) {
	repo := new(mockRepo)
	svc := newViolationService(repo, nil, nil)

	user := &models.User{ID: 7, FakeBookingViolations: 0, Version: 1}
	repo.On("GetUserByID", mock.Anything, int64(7)).Return(user, nil).Times(3)
	repo.On("UpdateViolationState", mock.Anything, int64(7), int64(1), 1, false, "", (*time.Time)(nil)).
		Return(database.ErrConcurrentModification).Times(3)

	err := svc.RecordRejection(context.Background(), 7, models.RejectionFakeReceipt)
	assert.ErrorIs(t, err, database.ErrConcurrentModification)
}
