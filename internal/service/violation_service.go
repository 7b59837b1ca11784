package service

import (
	"context"
	"errors"
	"time"

	"reserba/internal/database"
	"reserba/internal/domain"
	"reserba/internal/events"
	"reserba/internal/metrics"
	"reserba/internal/models"

	"github.com/rs/zerolog"
)

// ViolationService tracks fake-receipt violations per user and enforces the
// permanent ban at the threshold. There is no unban path here; lifting a ban
// is an out-of-band administrative action.
type ViolationService struct {
	repo     domain.Repository
	sessions domain.SessionStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewViolationService(repo domain.Repository, sessions domain.SessionStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *ViolationService {
	return &ViolationService{
		repo:     repo,
		sessions: sessions,
		eventBus: eventBus,
		logger:   logger,
	}
}

// nextViolationState is the pure transition: one more violation on the
// snapshot, ban once the threshold is reached.
func nextViolationState(user models.User, now time.Time) models.User {
	user.FakeBookingViolations++
	if user.FakeBookingViolations >= models.MaxFakeBookingViolations && !user.IsBanned {
		user.IsBanned = true
		user.BanReason = models.BanReasonFakeReceipts
		user.BannedAt = &now
	}
	return user
}

// RecordRejection applies a rejection to the violation counter. Only
// fake_receipt rejections count; every other type is a hard no-op.
func (s *ViolationService) RecordRejection(ctx context.Context, userID int64, rejectionType string) error {
	if rejectionType != models.RejectionFakeReceipt {
		return nil
	}

	const maxAttempts = 3
	for attempt := 0; attempt < maxAttempts; attempt++ {
		user, err := s.repo.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		next := nextViolationState(*user, time.Now())
		err = s.repo.UpdateViolationState(ctx, user.ID, user.Version,
			next.FakeBookingViolations, next.IsBanned, next.BanReason, next.BannedAt)
		if errors.Is(err, database.ErrConcurrentModification) {
			continue
		}
		if err != nil {
			return err
		}

		metrics.IncViolation()
		s.logger.Warn().
			Int64("user_id", user.ID).
			Int("violations", next.FakeBookingViolations).
			Bool("banned", next.IsBanned).
			Msg("fake receipt violation recorded")

		if next.IsBanned && !user.IsBanned {
			s.banSideEffects(ctx, next)
		}
		return nil
	}
	return database.ErrConcurrentModification
}

func (s *ViolationService) banSideEffects(ctx context.Context, user models.User) {
	metrics.IncBan()

	if s.sessions != nil {
		if err := s.sessions.RevokeUser(ctx, user.ID); err != nil {
			s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("revoke sessions after ban")
		}
	}

	if s.eventBus != nil {
		payload := events.UserEventPayload{
			UserID:     user.ID,
			Email:      user.Email,
			FullName:   user.FullName,
			Violations: user.FakeBookingViolations,
			BanReason:  user.BanReason,
		}
		if err := s.eventBus.PublishJSON(events.EventUserBanned, payload); err != nil {
			s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("publish ban event")
		}
	}
}
