package service

import (
	"context"
	"errors"

	"reserba/internal/database"
	"reserba/internal/domain"
	"reserba/internal/events"
	"reserba/internal/models"

	"github.com/rs/zerolog"
)

const (
	lockMsgPendingReview = "You already have a verification request under review. Please wait for the barangay office to process it before submitting another."
	lockMsgVerified      = "Your residency is already verified. No further verification requests are needed."
	lockMsgUpgrade       = "You are verified as a non-resident. You may submit a new request to be verified as a resident for a bigger discount."
	lockMsgUnverified    = "Submit a verification request to unlock resident or non-resident discounts."
)

type VerificationService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewVerificationService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *VerificationService {
	return &VerificationService{repo: repo, eventBus: eventBus, logger: logger}
}

// Status answers whether a user may file a verification request. A pending
// request always wins, then a verified resident is locked out, then a
// verified non-resident may upgrade, and an unverified user may submit.
func (s *VerificationService) Status(ctx context.Context, userID int64) (*models.VerificationStatus, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	pending, err := s.repo.GetPendingRequestByUser(ctx, userID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	if pending != nil {
		return &models.VerificationStatus{
			CanSubmit:        false,
			CurrentStatus:    models.LockStatusPendingReview,
			LockMessage:      lockMsgPendingReview,
			Verified:         user.Verified,
			VerificationType: user.VerificationType,
		}, nil
	}

	if user.Verified && user.VerificationType == models.VerificationResident {
		return &models.VerificationStatus{
			CanSubmit:        false,
			CurrentStatus:    models.LockStatusVerifiedResident,
			LockMessage:      lockMsgVerified,
			Verified:         true,
			VerificationType: user.VerificationType,
		}, nil
	}

	if user.Verified && user.VerificationType == models.VerificationNonResident {
		return &models.VerificationStatus{
			CanSubmit:        true,
			CurrentStatus:    models.LockStatusVerifiedNonResident,
			LockMessage:      lockMsgUpgrade,
			Verified:         true,
			VerificationType: user.VerificationType,
		}, nil
	}

	return &models.VerificationStatus{
		CanSubmit:     true,
		CurrentStatus: models.LockStatusUnverified,
		LockMessage:   lockMsgUnverified,
	}, nil
}

// Submit files a new verification request, enforcing the same gate Status
// reports. The pending uniqueness is backed by a partial unique index, so a
// racing submit still fails with ErrDuplicatePendingRequest.
func (s *VerificationService) Submit(ctx context.Context, userID int64, requestedType models.VerificationType, notes string) (*models.VerificationRequest, error) {
	status, err := s.Status(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !status.CanSubmit {
		if status.CurrentStatus == models.LockStatusPendingReview {
			return nil, database.ErrDuplicatePendingRequest
		}
		return nil, ErrVerificationLocked
	}

	request := &models.VerificationRequest{
		UserID:        userID,
		RequestedType: requestedType,
		Status:        models.VerificationStatusPending,
		Notes:         notes,
	}
	if err := s.repo.CreatePendingRequest(ctx, request); err != nil {
		return nil, err
	}

	s.publish(events.EventVerificationFiled, request)
	return request, nil
}

// Approve grants the requested verification type, updating the user's
// discount rate in the same transaction.
func (s *VerificationService) Approve(ctx context.Context, requestID, reviewerID int64) (*models.VerificationRequest, error) {
	request, err := s.repo.ApproveVerification(ctx, requestID, reviewerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("request_id", request.ID).
		Int64("user_id", request.UserID).
		Str("type", string(request.RequestedType)).
		Msg("verification request approved")
	s.publish(events.EventVerificationDecided, request)
	return request, nil
}

func (s *VerificationService) Reject(ctx context.Context, requestID, reviewerID int64, notes string) (*models.VerificationRequest, error) {
	request, err := s.repo.RejectVerification(ctx, requestID, reviewerID, notes)
	if err != nil {
		return nil, err
	}

	s.publish(events.EventVerificationDecided, request)
	return request, nil
}

func (s *VerificationService) ListPending(ctx context.Context) ([]*models.VerificationRequest, error) {
	return s.repo.ListPendingRequests(ctx)
}

func (s *VerificationService) publish(eventType string, request *models.VerificationRequest) {
	if s.eventBus == nil {
		return
	}
	payload := events.VerificationEventPayload{
		RequestID:     request.ID,
		UserID:        request.UserID,
		RequestedType: string(request.RequestedType),
		Status:        request.Status,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
