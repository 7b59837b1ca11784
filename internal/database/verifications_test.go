package database

import (
	"context"
	"testing"

	"reserba/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePendingRequest_DuplicateBlocked(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user := createTestUser(t, db, "juan@example.com", models.RoleResident)

	first := &models.VerificationRequest{UserID: user.ID, RequestedType: models.VerificationResident}
	require.NoError(t, db.CreatePendingRequest(ctx, first))
	assert.Equal(t, models.VerificationStatusPending, first.Status)

	second := &models.VerificationRequest{UserID: user.ID, RequestedType: models.VerificationNonResident}
	err := db.CreatePendingRequest(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicatePendingRequest)
}

func TestCreatePendingRequest_AllowedAfterDecision(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user := createTestUser(t, db, "juan@example.com", models.RoleResident)
	reviewer := createTestUser(t, db, "captain@barangay.gov.ph", models.RoleOfficial)

	first := &models.VerificationRequest{UserID: user.ID, RequestedType: models.VerificationResident}
	require.NoError(t, db.CreatePendingRequest(ctx, first))

	_, err := db.RejectVerification(ctx, first.ID, reviewer.ID, "blurry ID photo")
	require.NoError(t, err)

	// The partial unique index only guards pending rows.
	second := &models.VerificationRequest{UserID: user.ID, RequestedType: models.VerificationResident}
	assert.NoError(t, db.CreatePendingRequest(ctx, second))
}

func TestApproveVerification_GrantsDiscount(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user := createTestUser(t, db, "juan@example.com", models.RoleResident)
	reviewer := createTestUser(t, db, "captain@barangay.gov.ph", models.RoleOfficial)

	request := &models.VerificationRequest{UserID: user.ID, RequestedType: models.VerificationResident}
	require.NoError(t, db.CreatePendingRequest(ctx, request))

	approved, err := db.ApproveVerification(ctx, request.ID, reviewer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusApproved, approved.Status)
	assert.Equal(t, reviewer.ID, approved.ReviewedBy)
	require.NotNil(t, approved.ReviewedAt)

	verified, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.Equal(t, models.VerificationResident, verified.VerificationType)
	assert.Equal(t, models.DiscountResident, verified.DiscountRate)
	assert.Equal(t, user.Version+1, verified.Version)
}

func TestApproveVerification_NonResidentDiscount(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user := createTestUser(t, db, "balikbayan@example.com", models.RoleResident)
	reviewer := createTestUser(t, db, "captain@barangay.gov.ph", models.RoleOfficial)

	request := &models.VerificationRequest{UserID: user.ID, RequestedType: models.VerificationNonResident}
	require.NoError(t, db.CreatePendingRequest(ctx, request))

	_, err := db.ApproveVerification(ctx, request.ID, reviewer.ID)
	require.NoError(t, err)

	verified, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationNonResident, verified.VerificationType)
	assert.Equal(t, models.DiscountNonResident, verified.DiscountRate)
}

func TestApproveVerification_AlreadyDecided(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user := createTestUser(t, db, "juan@example.com", models.RoleResident)
	reviewer := createTestUser(t, db, "captain@barangay.gov.ph", models.RoleOfficial)

	request := &models.VerificationRequest{UserID: user.ID, RequestedType: models.VerificationResident}
	require.NoError(t, db.CreatePendingRequest(ctx, request))

	_, err := db.ApproveVerification(ctx, request.ID, reviewer.ID)
	require.NoError(t, err)

	_, err = db.ApproveVerification(ctx, request.ID, reviewer.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = db.RejectVerification(ctx, request.ID, reviewer.ID, "late")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestListPendingRequests(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	first := createTestUser(t, db, "first@example.com", models.RoleResident)
	second := createTestUser(t, db, "second@example.com", models.RoleResident)

	require.NoError(t, db.CreatePendingRequest(ctx, &models.VerificationRequest{UserID: first.ID, RequestedType: models.VerificationResident}))
	require.NoError(t, db.CreatePendingRequest(ctx, &models.VerificationRequest{UserID: second.ID, RequestedType: models.VerificationNonResident}))

	requests, err := db.ListPendingRequests(ctx)
	require.NoError(t, err)
	assert.Len(t, requests, 2)
}
