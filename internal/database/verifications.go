package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reserba/internal/models"

	sqlite3 "github.com/mattn/go-sqlite3"
)

const verificationColumns = `id, user_id, requested_type, status, notes, created_at, updated_at, reviewed_at, reviewed_by`

// CreatePendingRequest inserts a pending verification request. The lock gate
// decides eligibility; the partial unique index is the storage backstop.
func (db *DB) CreatePendingRequest(ctx context.Context, request *models.VerificationRequest) error {
	query := `INSERT INTO verification_requests (user_id, requested_type, status, notes, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		request.UserID, string(request.RequestedType), models.VerificationStatusPending,
		nullString(request.Notes), now, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicatePendingRequest
		}
		return fmt.Errorf("failed to create verification request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	request.ID = id
	request.Status = models.VerificationStatusPending
	request.CreatedAt = now
	request.UpdatedAt = now
	return nil
}

func (db *DB) GetPendingRequestByUser(ctx context.Context, userID int64) (*models.VerificationRequest, error) {
	query := `SELECT ` + verificationColumns + ` FROM verification_requests
              WHERE user_id = ? AND status = ?`
	return db.queryVerification(ctx, query, userID, models.VerificationStatusPending)
}

func (db *DB) GetVerificationRequest(ctx context.Context, id int64) (*models.VerificationRequest, error) {
	query := `SELECT ` + verificationColumns + ` FROM verification_requests WHERE id = ?`
	return db.queryVerification(ctx, query, id)
}

func (db *DB) queryVerification(ctx context.Context, query string, args ...interface{}) (*models.VerificationRequest, error) {
	request, err := scanVerification(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification request: %w", err)
	}
	return request, nil
}

func (db *DB) ListPendingRequests(ctx context.Context) ([]*models.VerificationRequest, error) {
	query := `SELECT ` + verificationColumns + ` FROM verification_requests
              WHERE status = ? ORDER BY created_at ASC`
	rows, err := db.QueryContext(ctx, query, models.VerificationStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.VerificationRequest
	for rows.Next() {
		request, err := scanVerification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verification request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// ApproveVerification marks the request approved and grants the user its
// verification state in one transaction.
func (db *DB) ApproveVerification(ctx context.Context, requestID, reviewerID int64) (*models.VerificationRequest, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	request, err := scanVerification(tx.QueryRowContext(ctx,
		`SELECT `+verificationColumns+` FROM verification_requests WHERE id = ?`, requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification request in tx: %w", err)
	}
	if request.Status != models.VerificationStatusPending {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE verification_requests SET status = ?, reviewed_at = ?, reviewed_by = ?, updated_at = ? WHERE id = ?`,
		models.VerificationStatusApproved, now, reviewerID, now, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to approve verification request: %w", err)
	}

	discount := models.DiscountFor(request.RequestedType)
	_, err = tx.ExecContext(ctx,
		`UPDATE users SET verified = 1, verification_type = ?, discount_rate = ?, version = version + 1, updated_at = ? WHERE id = ?`,
		string(request.RequestedType), discount, now, request.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to grant verification to user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit verification approval: %w", err)
	}

	request.Status = models.VerificationStatusApproved
	request.ReviewedAt = &now
	request.ReviewedBy = reviewerID
	return request, nil
}

// RejectVerification marks the request rejected; the user's state is untouched.
func (db *DB) RejectVerification(ctx context.Context, requestID, reviewerID int64, notes string) (*models.VerificationRequest, error) {
	request, err := db.GetVerificationRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.VerificationStatusPending {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	_, err = db.ExecContext(ctx,
		`UPDATE verification_requests SET status = ?, notes = ?, reviewed_at = ?, reviewed_by = ?, updated_at = ? WHERE id = ?`,
		models.VerificationStatusRejected, nullString(notes), now, reviewerID, now, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to reject verification request: %w", err)
	}

	request.Status = models.VerificationStatusRejected
	request.Notes = notes
	request.ReviewedAt = &now
	request.ReviewedBy = reviewerID
	return request, nil
}

func scanVerification(row rowScanner) (*models.VerificationRequest, error) {
	var (
		request    models.VerificationRequest
		rtype      string
		notes      sql.NullString
		reviewedAt sql.NullTime
		reviewedBy sql.NullInt64
	)
	err := row.Scan(
		&request.ID, &request.UserID, &rtype, &request.Status, &notes,
		&request.CreatedAt, &request.UpdatedAt, &reviewedAt, &reviewedBy,
	)
	if err != nil {
		return nil, err
	}

	request.RequestedType = models.VerificationType(rtype)
	request.Notes = notes.String
	if reviewedAt.Valid {
		t := reviewedAt.Time
		request.ReviewedAt = &t
	}
	request.ReviewedBy = reviewedBy.Int64
	return &request, nil
}
