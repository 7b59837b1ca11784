package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reserba/internal/models"
)

const bookingColumns = `id, reference, user_id, user_name, user_email, facility_id, facility_name,
	date(booking_date), timeslot, purpose, total_amount, downpayment_amount,
	status, rejection_reason, rejection_type, is_competitive, created_at, updated_at, version`

const dateLayout = "2006-01-02"

// CreateBooking inserts a resident booking as one transaction, marking it (and
// existing pending bookings for the same slot) competitive when they collide.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var pending int
	queryCount := `SELECT COUNT(*) FROM bookings
                   WHERE facility_id = ? AND date(booking_date) = ? AND timeslot = ? AND status = ?`
	err = tx.QueryRowContext(ctx, queryCount,
		booking.FacilityID, booking.BookingDate.Format(dateLayout), booking.Timeslot,
		models.StatusPending).Scan(&pending)
	if err != nil {
		return fmt.Errorf("failed to count pending bookings in tx: %w", err)
	}

	if pending > 0 {
		booking.IsCompetitive = true
		queryMark := `UPDATE bookings SET is_competitive = 1, updated_at = ?
                      WHERE facility_id = ? AND date(booking_date) = ? AND timeslot = ? AND status = ?`
		if _, err := tx.ExecContext(ctx, queryMark, time.Now(),
			booking.FacilityID, booking.BookingDate.Format(dateLayout), booking.Timeslot,
			models.StatusPending); err != nil {
			return fmt.Errorf("failed to mark competitive bookings in tx: %w", err)
		}
	}

	if err := insertBooking(ctx, tx, booking); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateBookingResolvingConflicts inserts an official booking and applies the
// conflict resolver's rejections as one atomic unit. A crash can no longer
// leave the official booking committed with conflicts half-rejected.
func (db *DB) CreateBookingResolvingConflicts(ctx context.Context, booking *models.Booking, rejections []models.AutoRejection) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := insertBooking(ctx, tx, booking); err != nil {
		return err
	}

	queryReject := `UPDATE bookings SET status = ?, rejection_reason = ?, rejection_type = ?,
	                       version = version + 1, updated_at = ?
                    WHERE id = ? AND status IN (?, ?)`
	now := time.Now()
	for _, rejection := range rejections {
		result, err := tx.ExecContext(ctx, queryReject,
			models.StatusRejected, rejection.Reason, models.RejectionOther, now,
			rejection.BookingID, models.StatusPending, models.StatusApproved)
		if err != nil {
			return fmt.Errorf("failed to auto-reject booking %d in tx: %w", rejection.BookingID, err)
		}
		// Zero rows means the candidate was cancelled or rejected since the
		// conflict query ran; those are never touched.
		if rows, _ := result.RowsAffected(); rows == 0 {
			db.logger.Warn().Int64("booking_id", rejection.BookingID).Msg("conflict candidate no longer rejectable, skipped")
		}
	}

	return tx.Commit()
}

func insertBooking(ctx context.Context, tx *sql.Tx, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				reference, user_id, user_name, user_email, facility_id, facility_name,
				booking_date, timeslot, purpose, total_amount, downpayment_amount,
				status, is_competitive, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, query,
		booking.Reference,
		booking.UserID,
		booking.UserName,
		booking.UserEmail,
		booking.FacilityID,
		booking.FacilityName,
		booking.BookingDate.Format(dateLayout),
		booking.Timeslot,
		booking.Purpose,
		booking.TotalAmount,
		booking.DownpaymentAmount,
		booking.Status,
		booking.IsCompetitive,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

// GetConflictCandidates returns pending/approved bookings on the facility/date
// owned by residents other than the acting official. Anything without the
// official role counts as a resident.
func (db *DB) GetConflictCandidates(ctx context.Context, facilityID int64, date time.Time, excludeUserID int64) ([]*models.Booking, error) {
	query := `SELECT b.id, b.reference, b.user_id, b.user_name, b.user_email, b.facility_id, b.facility_name,
	                 date(b.booking_date), b.timeslot, b.purpose, b.total_amount, b.downpayment_amount,
	                 b.status, b.rejection_reason, b.rejection_type, b.is_competitive,
	                 b.created_at, b.updated_at, b.version
              FROM bookings b
              JOIN users u ON u.id = b.user_id
              WHERE b.facility_id = ?
                AND date(b.booking_date) = ?
                AND b.status IN (?, ?)
                AND b.user_id != ?
                AND (u.role IS NULL OR u.role != ?)
              ORDER BY b.id`
	rows, err := db.QueryContext(ctx, query,
		facilityID, date.Format(dateLayout),
		models.StatusPending, models.StatusApproved,
		excludeUserID, string(models.RoleOfficial))
	if err != nil {
		return nil, fmt.Errorf("failed to get conflict candidates: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status, rejectionReason, rejectionType string) error {
	query := `UPDATE bookings SET status = ?, rejection_reason = ?, rejection_type = ?,
	                 version = version + 1, updated_at = ?
              WHERE id = ?`
	_, err := db.ExecContext(ctx, query,
		status, nullString(rejectionReason), nullString(rejectionType), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return nil
}

func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status, rejectionReason, rejectionType string) error {
	query := `UPDATE bookings SET status = ?, rejection_reason = ?, rejection_type = ?,
	                 version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query,
		status, nullString(rejectionReason), nullString(rejectionType), time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) GetBookingsByDateRange(ctx context.Context, startDate, endDate time.Time, status string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE date(booking_date) >= ? AND date(booking_date) <= ?`
	args := []interface{}{startDate.Format(dateLayout), endDate.Format(dateLayout)}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY booking_date ASC, id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (db *DB) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE user_id = ? ORDER BY booking_date DESC, id DESC`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b               models.Booking
		dateStr         string
		purpose         sql.NullString
		rejectionReason sql.NullString
		rejectionType   sql.NullString
	)
	err := row.Scan(
		&b.ID, &b.Reference, &b.UserID, &b.UserName, &b.UserEmail,
		&b.FacilityID, &b.FacilityName, &dateStr, &b.Timeslot, &purpose,
		&b.TotalAmount, &b.DownpaymentAmount, &b.Status,
		&rejectionReason, &rejectionType, &b.IsCompetitive,
		&b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	b.BookingDate, err = time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	b.Purpose = purpose.String
	b.RejectionReason = rejectionReason.String
	b.RejectionType = rejectionType.String
	return &b, nil
}
