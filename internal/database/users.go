package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"reserba/internal/models"

	sqlite3 "github.com/mattn/go-sqlite3"
)

const userColumns = `id, email, password_hash, full_name, role, verified, verification_type,
	discount_rate, fake_booking_violations, is_banned, ban_reason, banned_at,
	last_login, created_at, updated_at, version`

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (
				email, password_hash, full_name, role, verified, verification_type,
				discount_rate, fake_booking_violations, is_banned,
				created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		strings.ToLower(strings.TrimSpace(user.Email)),
		user.PasswordHash,
		user.FullName,
		string(user.Role),
		user.Verified,
		nullString(string(user.VerificationType)),
		user.DiscountRate,
		user.FakeBookingViolations,
		user.IsBanned,
		now,
		now,
		1,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Version = 1
	return nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return db.queryUser(ctx, query, strings.ToLower(strings.TrimSpace(email)))
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return db.queryUser(ctx, query, id)
}

func (db *DB) queryUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user      models.User
		role      sql.NullString
		vtype     sql.NullString
		banReason sql.NullString
		bannedAt  sql.NullTime
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &role,
		&user.Verified, &vtype, &user.DiscountRate, &user.FakeBookingViolations,
		&user.IsBanned, &banReason, &bannedAt, &lastLogin,
		&user.CreatedAt, &user.UpdatedAt, &user.Version,
	)
	if err != nil {
		return nil, err
	}

	user.Role = normalizeRole(role)
	user.VerificationType = models.VerificationType(vtype.String)
	user.BanReason = banReason.String
	if bannedAt.Valid {
		t := bannedAt.Time
		user.BannedAt = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return &user, nil
}

// normalizeRole guards the scan boundary against legacy placeholder encodings
// that predate the role enum ('0', NULL, '0.…' all meant resident).
func normalizeRole(raw sql.NullString) models.Role {
	if !raw.Valid {
		return models.RoleResident
	}
	value := strings.TrimSpace(raw.String)
	switch {
	case value == string(models.RoleOfficial):
		return models.RoleOfficial
	case value == "" || value == "0" || strings.HasPrefix(value, "0."):
		return models.RoleResident
	default:
		return models.Role(value)
	}
}

func (db *DB) UpdateLastLogin(ctx context.Context, id int64) error {
	query := `UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`
	now := time.Now()
	_, err := db.ExecContext(ctx, query, now, now, id)
	return err
}

// UpdateViolationState applies a violation-tracker transition under optimistic
// locking so concurrent rejections for the same user cannot lose an update.
func (db *DB) UpdateViolationState(ctx context.Context, id, fromVersion int64, violations int, banned bool, banReason string, bannedAt *time.Time) error {
	query := `UPDATE users SET fake_booking_violations = ?, is_banned = ?, ban_reason = ?,
	                 banned_at = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query,
		violations, banned, nullString(banReason), nullTime(bannedAt), time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update violation state: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
