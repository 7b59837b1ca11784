package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: conn, logger: logger}

	if err := db.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := db.migrateLegacyRoles(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to migrate legacy roles: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return db, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            email TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            full_name TEXT NOT NULL,
            role TEXT,
            verified BOOLEAN NOT NULL DEFAULT 0,
            verification_type TEXT,
            discount_rate REAL NOT NULL DEFAULT 0,
            fake_booking_violations INTEGER NOT NULL DEFAULT 0,
            is_banned BOOLEAN NOT NULL DEFAULT 0,
            ban_reason TEXT,
            banned_at DATETIME,
            last_login DATETIME,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS facilities (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT UNIQUE NOT NULL,
            description TEXT,
            hourly_rate REAL NOT NULL DEFAULT 0,
            downpayment_rate REAL NOT NULL DEFAULT 0,
            capacity INTEGER NOT NULL DEFAULT 0,
            is_active BOOLEAN NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS time_slots (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            facility_id INTEGER NOT NULL REFERENCES facilities(id),
            start_time TEXT NOT NULL,
            end_time TEXT NOT NULL,
            duration_minutes INTEGER NOT NULL,
            UNIQUE(facility_id, start_time, end_time)
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            reference TEXT NOT NULL,
            user_id INTEGER NOT NULL REFERENCES users(id),
            user_name TEXT NOT NULL,
            user_email TEXT NOT NULL,
            facility_id INTEGER NOT NULL REFERENCES facilities(id),
            facility_name TEXT NOT NULL,
            booking_date DATETIME NOT NULL,
            timeslot TEXT NOT NULL,
            purpose TEXT,
            total_amount REAL NOT NULL DEFAULT 0,
            downpayment_amount REAL NOT NULL DEFAULT 0,
            status TEXT NOT NULL DEFAULT 'pending',
            rejection_reason TEXT,
            rejection_type TEXT,
            is_competitive BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS verification_requests (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL REFERENCES users(id),
            requested_type TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            notes TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            reviewed_at DATETIME,
            reviewed_by INTEGER
        )`,

		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_is_banned ON users(is_banned)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_facility_date ON bookings(facility_id, booking_date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,

		// Backstop for the lock-gate rule: at most one pending request per user.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_verification_pending
            ON verification_requests(user_id) WHERE status = 'pending'`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// migrateLegacyRoles rewrites placeholder role encodings left by the old
// system ('0', NULL, '0.…') so that only the closed enum exists in storage.
func (db *DB) migrateLegacyRoles(ctx context.Context) error {
	query := `UPDATE users SET role = 'resident'
              WHERE role IS NULL OR role = '0' OR role LIKE '0.%' OR role = ''`
	result, err := db.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		db.logger.Info().Int64("rows", rows).Msg("normalized legacy role encodings")
	}
	return nil
}
