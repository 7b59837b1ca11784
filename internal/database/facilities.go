package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reserba/internal/models"
)

// SeedFacility upserts a facility (and its time slots) from config.
func (db *DB) SeedFacility(ctx context.Context, facility *models.Facility, slots []models.TimeSlot) error {
	query := `INSERT INTO facilities (name, description, hourly_rate, downpayment_rate, capacity, is_active)
              VALUES (?, ?, ?, ?, ?, ?)
              ON CONFLICT(name) DO UPDATE SET
                description = excluded.description,
                hourly_rate = excluded.hourly_rate,
                downpayment_rate = excluded.downpayment_rate,
                capacity = excluded.capacity,
                is_active = excluded.is_active`
	_, err := db.ExecContext(ctx, query,
		facility.Name, facility.Description, facility.HourlyRate,
		facility.DownpaymentRate, facility.Capacity, facility.IsActive)
	if err != nil {
		return fmt.Errorf("failed to seed facility %s: %w", facility.Name, err)
	}

	var id int64
	if err := db.QueryRowContext(ctx, `SELECT id FROM facilities WHERE name = ?`, facility.Name).Scan(&id); err != nil {
		return fmt.Errorf("failed to look up seeded facility %s: %w", facility.Name, err)
	}
	facility.ID = id

	for i := range slots {
		slot := &slots[i]
		slot.FacilityID = id
		slotQuery := `INSERT INTO time_slots (facility_id, start_time, end_time, duration_minutes)
                      VALUES (?, ?, ?, ?)
                      ON CONFLICT(facility_id, start_time, end_time) DO UPDATE SET
                        duration_minutes = excluded.duration_minutes`
		if _, err := db.ExecContext(ctx, slotQuery, id, slot.StartTime, slot.EndTime, slot.DurationMinutes); err != nil {
			return fmt.Errorf("failed to seed time slot %s for %s: %w", slot.Display(), facility.Name, err)
		}
	}
	return nil
}

func (db *DB) GetFacility(ctx context.Context, id int64) (*models.Facility, error) {
	query := `SELECT id, name, description, hourly_rate, downpayment_rate, capacity, is_active
              FROM facilities WHERE id = ?`
	var f models.Facility
	var description sql.NullString
	err := db.QueryRowContext(ctx, query, id).Scan(
		&f.ID, &f.Name, &description, &f.HourlyRate, &f.DownpaymentRate, &f.Capacity, &f.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get facility: %w", err)
	}
	f.Description = description.String
	return &f, nil
}

func (db *DB) GetActiveFacilities(ctx context.Context) ([]*models.Facility, error) {
	query := `SELECT id, name, description, hourly_rate, downpayment_rate, capacity, is_active
              FROM facilities WHERE is_active = 1 ORDER BY name`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get facilities: %w", err)
	}
	defer rows.Close()

	var facilities []*models.Facility
	for rows.Next() {
		f := &models.Facility{}
		var description sql.NullString
		if err := rows.Scan(&f.ID, &f.Name, &description, &f.HourlyRate, &f.DownpaymentRate, &f.Capacity, &f.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		f.Description = description.String
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

func (db *DB) GetTimeSlots(ctx context.Context, facilityID int64) ([]*models.TimeSlot, error) {
	query := `SELECT id, facility_id, start_time, end_time, duration_minutes
              FROM time_slots WHERE facility_id = ? ORDER BY id`
	rows, err := db.QueryContext(ctx, query, facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get time slots: %w", err)
	}
	defer rows.Close()

	var slots []*models.TimeSlot
	for rows.Next() {
		s := &models.TimeSlot{}
		if err := rows.Scan(&s.ID, &s.FacilityID, &s.StartTime, &s.EndTime, &s.DurationMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan time slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}
