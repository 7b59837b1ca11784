package models

import "time"

type Booking struct {
	ID                int64     `json:"id"`
	Reference         string    `json:"reference"`
	UserID            int64     `json:"user_id"`
	UserName          string    `json:"user_name"`
	UserEmail         string    `json:"user_email"`
	FacilityID        int64     `json:"facility_id"`
	FacilityName      string    `json:"facility_name"`
	BookingDate       time.Time `json:"booking_date"`
	Timeslot          string    `json:"timeslot"` // display window or AllDaySlot
	Purpose           string    `json:"purpose,omitempty"`
	TotalAmount       float64   `json:"total_amount"`
	DownpaymentAmount float64   `json:"downpayment_amount"`
	Status            string    `json:"status"`
	RejectionReason   string    `json:"rejection_reason,omitempty"`
	RejectionType     string    `json:"rejection_type,omitempty"`
	IsCompetitive     bool      `json:"is_competitive"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	Version           int64     `json:"version"`
}

func (b *Booking) IsAllDay() bool {
	return b.Timeslot == AllDaySlot
}

// IsTerminal reports whether the status permits no further transitions.
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusRejected || b.Status == StatusCancelled || b.Status == StatusCompleted
}

// AutoRejection is one conflict-resolver decision, applied inside the official
// booking's transaction.
type AutoRejection struct {
	BookingID int64
	Reason    string
}

// RejectedBookingSummary is returned to an official whose booking displaced
// resident bookings. Timeslot is the displaced booking's own original window.
type RejectedBookingSummary struct {
	BookingID     int64  `json:"booking_id"`
	ResidentName  string `json:"resident_name"`
	ResidentEmail string `json:"resident_email"`
	Timeslot      string `json:"timeslot"`
}
