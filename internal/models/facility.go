package models

type Facility struct {
	ID              int64   `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	Description     string  `json:"description,omitempty" yaml:"description"`
	HourlyRate      float64 `json:"hourly_rate" yaml:"hourly_rate"`
	DownpaymentRate float64 `json:"downpayment_rate" yaml:"downpayment_rate"`
	Capacity        int64   `json:"capacity" yaml:"capacity"`
	IsActive        bool    `json:"is_active" yaml:"is_active"`
}

// TimeSlot enumerates a bookable window for a facility.
type TimeSlot struct {
	ID              int64  `json:"id" yaml:"id"`
	FacilityID      int64  `json:"facility_id" yaml:"facility_id"`
	StartTime       string `json:"start_time" yaml:"start_time"`
	EndTime         string `json:"end_time" yaml:"end_time"`
	DurationMinutes int64  `json:"duration_minutes" yaml:"duration_minutes"`
}

// Display returns the timeslot string as stored on bookings, e.g. "6:00 AM - 8:00 AM".
func (s TimeSlot) Display() string {
	return s.StartTime + " - " + s.EndTime
}
