package models

import "time"

// Role is a closed set; legacy string encodings ('0', NULL, '0.%') are
// normalized to RoleResident at the database boundary.
type Role string

const (
	RoleResident Role = "resident"
	RoleOfficial Role = "official"
)

// VerificationType of a verified user. Empty means not verified.
type VerificationType string

const (
	VerificationNone        VerificationType = ""
	VerificationResident    VerificationType = "resident"
	VerificationNonResident VerificationType = "non-resident"
)

// DiscountFor maps a verification type to its facility discount rate.
func DiscountFor(t VerificationType) float64 {
	switch t {
	case VerificationResident:
		return DiscountResident
	case VerificationNonResident:
		return DiscountNonResident
	default:
		return 0
	}
}

type User struct {
	ID                    int64            `json:"id"`
	Email                 string           `json:"email"`
	PasswordHash          string           `json:"-"`
	FullName              string           `json:"full_name"`
	Role                  Role             `json:"role"`
	Verified              bool             `json:"verified"`
	VerificationType      VerificationType `json:"verification_type,omitempty"`
	DiscountRate          float64          `json:"discount_rate"`
	FakeBookingViolations int              `json:"fake_booking_violations"`
	IsBanned              bool             `json:"is_banned"`
	BanReason             string           `json:"ban_reason,omitempty"`
	BannedAt              *time.Time       `json:"banned_at,omitempty"`
	LastLogin             *time.Time       `json:"last_login,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
	Version               int64            `json:"version"`
}

func (u *User) IsOfficial() bool {
	return u.Role == RoleOfficial
}
