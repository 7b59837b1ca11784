package models

import "time"

type VerificationRequest struct {
	ID            int64            `json:"id"`
	UserID        int64            `json:"user_id"`
	RequestedType VerificationType `json:"requested_type"`
	Status        string           `json:"status"`
	Notes         string           `json:"notes,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	ReviewedAt    *time.Time       `json:"reviewed_at,omitempty"`
	ReviewedBy    int64            `json:"reviewed_by,omitempty"`
}

// VerificationStatus is the lock-gate decision for a user.
type VerificationStatus struct {
	CanSubmit        bool             `json:"can_submit"`
	CurrentStatus    string           `json:"current_status"`
	LockMessage      string           `json:"lock_message"`
	Verified         bool             `json:"verified"`
	VerificationType VerificationType `json:"verification_type,omitempty"`
}
