package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAllDayOfficialOnly = errors.New("whole-day reservations are reserved for barangay officials")
	ErrVerificationLocked = errors.New("verification request not allowed in current state")
)
