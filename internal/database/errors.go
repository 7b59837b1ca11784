package database

import "errors"

var (
	ErrNotFound                = errors.New("record not found")
	ErrDuplicate               = errors.New("record already exists")
	ErrDuplicatePendingRequest = errors.New("a pending verification request already exists")
	ErrConcurrentModification  = errors.New("record was modified concurrently")
	ErrUserBanned              = errors.New("user is banned permanently")
	ErrPastDate                = errors.New("booking date is in the past")
	ErrDateTooFar              = errors.New("booking date is too far in the future")
	ErrInvalidTransition       = errors.New("invalid booking status transition")
)
