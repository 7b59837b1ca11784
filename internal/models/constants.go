package models

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const (
	RejectionFakeReceipt          = "fake_receipt"
	RejectionIncorrectDownpayment = "incorrect_downpayment"
	RejectionOther                = "other"
)

// AllDaySlot is the literal timeslot value for an official whole-day reservation.
const AllDaySlot = "ALL DAY"

const (
	VerificationStatusPending  = "pending"
	VerificationStatusApproved = "approved"
	VerificationStatusRejected = "rejected"
)

const (
	LockStatusPendingReview       = "pending_review"
	LockStatusVerifiedResident    = "verified_resident"
	LockStatusVerifiedNonResident = "verified_non_resident"
	LockStatusUnverified          = "unverified"
)

const (
	DiscountResident    = 0.10
	DiscountNonResident = 0.05
)

// MaxFakeBookingViolations is the permanent-ban threshold.
const MaxFakeBookingViolations = 3

// BanReasonFakeReceipts is stored on the user when the threshold is hit.
const BanReasonFakeReceipts = "Permanently banned: submitted 3 fake payment receipts"

const (
	// DefaultSessionTTLHours session lifetime
	DefaultSessionTTLHours = 24

	// DefaultMaxBookingDays booking horizon
	DefaultMaxBookingDays = 90

	DefaultRateLimitRPS   = 10
	DefaultRateLimitBurst = 20
)
