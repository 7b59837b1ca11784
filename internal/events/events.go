package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated      = "booking_created"
	EventBookingApproved     = "booking_approved"
	EventBookingRejected     = "booking_rejected"
	EventBookingAutoRejected = "booking_auto_rejected"
	EventBookingCancelled    = "booking_cancelled"
	EventBookingCompleted    = "booking_completed"
	EventUserBanned          = "user_banned"
	EventVerificationFiled   = "verification_submitted"
	EventVerificationDecided = "verification_decided"
)

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID       int64     `json:"booking_id"`
	Reference       string    `json:"reference,omitempty"`
	UserID          int64     `json:"user_id"`
	UserName        string    `json:"user_name"`
	UserEmail       string    `json:"user_email,omitempty"`
	FacilityID      int64     `json:"facility_id"`
	FacilityName    string    `json:"facility_name"`
	BookingDate     time.Time `json:"booking_date"`
	Timeslot        string    `json:"timeslot"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	RejectionType   string    `json:"rejection_type,omitempty"`
	ChangedBy       string    `json:"changed_by,omitempty"`
	ChangedByID     int64     `json:"changed_by_id,omitempty"`
}

// UserEventPayload is published on violation and ban events.
type UserEventPayload struct {
	UserID     int64  `json:"user_id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Violations int    `json:"violations,omitempty"`
	BanReason  string `json:"ban_reason,omitempty"`
}

// VerificationEventPayload accompanies verification lifecycle events.
type VerificationEventPayload struct {
	RequestID     int64  `json:"request_id"`
	UserID        int64  `json:"user_id"`
	RequestedType string `json:"requested_type"`
	Status        string `json:"status"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
