package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reserba/internal/domain"
	"reserba/internal/events"

	"github.com/rs/zerolog"
)

// NotificationWorker turns domain events into official-channel notifications.
// Events are buffered so publishers never block on a slow notifier.
type NotificationWorker struct {
	notifier domain.Notifier
	backoff  Backoff
	queue    chan string
	logger   *zerolog.Logger
	done     chan struct{}
}

func NewNotificationWorker(notifier domain.Notifier, backoff Backoff, logger *zerolog.Logger) *NotificationWorker {
	if backoff.Attempts <= 0 {
		backoff.Attempts = 4
	}
	if backoff.Base <= 0 {
		backoff.Base = time.Second
	}
	if backoff.Cap <= 0 {
		backoff.Cap = 30 * time.Second
	}

	return &NotificationWorker{
		notifier: notifier,
		backoff:  backoff,
		queue:    make(chan string, 128),
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Subscribe registers the worker on every event type it reports on.
func (w *NotificationWorker) Subscribe(bus *events.EventBus) {
	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingAutoRejected,
		events.EventUserBanned,
		events.EventVerificationFiled,
	} {
		bus.Subscribe(eventType, w.enqueue)
	}
}

func (w *NotificationWorker) enqueue(event *events.Event) error {
	text, ok := formatEvent(event)
	if !ok {
		return nil
	}

	select {
	case w.queue <- text:
	default:
		w.logger.Warn().Str("event_type", event.Type).Msg("notification queue full, event dropped")
	}
	return nil
}

// Start consumes the queue until ctx is done, then drains what remains.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("notification worker started")
	defer close(w.done)
	defer w.logger.Info().Msg("notification worker stopped")

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case text := <-w.queue:
			w.send(ctx, text)
		}
	}
}

// Wait blocks until Start has returned.
func (w *NotificationWorker) Wait() {
	<-w.done
}

func (w *NotificationWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for {
		select {
		case text := <-w.queue:
			if err := w.notifier.Notify(ctx, text); err != nil {
				w.logger.Error().Err(err).Msg("notification dropped during drain")
			}
		default:
			return
		}
	}
}

func (w *NotificationWorker) send(ctx context.Context, text string) {
	var lastErr error
	for attempt := 1; attempt <= w.backoff.Attempts; attempt++ {
		lastErr = w.notifier.Notify(ctx, text)
		if lastErr == nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.backoff.Delay(attempt)):
		}
	}
	w.logger.Error().Err(lastErr).Int("attempts", w.backoff.Attempts).Msg("notification delivery failed")
}

// formatEvent renders an event as a human message for the officials channel.
func formatEvent(event *events.Event) (string, bool) {
	switch event.Type {
	case events.EventBookingCreated:
		var p events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return "", false
		}
		return fmt.Sprintf("📅 New booking by %s: %s on %s (%s), status %s",
			p.UserName, p.FacilityName, p.BookingDate.Format("2006-01-02"), p.Timeslot, p.Status), true

	case events.EventBookingAutoRejected:
		var p events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return "", false
		}
		return fmt.Sprintf("⚠️ Booking #%d by %s for %s (%s) was auto-rejected for official barangay use",
			p.BookingID, p.UserName, p.FacilityName, p.Timeslot), true

	case events.EventUserBanned:
		var p events.UserEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return "", false
		}
		return fmt.Sprintf("🚫 User %s (%s) has been permanently banned: %s",
			p.FullName, p.Email, p.BanReason), true

	case events.EventVerificationFiled:
		var p events.VerificationEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return "", false
		}
		return fmt.Sprintf("📋 New %s verification request #%d awaiting review", p.RequestedType, p.RequestID), true

	default:
		return "", false
	}
}
