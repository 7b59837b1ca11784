package worker

import "time"

// Backoff shapes the wait between delivery attempts to the officials channel.
// The wait doubles from Base on every failed attempt until it reaches Cap.
type Backoff struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
}

// Delay returns how long to wait after the given failed attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	d := b.Base
	if d <= 0 {
		d = time.Second
	}
	for i := 1; i < attempt; i++ {
		d *= 2
		if b.Cap > 0 && d >= b.Cap {
			return b.Cap
		}
	}
	return d
}
