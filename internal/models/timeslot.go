package models

import (
	"fmt"
	"strings"
	"time"
)

const clockLayout = "3:04 PM"

// ParseTimeslot splits a display window like "6:00 AM - 8:00 AM" into its
// start and end clock times. AllDaySlot is rejected; callers handle it first.
func ParseTimeslot(slot string) (start, end time.Time, err error) {
	parts := strings.Split(slot, " - ")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid timeslot %q", slot)
	}

	start, err = time.Parse(clockLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid timeslot start %q: %w", parts[0], err)
	}
	end, err = time.Parse(clockLayout, strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid timeslot end %q: %w", parts[1], err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("timeslot %q ends before it starts", slot)
	}
	return start, end, nil
}

// TimeslotsOverlap reports whether two display windows collide on the same
// date. AllDaySlot overlaps everything. Identical strings always overlap;
// windows that cannot be parsed conflict only when equal.
func TimeslotsOverlap(a, b string) bool {
	if a == AllDaySlot || b == AllDaySlot {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return true
	}

	aStart, aEnd, err := ParseTimeslot(a)
	if err != nil {
		return false
	}
	bStart, bEnd, err := ParseTimeslot(b)
	if err != nil {
		return false
	}

	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
