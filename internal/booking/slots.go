package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeSlot is a bookable time-of-day in HH:MM form, drawn from the fixed
// catalog below. No slot outside the catalog is ever valid.
type TimeSlot string

// catalog is the closed, chronologically ordered set of bookable times.
var catalog = []TimeSlot{
	"17:00", "17:30", "18:00", "18:30", "19:00", "19:30", "20:00", "20:30", "21:00",
}

var catalogIndex = func() map[TimeSlot]int {
	m := make(map[TimeSlot]int, len(catalog))
	for i, s := range catalog {
		m[s] = i
	}
	return m
}()

// Catalog returns a copy of the full slot catalog in chronological order.
func Catalog() []TimeSlot {
	out := make([]TimeSlot, len(catalog))
	copy(out, catalog)
	return out
}

// ParseSlot validates an HH:MM string against the catalog.
func ParseSlot(s string) (TimeSlot, error) {
	slot := TimeSlot(strings.TrimSpace(s))
	if _, ok := catalogIndex[slot]; !ok {
		return "", fmt.Errorf("time %q is not a bookable slot", s)
	}
	return slot, nil
}

func (s TimeSlot) String() string { return string(s) }

// Clock returns the slot's hour and minute.
func (s TimeSlot) Clock() (hour, minute int) {
	parts := strings.SplitN(string(s), ":", 2)
	hour, _ = strconv.Atoi(parts[0])
	if len(parts) == 2 {
		minute, _ = strconv.Atoi(parts[1])
	}
	return hour, minute
}

// At anchors the slot on a calendar date in the given location.
func (s TimeSlot) At(d CalendarDate, loc *time.Location) time.Time {
	h, m := s.Clock()
	return d.At(h, m, loc)
}

func containsSlot(slots []TimeSlot, s TimeSlot) bool {
	for _, v := range slots {
		if v == s {
			return true
		}
	}
	return false
}
