package booking

import "time"

// Rules holds the exclusion configuration the availability engine applies.
// It is injected rather than hard-coded so the restaurant can change its
// blackout calendar without touching engine logic.
type Rules struct {
	// Blocked dates accept no bookings at all. Date selection is refused
	// before the engine is ever consulted.
	Blocked map[CalendarDate]struct{}

	// Blackouts maps a calendar date to slots unavailable on that date,
	// independent of party size or weekday.
	Blackouts map[CalendarDate][]TimeSlot

	// Parties larger than FridayPartyMax lose the late-evening slots on
	// Fridays (prime-time protection).
	FridayPartyMax int

	// Parties larger than LargePartyMax lose the earliest slots on every
	// day (kitchen-capacity protection).
	LargePartyMax int

	// WeekendReduced halves the catalog to every other slot on Saturday
	// and Sunday. Off by default; kept as an alternate policy only.
	WeekendReduced bool
}

var fridayPrimeSlots = []TimeSlot{"19:30", "20:00", "20:30"}
var largePartyEarlySlots = []TimeSlot{"17:00", "17:30"}

// DefaultRules returns the production rule set: the standing blackout on
// 2025-04-26 evenings and the stock party-size thresholds.
func DefaultRules() Rules {
	return Rules{
		Blocked: map[CalendarDate]struct{}{},
		Blackouts: map[CalendarDate][]TimeSlot{
			Date(2025, time.April, 26): {"18:00", "18:30", "19:00"},
		},
		FridayPartyMax: 4,
		LargePartyMax:  6,
	}
}

// Block adds dates to the blocked set.
func (r *Rules) Block(dates ...CalendarDate) {
	if r.Blocked == nil {
		r.Blocked = make(map[CalendarDate]struct{}, len(dates))
	}
	for _, d := range dates {
		r.Blocked[d] = struct{}{}
	}
}

// IsBlocked reports whether no slot is ever bookable on d.
func (r Rules) IsBlocked(d CalendarDate) bool {
	_, ok := r.Blocked[d]
	return ok
}
