package booking

import "time"

// NormalizePartySize clamps invalid party sizes to 1. A missing or
// non-numeric party size is not an error anywhere in the booking flow.
func NormalizePartySize(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// AvailableSlots computes the bookable slots for a date and party size.
//
// The exclusion rules are additive: each only removes slots from the
// catalog, never restores one an earlier rule removed. Blocked dates are
// the caller's responsibility (selection refuses them outright); the
// engine itself is pure and holds no state between calls.
func AvailableSlots(date CalendarDate, partySize int, rules Rules) []TimeSlot {
	partySize = NormalizePartySize(partySize)

	base := catalog
	if rules.WeekendReduced {
		wd := date.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			base = everyOther(catalog)
		}
	}

	excluded := make(map[TimeSlot]struct{})
	for _, s := range rules.Blackouts[date] {
		excluded[s] = struct{}{}
	}
	if partySize > rules.FridayPartyMax && date.Weekday() == time.Friday {
		for _, s := range fridayPrimeSlots {
			excluded[s] = struct{}{}
		}
	}
	if partySize > rules.LargePartyMax {
		for _, s := range largePartyEarlySlots {
			excluded[s] = struct{}{}
		}
	}

	out := make([]TimeSlot, 0, len(base))
	for _, s := range base {
		if _, skip := excluded[s]; skip {
			continue
		}
		out = append(out, s)
	}
	return out
}

func everyOther(slots []TimeSlot) []TimeSlot {
	var out []TimeSlot
	for i, s := range slots {
		if i%2 == 0 {
			out = append(out, s)
		}
	}
	return out
}
