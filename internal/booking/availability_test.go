package booking

import (
	"reflect"
	"testing"
	"time"
)

func TestAvailableSlots_FullCatalogWhenNoRuleApplies(t *testing.T) {
	rules := DefaultRules()
	// A Wednesday with no blackout entry.
	d := Date(2025, time.April, 23)

	for party := 1; party <= 4; party++ {
		got := AvailableSlots(d, party, rules)
		if !reflect.DeepEqual(got, Catalog()) {
			t.Fatalf("party %d: expected full catalog, got %v", party, got)
		}
	}
}

func TestAvailableSlots_DateBlackout(t *testing.T) {
	d := Date(2025, time.April, 26)
	got := AvailableSlots(d, 1, DefaultRules())
	want := []TimeSlot{"17:00", "17:30", "19:30", "20:00", "20:30", "21:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAvailableSlots_FridayPrimeTime(t *testing.T) {
	friday := Date(2025, time.May, 2)
	if friday.Weekday() != time.Friday {
		t.Fatalf("fixture is not a Friday: %v", friday.Weekday())
	}

	got := AvailableSlots(friday, 5, DefaultRules())
	for _, s := range []TimeSlot{"19:30", "20:00", "20:30"} {
		if containsSlot(got, s) {
			t.Errorf("slot %s should be excluded for party of 5 on Friday", s)
		}
	}
	want := []TimeSlot{"17:00", "17:30", "18:00", "18:30", "19:00", "21:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	// Party of 4 keeps the full catalog even on Friday.
	if got := AvailableSlots(friday, 4, DefaultRules()); !reflect.DeepEqual(got, Catalog()) {
		t.Fatalf("party of 4 on Friday should see the full catalog, got %v", got)
	}
}

func TestAvailableSlots_LargePartyLosesEarlySlots(t *testing.T) {
	rules := DefaultRules()
	for _, d := range []CalendarDate{
		Date(2025, time.May, 2), // Friday
		Date(2025, time.May, 4), // Sunday
		Date(2025, time.May, 6), // Tuesday
	} {
		got := AvailableSlots(d, 7, rules)
		for _, s := range []TimeSlot{"17:00", "17:30"} {
			if containsSlot(got, s) {
				t.Errorf("%s: slot %s should be excluded for party of 7", d, s)
			}
		}
	}
}

func TestAvailableSlots_RulesCompose(t *testing.T) {
	// Party of 7 on a Friday: prime-time and early-slot exclusions stack.
	friday := Date(2025, time.May, 2)
	got := AvailableSlots(friday, 7, DefaultRules())
	want := []TimeSlot{"18:00", "18:30", "19:00", "21:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAvailableSlots_PartySizeFailSoft(t *testing.T) {
	d := Date(2025, time.May, 6)
	zero := AvailableSlots(d, 0, DefaultRules())
	neg := AvailableSlots(d, -3, DefaultRules())
	one := AvailableSlots(d, 1, DefaultRules())
	if !reflect.DeepEqual(zero, one) || !reflect.DeepEqual(neg, one) {
		t.Fatalf("invalid party sizes must behave as party of 1")
	}
}

func TestAvailableSlots_Idempotent(t *testing.T) {
	d := Date(2025, time.April, 26)
	a := AvailableSlots(d, 5, DefaultRules())
	b := AvailableSlots(d, 5, DefaultRules())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical arguments produced different results: %v vs %v", a, b)
	}
}

func TestAvailableSlots_CatalogOrderPreserved(t *testing.T) {
	got := AvailableSlots(Date(2025, time.April, 26), 7, DefaultRules())
	last := -1
	for _, s := range got {
		idx := catalogIndex[s]
		if idx <= last {
			t.Fatalf("slots out of catalog order: %v", got)
		}
		last = idx
	}
}

func TestAvailableSlots_WeekendReducedPolicy(t *testing.T) {
	rules := DefaultRules()
	rules.WeekendReduced = true

	saturday := Date(2025, time.May, 3)
	got := AvailableSlots(saturday, 2, rules)
	want := []TimeSlot{"17:00", "18:00", "19:00", "20:00", "21:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected every-other slot on Saturday, got %v", got)
	}

	// Weekdays are untouched by the policy.
	monday := Date(2025, time.May, 5)
	if got := AvailableSlots(monday, 2, rules); !reflect.DeepEqual(got, Catalog()) {
		t.Fatalf("weekend policy must not affect weekdays, got %v", got)
	}
}

func TestParseSlot(t *testing.T) {
	if _, err := ParseSlot("19:30"); err != nil {
		t.Fatalf("19:30 is in the catalog: %v", err)
	}
	for _, bad := range []string{"16:30", "21:30", "19:15", "", "late"} {
		if _, err := ParseSlot(bad); err == nil {
			t.Errorf("ParseSlot(%q) should fail", bad)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-04-26")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d != Date(2025, time.April, 26) {
		t.Fatalf("got %v", d)
	}
	if _, err := ParseDate("26/04/2025"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}
