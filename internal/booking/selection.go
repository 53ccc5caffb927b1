package booking

import "strings"

// RejectCode classifies a refused selection. Every rejection is recoverable;
// the selection stays usable afterwards.
type RejectCode string

const (
	RejectPastDate        RejectCode = "past_date"
	RejectDateBlocked     RejectCode = "date_blocked"
	RejectInvalidTime     RejectCode = "invalid_time"
	RejectIncompleteDraft RejectCode = "incomplete_draft"
)

// Rejection is the caller-visible signal for an unavailable selection.
type Rejection struct {
	Code   RejectCode
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

// State describes how far the selection has progressed.
type State int

const (
	NoDateSelected State = iota
	DateSelectedNoTime
	DateAndTimeSelected
)

// Draft is the in-progress reservation. Date and Time are unset until the
// guest picks them; the zero CalendarDate and empty TimeSlot mean unset.
type Draft struct {
	Name      string
	Email     string
	Phone     string
	PartySize int
	Date      CalendarDate
	Time      TimeSlot
	Notes     string
}

// Selection mediates between user input events and the availability
// engine. It owns the draft and the derived slot list, recomputing the
// list whole whenever an input that affects availability changes. One
// instance per guest session; transitions run synchronously and never
// overlap.
type Selection struct {
	rules     Rules
	today     func() CalendarDate
	draft     Draft
	available []TimeSlot
}

func NewSelection(rules Rules) *Selection {
	return &Selection{
		rules: rules,
		today: Today,
		draft: Draft{PartySize: 1},
	}
}

// WithToday overrides the clock. Tests use this to pin "today".
func (s *Selection) WithToday(today func() CalendarDate) *Selection {
	s.today = today
	return s
}

func (s *Selection) Draft() Draft { return s.draft }

// Available returns the current slot list for the chosen date, in catalog
// order. Empty until a date is selected.
func (s *Selection) Available() []TimeSlot {
	out := make([]TimeSlot, len(s.available))
	copy(out, s.available)
	return out
}

func (s *Selection) State() State {
	switch {
	case s.draft.Date.IsZero():
		return NoDateSelected
	case s.draft.Time == "":
		return DateSelectedNoTime
	default:
		return DateAndTimeSelected
	}
}

// SelectDate picks a reservation date. Past and blocked dates are refused
// with the draft left untouched. A fresh date pick always clears the time;
// the guest re-picks from the recomputed slot list.
func (s *Selection) SelectDate(d CalendarDate) *Rejection {
	if d.Before(s.today()) {
		return &Rejection{Code: RejectPastDate, Reason: "Cannot book in the past"}
	}
	if s.rules.IsBlocked(d) {
		return &Rejection{Code: RejectDateBlocked, Reason: "Cannot book on the selected day"}
	}
	s.draft.Date = d
	s.draft.Time = ""
	s.recompute()
	return nil
}

// SelectTime picks a slot from the current available list. Anything else,
// including any pick before a date is chosen, is refused without effect.
func (s *Selection) SelectTime(t TimeSlot) *Rejection {
	if s.draft.Date.IsZero() {
		return &Rejection{Code: RejectInvalidTime, Reason: "Select a date before choosing a time"}
	}
	if !containsSlot(s.available, t) {
		return &Rejection{Code: RejectInvalidTime, Reason: "That time is not available for the selected date"}
	}
	s.draft.Time = t
	return nil
}

// SetPartySize updates the party size and, when a date is already chosen,
// recomputes availability. If the chosen time falls out of the new list it
// is moved to the earliest remaining slot, or cleared when none remain.
func (s *Selection) SetPartySize(n int) {
	s.draft.PartySize = NormalizePartySize(n)
	if s.draft.Date.IsZero() {
		return
	}
	s.recompute()
	if s.draft.Time == "" || containsSlot(s.available, s.draft.Time) {
		return
	}
	if len(s.available) > 0 {
		s.draft.Time = s.available[0]
	} else {
		s.draft.Time = ""
	}
}

// SetContact updates the contact fields. Never affects availability.
func (s *Selection) SetContact(name, email, phone string) {
	s.draft.Name = strings.TrimSpace(name)
	s.draft.Email = strings.TrimSpace(email)
	s.draft.Phone = strings.TrimSpace(phone)
}

func (s *Selection) SetNotes(notes string) {
	s.draft.Notes = notes
}

// Submittable reports whether every required field is present.
func (s *Selection) Submittable() bool {
	d := s.draft
	return d.Name != "" && d.Email != "" && d.Phone != "" &&
		!d.Date.IsZero() && d.Time != "" && d.PartySize >= 1
}

// Finalize returns the completed draft for handoff to persistence and
// calendar sync. The submit action is gated on Submittable, so an
// incomplete draft here is unreachable through normal interaction, but it
// is still checked.
func (s *Selection) Finalize() (Draft, *Rejection) {
	if !s.Submittable() {
		return Draft{}, &Rejection{Code: RejectIncompleteDraft, Reason: "Please fill in all required fields"}
	}
	return s.draft, nil
}

// Reset clears the selection after a successful submission.
func (s *Selection) Reset() {
	s.draft = Draft{PartySize: 1}
	s.available = nil
}

func (s *Selection) recompute() {
	s.available = AvailableSlots(s.draft.Date, s.draft.PartySize, s.rules)
}
