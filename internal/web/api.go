package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/example/restovibe/internal/booking"
	"github.com/example/restovibe/internal/reservations"
	"go.uber.org/zap"
)

type reservationInput struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	People string `json:"people"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Notes  string `json:"notes"`
}

// handleAvailability lists the bookable slots for a date and party size,
// running the same date checks the in-form date picker applies.
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date, err := booking.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	party := parsePartySize(r.URL.Query().Get("party"))

	sel := booking.NewSelection(s.Rules)
	if rej := sel.SelectDate(date); rej != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": rej.Reason,
			"code":  string(rej.Code),
		})
		return
	}
	sel.SetPartySize(party)

	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date.String(),
		"party": party,
		"times": sel.Available(),
	})
}

// handleReservationAPI accepts the finalized form as JSON, mirrors it into
// the reservations table and onto the Google calendar, and answers with
// the original route's success/error shape.
func (s *Server) handleReservationAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var in reservationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	res, err := s.placeReservation(r.Context(), in)
	if err != nil {
		var rej *booking.Rejection
		if asRejection(err, &rej) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error": rej.Reason,
				"code":  string(rej.Code),
			})
			return
		}
		s.Log.Error("place reservation", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": fmt.Sprintf("Failed to save reservation: %v", err),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": res.ID})
}

// placeReservation validates the raw input through a selection controller,
// persists the finalized draft and mirrors it to the calendar. Calendar
// failure after a successful write is reported but does not roll back the
// stored reservation.
func (s *Server) placeReservation(ctx context.Context, in reservationInput) (reservations.Reservation, error) {
	sel := booking.NewSelection(s.Rules)
	sel.SetContact(in.Name, in.Email, in.Phone)
	sel.SetNotes(in.Notes)
	sel.SetPartySize(parsePartySize(in.People))

	date, err := booking.ParseDate(in.Date)
	if err != nil {
		return reservations.Reservation{}, &booking.Rejection{
			Code: booking.RejectIncompleteDraft, Reason: "Please select a valid date",
		}
	}
	if rej := sel.SelectDate(date); rej != nil {
		return reservations.Reservation{}, rej
	}
	slot, err := booking.ParseSlot(in.Time)
	if err != nil {
		return reservations.Reservation{}, &booking.Rejection{
			Code: booking.RejectInvalidTime, Reason: "Please select a time",
		}
	}
	if rej := sel.SelectTime(slot); rej != nil {
		return reservations.Reservation{}, rej
	}

	draft, rej := sel.Finalize()
	if rej != nil {
		return reservations.Reservation{}, rej
	}

	res := reservations.FromDraft(draft)
	if err := s.Reservations.Create(ctx, res); err != nil {
		return reservations.Reservation{}, fmt.Errorf("save reservation: %w", err)
	}
	if err := s.Calendar.Insert(ctx, res); err != nil {
		return reservations.Reservation{}, fmt.Errorf("calendar sync: %w", err)
	}
	sel.Reset()
	return res, nil
}

func asRejection(err error, target **booking.Rejection) bool {
	rej, ok := err.(*booking.Rejection)
	if ok {
		*target = rej
	}
	return ok
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
