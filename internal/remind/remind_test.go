package remind

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/restovibe/internal/reservations"
	"go.uber.org/zap"
)

type stubSource struct {
	mu       sync.Mutex
	due      map[string][]reservations.Reservation
	reminded []string
}

func (s *stubSource) DueReminders(_ context.Context, date string, _ int) ([]reservations.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.due[date], nil
}

func (s *stubSource) MarkReminded(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminded = append(s.reminded, id)
	return nil
}

type stubMail struct {
	mu   sync.Mutex
	fail bool
	sent []string
}

func (m *stubMail) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, to)
	return nil
}

func TestReminder_SendsForTomorrowOnly(t *testing.T) {
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	src := &stubSource{due: map[string][]reservations.Reservation{
		"2025-06-11": {
			{ID: "a", Name: "Ada", Email: "ada@example.com", Date: "2025-06-11", Time: "19:00", PartySize: 2},
			{ID: "b", Name: "Grace", Email: "grace@example.com", Date: "2025-06-11", Time: "20:00", PartySize: 4},
		},
		"2025-06-12": {
			{ID: "c", Email: "later@example.com"},
		},
	}}
	m := &stubMail{}
	r := &Reminder{Repo: src, Mail: m, Log: zap.NewNop(), Interval: time.Hour, now: func() time.Time { return now }}

	r.tick(context.Background())
	r.wg.Wait()

	if len(m.sent) != 2 {
		t.Fatalf("sent %d mails, want 2", len(m.sent))
	}
	if len(src.reminded) != 2 {
		t.Fatalf("marked %d reservations, want 2", len(src.reminded))
	}
	for _, id := range src.reminded {
		if id == "c" {
			t.Fatal("day-after-tomorrow reservation must not be reminded")
		}
	}
}

func TestReminder_FailedSendIsNotMarked(t *testing.T) {
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	src := &stubSource{due: map[string][]reservations.Reservation{
		"2025-06-11": {{ID: "a", Email: "ada@example.com", Date: "2025-06-11", Time: "19:00"}},
	}}
	m := &stubMail{fail: true}
	r := &Reminder{Repo: src, Mail: m, Log: zap.NewNop(), Interval: time.Hour, now: func() time.Time { return now }}

	r.tick(context.Background())
	r.wg.Wait()

	if len(src.reminded) != 0 {
		t.Fatalf("failed send must leave the reservation unreminded, got %v", src.reminded)
	}
}
