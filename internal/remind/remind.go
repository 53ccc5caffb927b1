// Package remind mails guests the day before their reservation.
package remind

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/restovibe/internal/mail"
	"github.com/example/restovibe/internal/reservations"
	"go.uber.org/zap"
)

// Source is the slice of the reservation store the reminder needs.
type Source interface {
	DueReminders(ctx context.Context, date string, limit int) ([]reservations.Reservation, error)
	MarkReminded(ctx context.Context, id string) error
}

// Reminder polls for next-day reservations and sends each guest a
// reminder email once.
type Reminder struct {
	Repo     Source
	Mail     mail.Sender
	Log      *zap.Logger
	Interval time.Duration

	// now is overridable in tests.
	now func() time.Time

	wg sync.WaitGroup
}

func (r *Reminder) Run(ctx context.Context) error {
	if r.now == nil {
		r.now = time.Now
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	// kick immediately
	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			r.wg.Wait()
			return ctx.Err()
		case <-t.C:
			r.tick(ctx)
		}
	}
}

func (r *Reminder) tick(ctx context.Context) {
	tomorrow := r.now().AddDate(0, 0, 1).Format("2006-01-02")
	due, err := r.Repo.DueReminders(ctx, tomorrow, 25)
	if err != nil {
		r.Log.Error("reminder: due query failed", zap.Error(err))
		return
	}

	for _, res := range due {
		res := res
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.send(ctx, res)
		}()
	}
}

func (r *Reminder) send(ctx context.Context, res reservations.Reservation) {
	body := fmt.Sprintf(
		"Hi %s,\n\nThis is a reminder of your RestoVibe reservation tomorrow, %s at %s, for %d guests.\n\nSee you soon!",
		res.Name, res.Date, res.Time, res.PartySize,
	)
	if err := r.Mail.Send(res.Email, "Your RestoVibe reservation tomorrow", body); err != nil {
		r.Log.Error("reminder: send failed", zap.String("id", res.ID), zap.Error(err))
		return
	}
	if err := r.Repo.MarkReminded(ctx, res.ID); err != nil {
		r.Log.Error("reminder: mark failed", zap.String("id", res.ID), zap.Error(err))
		return
	}
	r.Log.Info("reminder sent", zap.String("id", res.ID), zap.String("date", res.Date), zap.String("time", res.Time))
}
