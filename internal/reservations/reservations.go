package reservations

import (
	"context"
	"time"

	"github.com/example/restovibe/internal/booking"
	"github.com/example/restovibe/internal/db"
	"github.com/google/uuid"
)

// Reservation is the finalized, persisted record. Date is an ISO 8601
// calendar date string and Time an HH:MM slot, as handed over by the
// selection controller.
type Reservation struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	PartySize int
	Date      string
	Time      string
	Notes     string
	CreatedAt time.Time
}

// FromDraft assigns an id and flattens a completed draft for storage.
func FromDraft(d booking.Draft) Reservation {
	return Reservation{
		ID:        uuid.NewString(),
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		PartySize: d.PartySize,
		Date:      d.Date.String(),
		Time:      d.Time.String(),
		Notes:     d.Notes,
	}
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) Create(ctx context.Context, res Reservation) error {
	return r.db.Exec(ctx, `
		INSERT INTO reservations(id, full_name, email, phone, party_size, date, time, special_requests)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, res.ID, res.Name, res.Email, res.Phone, res.PartySize, res.Date, res.Time, res.Notes)
}

func (r *Repo) ListByEmail(ctx context.Context, email string) ([]Reservation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, full_name, email, phone, party_size, to_char(date, 'YYYY-MM-DD'), time, special_requests, created_at
		FROM reservations
		WHERE email=$1
		ORDER BY date DESC, time DESC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReservations(rows)
}

// DueReminders returns reservations for the given calendar date that have
// not been reminded yet.
func (r *Repo) DueReminders(ctx context.Context, date string, limit int) ([]Reservation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, full_name, email, phone, party_size, to_char(date, 'YYYY-MM-DD'), time, special_requests, created_at
		FROM reservations
		WHERE date=$1 AND reminded_at IS NULL
		ORDER BY time ASC
		LIMIT $2
	`, date, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReservations(rows)
}

func (r *Repo) MarkReminded(ctx context.Context, id string) error {
	return r.db.Exec(ctx, `UPDATE reservations SET reminded_at=now() WHERE id=$1`, id)
}

func scanReservations(rows db.Rows) ([]Reservation, error) {
	var out []Reservation
	for rows.Next() {
		var res Reservation
		if err := rows.Scan(&res.ID, &res.Name, &res.Email, &res.Phone, &res.PartySize,
			&res.Date, &res.Time, &res.Notes, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
