package allowlist

import (
	"context"
	"strings"
	"time"

	"github.com/example/restovibe/internal/db"
)

// Entry is a pre-approved sign-in address. PasswordBcrypt is optional; when
// set it enables direct credential login for the address.
type Entry struct {
	Email          string
	Name           string
	PasswordBcrypt string
	CreatedAt      time.Time
}

// PendingRequest is an address that tried to sign in with Google before
// being approved. The admin either grants it or ignores it.
type PendingRequest struct {
	Email       string
	Name        string
	RequestedAt time.Time
}

type Store struct{ db *db.DB }

func NewStore(d *db.DB) *Store { return &Store{db: d} }

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAllowed reports whether the address may sign in at all.
func (s *Store) IsAllowed(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM allowed_emails WHERE email=$1)`, normalize(email)).Scan(&ok)
	return ok, err
}

func (s *Store) Get(ctx context.Context, email string) (Entry, error) {
	var e Entry
	err := s.db.QueryRow(ctx,
		`SELECT email, name, password_bcrypt, created_at FROM allowed_emails WHERE email=$1`,
		normalize(email)).Scan(&e.Email, &e.Name, &e.PasswordBcrypt, &e.CreatedAt)
	if err != nil {
		return Entry{}, db.WrapNotFound(err)
	}
	return e, nil
}

// Add inserts or updates an allowed address. An empty passwordBcrypt keeps
// any existing password.
func (s *Store) Add(ctx context.Context, email, name, passwordBcrypt string) error {
	return s.db.Exec(ctx, `
		INSERT INTO allowed_emails(email, name, password_bcrypt) VALUES ($1,$2,$3)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			password_bcrypt = CASE WHEN EXCLUDED.password_bcrypt = '' THEN allowed_emails.password_bcrypt ELSE EXCLUDED.password_bcrypt END
	`, normalize(email), name, passwordBcrypt)
}

func (s *Store) Remove(ctx context.Context, email string) error {
	return s.db.Exec(ctx, `DELETE FROM allowed_emails WHERE email=$1`, normalize(email))
}

func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `SELECT email, name, password_bcrypt, created_at FROM allowed_emails ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Email, &e.Name, &e.PasswordBcrypt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RequestAccess records a pending sign-in request, keeping the newest name.
func (s *Store) RequestAccess(ctx context.Context, email, name string) error {
	return s.db.Exec(ctx, `
		INSERT INTO pending_requests(email, name) VALUES ($1,$2)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
	`, normalize(email), name)
}

func (s *Store) PendingFor(ctx context.Context, email string) (PendingRequest, error) {
	var p PendingRequest
	err := s.db.QueryRow(ctx,
		`SELECT email, name, requested_at FROM pending_requests WHERE email=$1`,
		normalize(email)).Scan(&p.Email, &p.Name, &p.RequestedAt)
	if err != nil {
		return PendingRequest{}, db.WrapNotFound(err)
	}
	return p, nil
}

// Grant promotes a pending request to the allowed list and clears it.
// Granting an already-allowed address is a no-op, not an error.
func (s *Store) Grant(ctx context.Context, email string) error {
	p, err := s.PendingFor(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			// Already granted, or never requested: tolerate a direct grant.
			return s.db.Exec(ctx, `
				INSERT INTO allowed_emails(email) VALUES ($1)
				ON CONFLICT (email) DO NOTHING
			`, normalize(email))
		}
		return err
	}
	if err := s.db.Exec(ctx, `
		INSERT INTO allowed_emails(email, name) VALUES ($1,$2)
		ON CONFLICT (email) DO NOTHING
	`, p.Email, p.Name); err != nil {
		return err
	}
	return s.db.Exec(ctx, `DELETE FROM pending_requests WHERE email=$1`, p.Email)
}
