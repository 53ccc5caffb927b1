package gcal

import (
	"context"
	"fmt"
	"time"

	"github.com/example/restovibe/internal/reservations"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Syncer mirrors a confirmed reservation onto an external calendar. The
// web layer only hands over the finalized record; a sync failure surfaces
// as an error for the guest to retry and never touches the stored draft.
type Syncer interface {
	Insert(ctx context.Context, res reservations.Reservation) error
}

// Client writes 1-hour events to a Google Calendar using a refresh-token
// OAuth credential, matching the restaurant's admin-owned calendar setup.
type Client struct {
	svc        *calendar.Service
	calendarID string
	loc        *time.Location
	tzName     string
}

func New(ctx context.Context, clientID, clientSecret, refreshToken, calendarID, timezone string) (*Client, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("calendar timezone %q: %w", timezone, err)
	}
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarScope},
	}
	ts := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return &Client{svc: svc, calendarID: calendarID, loc: loc, tzName: timezone}, nil
}

func (c *Client) Insert(ctx context.Context, res reservations.Reservation) error {
	start, err := time.ParseInLocation("2006-01-02 15:04", res.Date+" "+res.Time, c.loc)
	if err != nil {
		return fmt.Errorf("reservation datetime: %w", err)
	}
	end := start.Add(time.Hour)

	event := &calendar.Event{
		Summary: fmt.Sprintf("Reservation for %s", res.Name),
		Description: fmt.Sprintf("Phone: %s, Email: %s, People: %d\nNotes: %s",
			res.Phone, res.Email, res.PartySize, res.Notes),
		Start: &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: c.tzName},
		End:   &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: c.tzName},
	}
	_, err = c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("calendar insert: %w", err)
	}
	return nil
}

// Disabled is the no-op syncer used when calendar credentials are not
// configured (and in tests).
type Disabled struct{}

func (Disabled) Insert(context.Context, reservations.Reservation) error { return nil }
