package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/restovibe/internal/allowlist"
	"github.com/example/restovibe/internal/auth"
	"github.com/example/restovibe/internal/booking"
	"github.com/example/restovibe/internal/db"
	"github.com/example/restovibe/internal/gcal"
	"github.com/example/restovibe/internal/reservations"
	"go.uber.org/zap"
)

type fakeAllow struct {
	allowed map[string]allowlist.Entry
	pending map[string]string
	granted []string
}

func newFakeAllow() *fakeAllow {
	return &fakeAllow{allowed: map[string]allowlist.Entry{}, pending: map[string]string{}}
}

func (f *fakeAllow) IsAllowed(_ context.Context, email string) (bool, error) {
	_, ok := f.allowed[email]
	return ok, nil
}

func (f *fakeAllow) Get(_ context.Context, email string) (allowlist.Entry, error) {
	e, ok := f.allowed[email]
	if !ok {
		return allowlist.Entry{}, db.ErrNotFound
	}
	return e, nil
}

func (f *fakeAllow) RequestAccess(_ context.Context, email, name string) error {
	f.pending[email] = name
	return nil
}

func (f *fakeAllow) Grant(_ context.Context, email string) error {
	f.granted = append(f.granted, email)
	f.allowed[email] = allowlist.Entry{Email: email}
	delete(f.pending, email)
	return nil
}

type fakeReservations struct {
	created []reservations.Reservation
	byEmail map[string][]reservations.Reservation
}

func (f *fakeReservations) Create(_ context.Context, res reservations.Reservation) error {
	f.created = append(f.created, res)
	return nil
}

func (f *fakeReservations) ListByEmail(_ context.Context, email string) ([]reservations.Reservation, error) {
	return f.byEmail[email], nil
}

type fakeMail struct {
	sent []struct{ To, Subject, Body string }
}

func (f *fakeMail) Send(to, subject, body string) error {
	f.sent = append(f.sent, struct{ To, Subject, Body string }{to, subject, body})
	return nil
}

type fixture struct {
	srv   *Server
	h     http.Handler
	allow *fakeAllow
	repo  *fakeReservations
	mail  *fakeMail
}

func newFixture(t *testing.T, rules booking.Rules) *fixture {
	t.Helper()
	allow := newFakeAllow()
	repo := &fakeReservations{byEmail: map[string][]reservations.Reservation{}}
	m := &fakeMail{}
	srv := &Server{
		Log:          zap.NewNop(),
		Sessions:     auth.NewSessions(make([]byte, 32), make([]byte, 32)),
		Tokens:       auth.NewTokens("test-secret"),
		Allow:        allow,
		Reservations: repo,
		Calendar:     gcal.Disabled{},
		Mail:         m,
		Rules:        rules,
		BaseURL:      "http://localhost:8080",
		AdminEmail:   "admin@restovibe.example",
	}
	return &fixture{srv: srv, h: srv.Routes(), allow: allow, repo: repo, mail: m}
}

// signedIn attaches a valid session cookie for the given email.
func (f *fixture) signedIn(t *testing.T, r *http.Request, email string) {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := f.srv.Sessions.Set(rec, r, email); err != nil {
		t.Fatalf("set session: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
}

// futureDate returns a date safely in the future on the given weekday.
func futureDate(t *testing.T, weekday time.Weekday) booking.CalendarDate {
	t.Helper()
	d := time.Now().AddDate(0, 0, 14)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, 1)
	}
	return booking.DateOf(d)
}

func TestAvailability_RequiresAuth(t *testing.T) {
	f := newFixture(t, booking.DefaultRules())
	r := httptest.NewRequest(http.MethodGet, "/api/availability?date=2099-01-04&party=2", nil)
	w := httptest.NewRecorder()
	f.h.ServeHTTP(w, r)
	if w.Code != http.StatusFound {
		t.Fatalf("expected redirect to sign-in, got %d", w.Code)
	}
}

func TestAvailability_FullCatalog(t *testing.T) {
	f := newFixture(t, booking.DefaultRules())
	d := futureDate(t, time.Wednesday)

	r := httptest.NewRequest(http.MethodGet, "/api/availability?date="+d.String()+"&party=2", nil)
	f.signedIn(t, r, "ada@example.com")
	w := httptest.NewRecorder()
	f.h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Times []string `json:"times"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Times) != 9 || resp.Times[0] != "17:00" || resp.Times[8] != "21:00" {
		t.Fatalf("times = %v", resp.Times)
	}
}

func TestAvailability_RejectsPastAndBlocked(t *testing.T) {
	rules := booking.DefaultRules()
	blocked := futureDate(t, time.Monday)
	rules.Block(blocked)
	f := newFixture(t, rules)

	for _, tc := range []struct {
		name string
		date string
		code string
	}{
		{"past", "2020-01-01", "past_date"},
		{"blocked", blocked.String(), "date_blocked"},
	} {
		r := httptest.NewRequest(http.MethodGet, "/api/availability?date="+tc.date+"&party=2", nil)
		f.signedIn(t, r, "ada@example.com")
		w := httptest.NewRecorder()
		f.h.ServeHTTP(w, r)
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: status %d", tc.name, w.Code)
		}
		var resp struct {
			Code string `json:"code"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Code != tc.code {
			t.Errorf("%s: code %q, want %q", tc.name, resp.Code, tc.code)
		}
	}
}

func TestReservationAPI_HappyPath(t *testing.T) {
	f := newFixture(t, booking.DefaultRules())
	d := futureDate(t, time.Wednesday)

	body := `{"name":"Ada Lovelace","email":"ada@example.com","phone":"+48 123","people":"4","date":"` + d.String() + `","time":"19:00","notes":"window"}`
	r := httptest.NewRequest(http.MethodPost, "/api/reservations", strings.NewReader(body))
	f.signedIn(t, r, "ada@example.com")
	w := httptest.NewRecorder()
	f.h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if len(f.repo.created) != 1 {
		t.Fatalf("created %d reservations", len(f.repo.created))
	}
	got := f.repo.created[0]
	if got.Date != d.String() || got.Time != "19:00" || got.PartySize != 4 || got.ID == "" {
		t.Fatalf("stored reservation: %+v", got)
	}
}

func TestReservationAPI_RejectsInvalidTime(t *testing.T) {
	f := newFixture(t, booking.DefaultRules())
	// Party of 7 loses 17:00 everywhere.
	d := futureDate(t, time.Tuesday)

	body := `{"name":"Ada","email":"a@b.c","phone":"1","people":"7","date":"` + d.String() + `","time":"17:00"}`
	r := httptest.NewRequest(http.MethodPost, "/api/reservations", strings.NewReader(body))
	f.signedIn(t, r, "ada@example.com")
	w := httptest.NewRecorder()
	f.h.ServeHTTP(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if len(f.repo.created) != 0 {
		t.Fatal("rejected reservation must not be stored")
	}
}

func TestReservationAPI_RejectsIncompleteDraft(t *testing.T) {
	f := newFixture(t, booking.DefaultRules())
	d := futureDate(t, time.Wednesday)

	// No phone.
	body := `{"name":"Ada","email":"a@b.c","people":"2","date":"` + d.String() + `","time":"18:00"}`
	r := httptest.NewRequest(http.MethodPost, "/api/reservations", strings.NewReader(body))
	f.signedIn(t, r, "ada@example.com")
	w := httptest.NewRecorder()
	f.h.ServeHTTP(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
}

func TestMagicLink_Flow(t *testing.T) {
	f := newFixture(t, booking.DefaultRules())
	f.allow.allowed["gabriel@example.com"] = allowlist.Entry{Email: "gabriel@example.com"}

	r := httptest.NewRequest(http.MethodPost, "/auth/magic", strings.NewReader("email=gabriel@example.com"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.h.ServeHTTP(w, r)

	if w.Code != http.StatusFound {
		t.Fatalf("status %d", w.Code)
	}
	if len(f.mail.sent) != 1 {
		t.Fatalf("sent %d mails", len(f.mail.sent))
	}
	body := f.mail.sent[0].Body
	i := strings.Index(body, "/auth/verify?token=")
	if i < 0 {
		t.Fatalf("no verify link in mail body: %q", body)
	}
	link := body[i:]
	if j := strings.IndexAny(link, "\n \t"); j >= 0 {
		link = link[:j]
	}

	// Following the link signs the guest in.
	r2 := httptest.NewRequest(http.MethodGet, link, nil)
	w2 := httptest.NewRecorder()
	f.h.ServeHTTP(w2, r2)
	if w2.Code != http.StatusFound || w2.Header().Get("Location") != "/reservations" {
		t.Fatalf("verify: status %d location %q", w2.Code, w2.Header().Get("Location"))
	}
	if len(w2.Result().Cookies()) == 0 {
		t.Fatal("verify must set a session cookie")
	}
}

func TestMagicLink_UnknownEmailSendsNothing(t *testing.T) {
	f := newFixture(t, booking.DefaultRules())

	r := httptest.NewRequest(http.MethodPost, "/auth/magic", strings.NewReader("email=stranger@example.com"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.h.ServeHTTP(w, r)

	// Same redirect as the allowed case, but no mail goes out.
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/auth/verify-request" {
		t.Fatalf("status %d location %q", w.Code, w.Header().Get("Location"))
	}
	if len(f.mail.sent) != 0 {
		t.Fatal("no mail may be sent for a non-allow-listed address")
	}
}

func TestDirectLogin(t *testing.T) {
	f := newFixture(t, booking.DefaultRules())
	hash, err := auth.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	f.allow.allowed["gabriel@example.com"] = allowlist.Entry{Email: "gabriel@example.com", PasswordBcrypt: hash}

	r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("email=gabriel@example.com&password=s3cret"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.h.ServeHTTP(w, r)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/reservations" {
		t.Fatalf("status %d location %q", w.Code, w.Header().Get("Location"))
	}

	r2 := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("email=gabriel@example.com&password=wrong"))
	r2.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w2 := httptest.NewRecorder()
	f.h.ServeHTTP(w2, r2)
	if loc := w2.Header().Get("Location"); !strings.HasPrefix(loc, "/auth/signin") {
		t.Fatalf("wrong password must bounce to sign-in, got %q", loc)
	}
}

func TestGrantAccess(t *testing.T) {
	f := newFixture(t, booking.DefaultRules())
	token, err := f.srv.Tokens.Issue("new@example.com", auth.PurposeGrant)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/admin/grant-access?email=new@example.com&token="+token, nil)
	w := httptest.NewRecorder()
	f.h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if len(f.allow.granted) != 1 || f.allow.granted[0] != "new@example.com" {
		t.Fatalf("granted = %v", f.allow.granted)
	}

	// A magic token must not work as a grant token.
	bad, _ := f.srv.Tokens.Issue("new@example.com", auth.PurposeMagic)
	r2 := httptest.NewRequest(http.MethodGet, "/admin/grant-access?email=new@example.com&token="+bad, nil)
	w2 := httptest.NewRecorder()
	f.h.ServeHTTP(w2, r2)
	if w2.Code != http.StatusUnauthorized {
		t.Fatalf("status %d", w2.Code)
	}
}

func TestPublicPages(t *testing.T) {
	f := newFixture(t, booking.DefaultRules())
	for _, path := range []string{"/", "/menu", "/menu/tiramisu", "/about", "/auth/signin", "/healthz"} {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		f.h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, w.Code)
		}
	}

	r := httptest.NewRequest(http.MethodGet, "/menu/not-a-dish", nil)
	w := httptest.NewRecorder()
	f.h.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown menu item: status %d", w.Code)
	}
}
