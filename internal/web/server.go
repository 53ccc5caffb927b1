package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/example/restovibe/internal/allowlist"
	"github.com/example/restovibe/internal/auth"
	"github.com/example/restovibe/internal/booking"
	"github.com/example/restovibe/internal/gcal"
	"github.com/example/restovibe/internal/mail"
	"github.com/example/restovibe/internal/menu"
	"github.com/example/restovibe/internal/reservations"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var fs embed.FS

// ReservationStore is the slice of the reservations repo the server needs.
type ReservationStore interface {
	Create(ctx context.Context, res reservations.Reservation) error
	ListByEmail(ctx context.Context, email string) ([]reservations.Reservation, error)
}

// AllowStore is the slice of the allow-list store the server needs.
type AllowStore interface {
	IsAllowed(ctx context.Context, email string) (bool, error)
	Get(ctx context.Context, email string) (allowlist.Entry, error)
	RequestAccess(ctx context.Context, email, name string) error
	Grant(ctx context.Context, email string) error
}

type Server struct {
	Log      *zap.Logger
	Sessions *auth.Sessions
	Tokens   *auth.Tokens
	Google   *auth.Google

	Allow        AllowStore
	Reservations ReservationStore
	Calendar     gcal.Syncer
	Mail         mail.Sender

	Rules booking.Rules

	BaseURL    string
	AdminEmail string

	// Requests per minute per client IP; 0 disables limiting.
	RatePerMin int
}

type tmplData struct {
	Title string
	Email string
	Flash string

	Items        []menu.Item
	Item         menu.Item
	Reservations []reservations.Reservation

	GoogleEnabled bool
	PartySizes    []int
	Today         string
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/{$}", s.handleHome)
	mux.HandleFunc("/menu", s.handleMenu)
	mux.HandleFunc("/menu/{slug}", s.handleMenuItem)
	mux.HandleFunc("/about", s.handleAbout)

	mux.HandleFunc("/auth/signin", s.handleSignin)
	mux.HandleFunc("/auth/magic", s.handleMagic)
	mux.HandleFunc("/auth/verify", s.handleVerify)
	mux.HandleFunc("/auth/verify-request", s.handleVerifyRequest)
	mux.HandleFunc("/auth/login", s.handleLogin)
	mux.HandleFunc("/auth/google", s.handleGoogle)
	mux.HandleFunc("/auth/google/callback", s.handleGoogleCallback)
	mux.HandleFunc("/auth/error", s.handleAuthError)
	mux.HandleFunc("/logout", s.handleLogout)

	mux.Handle("/reservations", s.Sessions.RequireAuth(http.HandlerFunc(s.handleReservationsPage)))
	mux.Handle("/reservations/create", s.Sessions.RequireAuth(http.HandlerFunc(s.handleReservationCreate)))
	mux.Handle("/profile", s.Sessions.RequireAuth(http.HandlerFunc(s.handleProfile)))

	mux.Handle("/api/availability", s.Sessions.RequireAuth(http.HandlerFunc(s.handleAvailability)))
	mux.Handle("/api/reservations", s.Sessions.RequireAuth(http.HandlerFunc(s.handleReservationAPI)))

	mux.HandleFunc("/admin/grant-access", s.handleGrantAccess)

	var h http.Handler = mux
	if s.RatePerMin > 0 {
		h = rateLimit(h, s.RatePerMin, s.Log)
	}
	return logRequests(h, s.Log)
}

func (s *Server) base(r *http.Request, title string) tmplData {
	email, _ := s.Sessions.Email(r)
	return tmplData{Title: title, Email: email}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, "templates/home.html", s.base(r, "RestoVibe"))
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	d := s.base(r, "Menu")
	d.Items = menu.Items()
	s.render(w, "templates/menu.html", d)
}

func (s *Server) handleMenuItem(w http.ResponseWriter, r *http.Request) {
	item, ok := menu.BySlug(r.PathValue("slug"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	d := s.base(r, item.Name)
	d.Item = item
	s.render(w, "templates/menu_item.html", d)
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.render(w, "templates/about.html", s.base(r, "About"))
}

func (s *Server) handleReservationsPage(w http.ResponseWriter, r *http.Request) {
	d := s.base(r, "Reservations")
	d.PartySizes = []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	d.Today = booking.Today().String()
	if v := r.URL.Query().Get("flash"); v != "" {
		d.Flash = v
	}
	s.render(w, "templates/reservations.html", d)
}

// handleReservationCreate is the no-script form path. It drives the same
// selection controller as the JSON API and re-renders with a flash on any
// rejection.
func (s *Server) handleReservationCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	in := reservationInput{
		Name:   r.FormValue("name"),
		Email:  r.FormValue("email"),
		Phone:  r.FormValue("phone"),
		People: r.FormValue("people"),
		Date:   r.FormValue("date"),
		Time:   r.FormValue("time"),
		Notes:  r.FormValue("notes"),
	}
	if _, err := s.placeReservation(r.Context(), in); err != nil {
		http.Redirect(w, r, "/reservations?flash="+template.URLQueryEscaper(err.Error()), http.StatusFound)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusFound)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	list, err := s.Reservations.ListByEmail(r.Context(), email)
	if err != nil {
		s.Log.Error("list reservations", zap.String("email", email), zap.Error(err))
		http.Error(w, "could not load reservations", http.StatusInternalServerError)
		return
	}
	d := s.base(r, "Profile")
	d.Reservations = list
	s.render(w, "templates/profile.html", d)
}

func (s *Server) render(w http.ResponseWriter, name string, data tmplData) {
	t, err := template.ParseFS(fs, "templates/base.html", name)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		s.Log.Error("render", zap.String("template", name), zap.Error(err))
	}
}

func parsePartySize(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return booking.NormalizePartySize(n)
}

func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv.ListenAndServe()
}
