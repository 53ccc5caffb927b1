package web

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/example/restovibe/internal/auth"
	"github.com/example/restovibe/internal/db"
	"go.uber.org/zap"
)

const oauthStateCookie = "restovibe_oauth_state"

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	d := s.base(r, "Sign in")
	d.GoogleEnabled = s.Google != nil && s.Google.Enabled()
	if v := r.URL.Query().Get("flash"); v != "" {
		d.Flash = v
	}
	s.render(w, "templates/signin.html", d)
}

// handleMagic sends a sign-in link to allow-listed addresses. The response
// is identical either way so the form cannot be used to probe the list.
func (s *Server) handleMagic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_ = r.ParseForm()
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	if email == "" {
		http.Redirect(w, r, "/auth/signin?flash=Please+enter+your+email", http.StatusFound)
		return
	}

	allowed, err := s.Allow.IsAllowed(r.Context(), email)
	if err != nil {
		s.Log.Error("allow-list check", zap.Error(err))
		http.Error(w, "sign-in unavailable", http.StatusInternalServerError)
		return
	}
	if allowed {
		token, err := s.Tokens.Issue(email, auth.PurposeMagic)
		if err != nil {
			s.Log.Error("issue magic token", zap.Error(err))
			http.Error(w, "sign-in unavailable", http.StatusInternalServerError)
			return
		}
		link := fmt.Sprintf("%s/auth/verify?token=%s", s.BaseURL, token)
		body := fmt.Sprintf("Click this link to sign in to RestoVibe:\n\n%s\n\nIf you didn't request this email, you can safely ignore it.", link)
		if err := s.Mail.Send(email, "Sign in to RestoVibe", body); err != nil {
			s.Log.Error("send magic link", zap.String("email", email), zap.Error(err))
		}
	} else {
		s.Log.Info("unauthorized magic-link attempt", zap.String("email", email))
	}

	http.Redirect(w, r, "/auth/verify-request", http.StatusFound)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	email, err := s.Tokens.Verify(r.URL.Query().Get("token"), auth.PurposeMagic)
	if err != nil {
		http.Redirect(w, r, "/auth/error?error=Verification", http.StatusFound)
		return
	}
	// The grant could have been revoked after the link was sent.
	allowed, err := s.Allow.IsAllowed(r.Context(), email)
	if err != nil || !allowed {
		http.Redirect(w, r, "/auth/error?error=AccessDenied", http.StatusFound)
		return
	}
	if err := s.Sessions.Set(w, r, email); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/reservations", http.StatusFound)
}

func (s *Server) handleVerifyRequest(w http.ResponseWriter, r *http.Request) {
	s.render(w, "templates/verify_request.html", s.base(r, "Check your email"))
}

// handleLogin is the direct credential path for pre-approved addresses
// that carry a password.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_ = r.ParseForm()
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")

	entry, err := s.Allow.Get(r.Context(), email)
	if err != nil && !db.IsNotFound(err) {
		s.Log.Error("allow-list lookup", zap.Error(err))
		http.Error(w, "sign-in unavailable", http.StatusInternalServerError)
		return
	}
	if db.IsNotFound(err) || entry.PasswordBcrypt == "" || !auth.CheckPassword(entry.PasswordBcrypt, password) {
		http.Redirect(w, r, "/auth/signin?flash=Invalid+email+or+password", http.StatusFound)
		return
	}
	if err := s.Sessions.Set(w, r, email); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/reservations", http.StatusFound)
}

func (s *Server) handleGoogle(w http.ResponseWriter, r *http.Request) {
	if s.Google == nil || !s.Google.Enabled() {
		http.Redirect(w, r, "/auth/signin?flash=Google+sign-in+is+not+configured", http.StatusFound)
		return
	}
	state := randomState()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})
	http.Redirect(w, r, s.Google.AuthURL(state), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		http.Redirect(w, r, "/auth/error?error=OAuthState", http.StatusFound)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/auth", MaxAge: -1})

	profile, err := s.Google.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.Log.Warn("google exchange failed", zap.Error(err))
		http.Redirect(w, r, "/auth/error?error=OAuthCallback", http.StatusFound)
		return
	}

	email := strings.ToLower(profile.Email)
	allowed, err := s.Allow.IsAllowed(r.Context(), email)
	if err != nil {
		s.Log.Error("allow-list check", zap.Error(err))
		http.Error(w, "sign-in unavailable", http.StatusInternalServerError)
		return
	}
	if !allowed {
		// Record the request and ask the admin to approve it.
		if err := s.Allow.RequestAccess(r.Context(), email, profile.Name); err != nil {
			s.Log.Error("record pending request", zap.Error(err))
		} else {
			s.notifyAdmin(email, profile.Name)
		}
		http.Redirect(w, r, "/auth/error?error=PendingApproval", http.StatusFound)
		return
	}

	if err := s.Sessions.Set(w, r, email); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/reservations", http.StatusFound)
}

// notifyAdmin emails the admin a signed one-click grant link for a new
// Google sign-in that is not on the allow-list yet.
func (s *Server) notifyAdmin(email, name string) {
	if s.AdminEmail == "" {
		return
	}
	token, err := s.Tokens.Issue(email, auth.PurposeGrant)
	if err != nil {
		s.Log.Error("issue grant token", zap.Error(err))
		return
	}
	link := fmt.Sprintf("%s/admin/grant-access?email=%s&token=%s", s.BaseURL, email, token)
	body := fmt.Sprintf("New sign-in request:\n\n  %s (%s)\n\nGrant access:\n%s\n", email, name, link)
	if err := s.Mail.Send(s.AdminEmail, "RestoVibe access request: "+email, body); err != nil {
		s.Log.Error("notify admin", zap.String("email", email), zap.Error(err))
	}
}

func (s *Server) handleAuthError(w http.ResponseWriter, r *http.Request) {
	d := s.base(r, "Sign-in problem")
	switch r.URL.Query().Get("error") {
	case "PendingApproval":
		d.Flash = "Your request was sent to the restaurant. You'll be able to sign in once it is approved."
	case "AccessDenied":
		d.Flash = "This email is not approved for reservations."
	case "Verification":
		d.Flash = "That sign-in link is invalid or has expired. Request a new one."
	default:
		d.Flash = "Something went wrong during sign-in. Please try again."
	}
	s.render(w, "templates/auth_error.html", d)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleGrantAccess approves a pending address from the emailed admin link.
func (s *Server) handleGrantAccess(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	if email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}
	granted, err := s.Tokens.Verify(r.URL.Query().Get("token"), auth.PurposeGrant)
	if err != nil || granted != email {
		http.Error(w, "invalid or expired access token", http.StatusUnauthorized)
		return
	}
	if err := s.Allow.Grant(r.Context(), email); err != nil {
		s.Log.Error("grant access", zap.String("email", email), zap.Error(err))
		http.Error(w, "grant failed", http.StatusInternalServerError)
		return
	}
	s.Log.Info("access granted", zap.String("email", email))
	d := s.base(r, "Access granted")
	d.Flash = email + " has been added to the allowed list. They can now sign in."
	s.render(w, "templates/granted.html", d)
}

func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
