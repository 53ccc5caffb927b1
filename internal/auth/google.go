package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauthapi "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleProfile is what we keep from a completed Google sign-in.
type GoogleProfile struct {
	Email string
	Name  string
}

// Google wraps the OAuth code flow used for "Sign in with Google".
type Google struct {
	cfg *oauth2.Config
}

func NewGoogle(clientID, clientSecret, baseURL string) *Google {
	return &Google{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}}
}

func (g *Google) Enabled() bool {
	return g.cfg.ClientID != "" && g.cfg.ClientSecret != ""
}

func (g *Google) AuthURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the account's email and name.
func (g *Google) Exchange(ctx context.Context, code string) (GoogleProfile, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("oauth exchange: %w", err)
	}
	svc, err := oauthapi.NewService(ctx, option.WithTokenSource(g.cfg.TokenSource(ctx, tok)))
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("userinfo: %w", err)
	}
	if info.Email == "" {
		return GoogleProfile{}, fmt.Errorf("google account has no email")
	}
	return GoogleProfile{Email: info.Email, Name: info.Name}, nil
}
