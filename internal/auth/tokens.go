package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// Token purposes. A magic token signs a guest in; a grant token lets the
// admin approve a pending address from an email link.
const (
	PurposeMagic = "magic"
	PurposeGrant = "grant"
)

const magicTokenTTL = 15 * time.Minute
const grantTokenTTL = 7 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

// Tokens issues and verifies the HMAC-signed single-purpose tokens used in
// magic-link and grant-access emails.
type Tokens struct {
	secret []byte
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret)}
}

func (t *Tokens) Issue(email, purpose string) (string, error) {
	ttl := magicTokenTTL
	if purpose == PurposeGrant {
		ttl = grantTokenTTL
	}
	claims := jwt.MapClaims{
		"sub": email,
		"pur": purpose,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify checks signature, expiry and purpose, returning the email the
// token was issued for.
func (t *Tokens) Verify(tokenString, purpose string) (string, error) {
	tok, err := jwt.Parse(tokenString, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if pur, _ := claims["pur"].(string); pur != purpose {
		return "", ErrInvalidToken
	}
	email, _ := claims["sub"].(string)
	if email == "" {
		return "", ErrInvalidToken
	}
	return email, nil
}
