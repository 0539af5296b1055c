// Package auth admits or refuses websocket connection attempts. A token
// proves who is knocking; the identity store decides what they look like
// and what they may do once inside.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMissing   = errors.New("auth: token missing")
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenMalformed = errors.New("auth: token malformed")
)

// TokenVerifier checks a raw access token and extracts the identity id
// it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type accessClaims struct {
	jwt.RegisteredClaims
}

// HS256Verifier validates platform-issued access tokens. Expiry is
// compared against Now so tests can pin the clock.
type HS256Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewHS256Verifier(secret, issuer string) *HS256Verifier {
	return &HS256Verifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

func (v *HS256Verifier) WithClock(now func() time.Time) *HS256Verifier {
	v.now = now
	return v
}

func (v *HS256Verifier) Verify(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrTokenMissing
	}

	var parsed accessClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", mapJWTError(err)
	}

	if v.issuer != "" && parsed.Issuer != v.issuer {
		return "", ErrTokenMalformed
	}
	if parsed.ExpiresAt == nil {
		return "", ErrTokenMalformed
	}
	if !parsed.ExpiresAt.Time.After(v.now()) {
		return "", ErrTokenExpired
	}
	if parsed.Subject == "" {
		return "", ErrTokenMalformed
	}
	return parsed.Subject, nil
}

// mapJWTError translates jwt library errors into the gate's taxonomy.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenMalformed
	default:
		return ErrTokenMalformed
	}
}
