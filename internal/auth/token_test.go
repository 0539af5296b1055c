package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSecret = "test-secret"
	testNow    = time.Unix(1700000000, 0)
)

func mintToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func testVerifier() *HS256Verifier {
	return NewHS256Verifier(testSecret, "draftroom").WithClock(func() time.Time { return testNow })
}

func validClaims(sub string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    "draftroom",
		ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
	}
}

func TestVerifyValidToken(t *testing.T) {
	raw := mintToken(t, testSecret, validClaims("u1"))
	sub, err := testVerifier().Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)
}

func TestVerifyFailures(t *testing.T) {
	expired := validClaims("u1")
	expired.ExpiresAt = jwt.NewNumericDate(testNow.Add(-time.Minute))

	noExpiry := validClaims("u1")
	noExpiry.ExpiresAt = nil

	wrongIssuer := validClaims("u1")
	wrongIssuer.Issuer = "someone-else"

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrTokenMissing},
		{"whitespace", "   ", ErrTokenMissing},
		{"garbage", "not.a.token", ErrTokenMalformed},
		{"wrong signature", mintToken(t, "other-secret", validClaims("u1")), ErrTokenMalformed},
		{"expired", mintToken(t, testSecret, expired), ErrTokenExpired},
		{"no expiry", mintToken(t, testSecret, noExpiry), ErrTokenMalformed},
		{"no subject", mintToken(t, testSecret, validClaims("")), ErrTokenMalformed},
		{"wrong issuer", mintToken(t, testSecret, wrongIssuer), ErrTokenMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testVerifier().Verify(tt.raw)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerifyRejectsUnsignedAlg(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims("u1"))
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = testVerifier().Verify(raw)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}
