package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-test-secret-test-secret"

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestJWTService_IssueAndVerify(t *testing.T) {
	svc := NewJWTService(testSecret)

	token, expiresAt, err := svc.Issue("01J9Z8Q6M4", "jane@example.com", false)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), expiresAt, 2*time.Second)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "01J9Z8Q6M4", claims.UserID)
	assert.Equal(t, "01J9Z8Q6M4", claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)
}

func TestJWTService_RememberExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewJWTService(testSecret, WithClock(clock.Now))

	short, shortExp, err := svc.Issue("u1", "u1@example.com", false)
	require.NoError(t, err)
	long, longExp, err := svc.Issue("u1", "u1@example.com", true)
	require.NoError(t, err)

	assert.True(t, shortExp.Before(longExp))
	assert.Equal(t, clock.now.Add(7*24*time.Hour), shortExp)
	assert.Equal(t, clock.now.Add(30*24*time.Hour), longExp)

	_, err = svc.Verify(short)
	require.NoError(t, err)
	_, err = svc.Verify(long)
	require.NoError(t, err)

	clock.Advance(7*24*time.Hour + time.Minute)
	_, err = svc.Verify(short)
	assert.ErrorIs(t, err, ErrExpiredToken)
	_, err = svc.Verify(long)
	assert.NoError(t, err)

	clock.Advance(23 * 24 * time.Hour)
	_, err = svc.Verify(long)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_CustomTTLs(t *testing.T) {
	svc := NewJWTService(testSecret, WithTTLs(time.Hour, 2*time.Hour))

	assert.Equal(t, time.Hour, svc.TTL(false))
	assert.Equal(t, 2*time.Hour, svc.TTL(true))
}

func TestJWTService_VerifyFailures(t *testing.T) {
	svc := NewJWTService(testSecret)

	otherKey, _, err := NewJWTService("another-secret-another-secret-xx").Issue("u1", "u1@example.com", false)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:           "u1",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		expected error
	}{
		{"wrong signing key", otherKey, ErrInvalidToken},
		{"alg none", noneToken, ErrInvalidToken},
		{"missing expiry", noExpiry, ErrInvalidToken},
		{"missing subject", noSubject, ErrInvalidToken},
		{"empty", "", ErrMalformedToken},
		{"garbage", "definitely-not-a-token", ErrMalformedToken},
		{"bad segments", "not.a.jwt", ErrMalformedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.Verify(tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}
