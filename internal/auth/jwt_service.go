package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenTTL is the lifetime of a token issued without "remember me".
	DefaultTokenTTL = 7 * 24 * time.Hour
	// RememberTokenTTL is the lifetime of a token issued with "remember me".
	RememberTokenTTL = 30 * 24 * time.Hour
)

var (
	// ErrInvalidToken is returned for a bad signature, an unexpected
	// algorithm or missing identity claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token's expiry has passed.
	ErrExpiredToken = errors.New("token has expired")
	// ErrMalformedToken is returned when the input is not a structurally valid JWT.
	ErrMalformedToken = errors.New("malformed token")
)

// Claims represents JWT claims.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies HS256 bearer tokens. The secret and TTLs
// are fixed at construction.
type JWTService struct {
	secret      []byte
	ttl         time.Duration
	rememberTTL time.Duration
	now         func() time.Time
}

// Option configures a JWTService.
type Option func(*JWTService)

// WithTTLs overrides the default and "remember me" token lifetimes.
func WithTTLs(ttl, rememberTTL time.Duration) Option {
	return func(s *JWTService) {
		s.ttl = ttl
		s.rememberTTL = rememberTTL
	}
}

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(s *JWTService) {
		s.now = now
	}
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string, opts ...Option) *JWTService {
	s := &JWTService{
		secret:      []byte(secret),
		ttl:         DefaultTokenTTL,
		rememberTTL: RememberTokenTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the token lifetime selected by the remember flag.
func (s *JWTService) TTL(remember bool) time.Duration {
	if remember {
		return s.rememberTTL
	}
	return s.ttl
}

// Issue signs a token for the given identity and returns it with its expiry.
func (s *JWTService) Issue(userID, email string, remember bool) (string, time.Time, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL(remember))),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify validates signature and expiry and returns the claims.
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		default:
			return nil, ErrInvalidToken
		}
	}

	if !token.Valid || claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
