// Package auth issues and checks employee sessions.
//
// SESSION FLOW:
//  1. An employee signs up (with the signup secret) or logs in with email
//     and password
//  2. The server issues a signed session token and stores it in the
//     HttpOnly cookie "kudos_session"
//  3. Every request passes through LoadSession, which validates the cookie
//     and puts the employee ID in the request context
//  4. Page routes then redirect based on whether a session is present
//
// A session token is an HS256 JWT:
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Payload: {"iss":"kudos","sub":"<employee id>","iat":...,"exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, SESSION_SECRET)
//
// There is no server-side session table and no refresh: when the token
// expires the employee logs in again.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "kudos"

	// SessionLifetime is how long a session token (and its cookie) is valid.
	SessionLifetime = 7 * 24 * time.Hour
)

// ErrInvalidSession is returned by Validate for any token that must not be
// trusted: bad signature, wrong issuer, expired, or malformed.
var ErrInvalidSession = errors.New("auth: invalid session")

// TokenService signs and verifies session tokens with one HMAC secret.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenService returns a TokenService. The secret should be at least
// 32 bytes of random data in production:
//
//	SESSION_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), lifetime: SessionLifetime, now: time.Now}, nil
}

// Lifetime returns the validity period of issued tokens.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// Generate issues a session token for employeeID.
func (s *TokenService) Generate(employeeID string) (string, error) {
	if employeeID == "" {
		return "", errors.New("auth: empty employee id")
	}

	now := s.now()
	c := jwt.RegisteredClaims{
		Subject:   employeeID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session: %w", err)
	}
	return signed, nil
}

// Validate verifies tokenStr and returns the employee ID in its subject.
//
// jwt.WithValidMethods pins the algorithm to HS256, so a token with
// "alg":"none" or an RSA header is rejected before the key is used.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid || c.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidSession)
	}
	return c.Subject, nil
}
