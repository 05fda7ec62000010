// Package auth reads the claims of tokens issued by the bonafide API.
//
// The portal never holds the API's signing key, so tokens are parsed without signature
// verification; the API verifies every token it receives. The claims are only used to size
// the portal session and to label logs.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT errors
var (
	ErrInvalidFormat = errors.New("invalid token format")
	ErrNoExpiry      = errors.New("token has no expiry claim")
)

// Claims is the subset of the API's token claims the portal reads
type Claims struct {
	UserID    string
	TokenType string
	ExpiresAt time.Time
}

var parser = jwt.NewParser()

// Inspect parses token without verifying its signature and returns its claims.
func Inspect(token string) (*Claims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, ErrInvalidFormat
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, mapClaims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if exp == nil {
		return nil, ErrNoExpiry
	}

	claims := &Claims{ExpiresAt: exp.Time}
	if v, ok := mapClaims["user_id"]; ok {
		claims.UserID = fmt.Sprint(v)
	} else if sub, err := mapClaims.GetSubject(); err == nil {
		claims.UserID = sub
	}
	if v, ok := mapClaims["token_type"].(string); ok {
		claims.TokenType = v
	}
	return claims, nil
}

// ExpiryOr returns the token's expiry, or fallback when it cannot be read.
func ExpiryOr(token string, fallback time.Time) time.Time {
	claims, err := Inspect(token)
	if err != nil {
		return fallback
	}
	return claims.ExpiresAt
}

// SessionDeadline bounds a session by both the configured TTL and the refresh token's expiry,
// since the session is useless once the refresh token has lapsed.
func SessionDeadline(refreshToken string, now time.Time, ttl time.Duration) time.Time {
	deadline := now.Add(ttl)
	if exp := ExpiryOr(refreshToken, deadline); exp.Before(deadline) {
		return exp
	}
	return deadline
}
