package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("upstream-secret"))
	require.NoError(t, err)
	return token
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	token := signToken(t, jwt.MapClaims{
		"token_type": "access",
		"exp":        exp.Unix(),
		"user_id":    42,
	})

	claims, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, "42", claims.UserID)
	assert.True(t, exp.Equal(claims.ExpiresAt))
}

func TestInspect_ExpiredTokenStillReadable(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix(), "sub": "7"})

	claims, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.UserID)
	assert.True(t, claims.ExpiresAt.Before(time.Now()))
}

func TestInspect_Errors(t *testing.T) {
	_, err := Inspect("opaque-refresh-token")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = Inspect("a.b.c")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = Inspect(signToken(t, jwt.MapClaims{"user_id": 1}))
	assert.ErrorIs(t, err, ErrNoExpiry)
}

func TestSessionDeadline(t *testing.T) {
	now := time.Now()

	shortRefresh := signToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
	assert.WithinDuration(t, now.Add(time.Hour), SessionDeadline(shortRefresh, now, 12*time.Hour), time.Second)

	longRefresh := signToken(t, jwt.MapClaims{"exp": now.Add(48 * time.Hour).Unix()})
	assert.Equal(t, now.Add(12*time.Hour), SessionDeadline(longRefresh, now, 12*time.Hour))

	assert.Equal(t, now.Add(time.Hour), SessionDeadline("not-a-jwt", now, time.Hour))
}
