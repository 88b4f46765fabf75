package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/erp/console/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "test-issuer",
	})
}

func TestNewJWTService(t *testing.T) {
	svc := newTestJWTService()

	assert.Equal(t, []byte("test-secret-key-at-least-32-chars"), svc.secret)
	assert.Equal(t, "test-issuer", svc.issuer)
}

func TestJWTService_GenerateToken(t *testing.T) {
	svc := newTestJWTService()

	t.Run("token expires after the session timeout", func(t *testing.T) {
		before := time.Now()
		token, err := svc.GenerateToken("admin", 30*time.Minute)
		require.NoError(t, err)

		assert.Equal(t, "Bearer", token.TokenType)
		assert.Len(t, strings.Split(token.AccessToken, "."), 3)
		assert.WithinDuration(t, before.Add(30*time.Minute), token.ExpiresAt, 2*time.Second)

		claims, err := svc.ValidateToken(token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username)
		assert.Equal(t, "admin", claims.Subject)
		assert.Equal(t, "test-issuer", claims.Issuer)
		assert.NotEmpty(t, claims.ID)
		assert.InDelta(t, (30 * time.Minute).Seconds(), claims.GetRemainingTTL().Seconds(), 2)
	})

	t.Run("rejects empty username", func(t *testing.T) {
		_, err := svc.GenerateToken("", time.Minute)
		assert.ErrorIs(t, err, ErrMissingUsername)
	})

	t.Run("rejects non-positive lifetime", func(t *testing.T) {
		_, err := svc.GenerateToken("admin", 0)
		assert.ErrorIs(t, err, ErrInvalidTTL)
	})
}

func TestJWTService_ValidateToken(t *testing.T) {
	svc := newTestJWTService()

	t.Run("expired token", func(t *testing.T) {
		issued := time.Now().Add(-2 * time.Hour)
		svc.now = func() time.Time { return issued }
		token, err := svc.GenerateToken("admin", time.Minute)
		svc.now = time.Now
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("token from the future", func(t *testing.T) {
		issued := time.Now().Add(time.Hour)
		svc.now = func() time.Time { return issued }
		token, err := svc.GenerateToken("admin", 2*time.Hour)
		svc.now = time.Now
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrTokenNotYetValid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-characters", Issuer: "test-issuer"})
		token, err := other.GenerateToken("admin", time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else"})
		token, err := other.GenerateToken("admin", time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm is rejected", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Username: "admin",
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_ZeroExpiry(t *testing.T) {
	c := &Claims{}
	assert.True(t, c.GetExpiresAtTime().IsZero())
	assert.Equal(t, time.Duration(0), c.GetRemainingTTL())
}
