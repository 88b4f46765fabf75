package identity

import (
	"context"
	"testing"
	"time"

	"github.com/erp/console/internal/domain/settings"
	"github.com/erp/console/internal/infrastructure/auth"
	"github.com/erp/console/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type policyStub struct {
	s settings.Settings
}

func (p policyStub) Load(context.Context) (settings.Settings, error) {
	return p.s, nil
}

func newTestAuthService(t *testing.T, maxAttempts, sessionMinutes int) (*AuthService, *auth.JWTService) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)

	policy := settings.Defaults()
	policy.Security.MaxLoginAttempts = maxAttempts
	policy.Security.SessionTimeout = sessionMinutes

	jwtService := auth.NewJWTService(config.JWTConfig{Secret: "test-secret-key-for-console-tokens", Issuer: "erp-console"})
	svc := NewAuthService(
		config.AuthConfig{Enabled: true, Username: "admin", PasswordHash: string(hash), LockoutWindow: time.Minute},
		jwtService,
		auth.NewInMemoryAttemptTracker(),
		policyStub{s: policy},
		nil,
		zaptest.NewLogger(t),
	)
	return svc, jwtService
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a token that lives for the session timeout", func(t *testing.T) {
		svc, jwtService := newTestAuthService(t, 5, 45)

		res, err := svc.Login(ctx, LoginInput{Username: "admin", Password: "s3cret!"})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", res.TokenType)
		assert.Equal(t, int64(45*60), res.ExpiresIn)
		assert.WithinDuration(t, time.Now().Add(45*time.Minute), res.ExpiresAt, 5*time.Second)

		claims, err := jwtService.ValidateToken(res.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username)
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		svc, _ := newTestAuthService(t, 5, 30)

		_, err := svc.Login(ctx, LoginInput{Username: "admin", Password: "nope"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = svc.Login(ctx, LoginInput{Username: "root", Password: "s3cret!"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("locks after max attempts", func(t *testing.T) {
		svc, _ := newTestAuthService(t, 3, 30)

		for i := 0; i < 2; i++ {
			_, err := svc.Login(ctx, LoginInput{Username: "admin", Password: "bad"})
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}
		_, err := svc.Login(ctx, LoginInput{Username: "admin", Password: "bad"})
		assert.ErrorIs(t, err, ErrAccountLocked)

		// the right password is refused while locked
		_, err = svc.Login(ctx, LoginInput{Username: "admin", Password: "s3cret!"})
		assert.ErrorIs(t, err, ErrAccountLocked)
	})

	t.Run("success resets the failure count", func(t *testing.T) {
		svc, _ := newTestAuthService(t, 2, 30)

		_, err := svc.Login(ctx, LoginInput{Username: "admin", Password: "bad"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = svc.Login(ctx, LoginInput{Username: "admin", Password: "s3cret!"})
		require.NoError(t, err)
		_, err = svc.Login(ctx, LoginInput{Username: "admin", Password: "bad"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
