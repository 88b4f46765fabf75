// Package identity authenticates the console operator.
package identity

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/erp/console/internal/domain/settings"
	"github.com/erp/console/internal/domain/shared"
	"github.com/erp/console/internal/infrastructure/auth"
	"github.com/erp/console/internal/infrastructure/config"
	"github.com/erp/console/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Login errors
var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	ErrAccountLocked      = shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed attempts. Please try again later")
)

// PolicySource provides the security settings that govern login
type PolicySource interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// LoginInput contains the login credentials
type LoginInput struct {
	Username string
	Password string
}

// LoginResult is returned after a successful login
type LoginResult struct {
	Username    string    `json:"username"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	ExpiresIn   int64     `json:"expires_in"` // seconds
}

// AuthService checks the configured operator credentials and issues
// session tokens. Failed attempts count towards a lockout.
type AuthService struct {
	cfg      config.AuthConfig
	jwt      *auth.JWTService
	attempts auth.AttemptTracker
	policy   PolicySource
	audit    *logger.Audit
	logger   *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	cfg config.AuthConfig,
	jwtService *auth.JWTService,
	attempts auth.AttemptTracker,
	policy PolicySource,
	audit *logger.Audit,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	if audit == nil {
		audit = logger.NewAudit(log)
	}
	return &AuthService{
		cfg:      cfg,
		jwt:      jwtService,
		attempts: attempts,
		policy:   policy,
		audit:    audit,
		logger:   log.Named("auth"),
	}
}

// Login authenticates the operator. After security.max_login_attempts
// failures within the lockout window every attempt is refused until the
// window elapses.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	policy, err := s.policy.Load(ctx)
	if err != nil {
		return nil, err
	}
	maxAttempts := int64(policy.Security.MaxLoginAttempts)

	failures, err := s.attempts.Failures(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if failures >= maxAttempts {
		s.logger.Warn("Login attempt for locked account", zap.String("username", input.Username))
		return nil, ErrAccountLocked
	}

	if !s.credentialsMatch(input) {
		n, err := s.attempts.RecordFailure(ctx, input.Username, s.cfg.LockoutWindow)
		if err != nil {
			return nil, err
		}
		s.audit.Record(ctx, "auth.login_failed",
			zap.String("username", input.Username),
			zap.Int64("failures", n))
		if n >= maxAttempts {
			s.logger.Warn("Account locked after failed logins",
				zap.String("username", input.Username),
				zap.Duration("window", s.cfg.LockoutWindow))
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.attempts.Reset(ctx, input.Username); err != nil {
		s.logger.Warn("Failed to reset login attempts", zap.String("username", input.Username), zap.Error(err))
	}

	ttl := time.Duration(policy.Security.SessionTimeout) * time.Minute
	token, err := s.jwt.GenerateToken(input.Username, ttl)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, "auth.login", zap.String("username", input.Username))
	return &LoginResult{
		Username:    input.Username,
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		ExpiresIn:   int64(ttl.Seconds()),
	}, nil
}

// credentialsMatch always runs the bcrypt comparison so an unknown
// username costs the same as a wrong password
func (s *AuthService) credentialsMatch(input LoginInput) bool {
	userOK := subtle.ConstantTimeCompare([]byte(input.Username), []byte(s.cfg.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(input.Password))
	return userOK && passErr == nil
}
