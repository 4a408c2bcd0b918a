package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
)

// Service is the session lifecycle manager: login, registration, refresh
// rotation, password reset, email verification and revocation. It owns the
// token fields on the account row and nothing else.
type Service struct {
	accounts AccountStore
	hasher   PasswordHasher
	signer   TokenSigner
	notify   NotificationPublisher

	accessTTL  time.Duration
	refreshTTL time.Duration

	// URLs used to build links handed to the email pipeline
	verifyEmailBaseURL   string // e.g. https://frontend/verify-email?token=
	passwordResetBaseURL string // e.g. https://frontend/reset-password?token=
	verifyEmailTTL       time.Duration
	passwordResetTTL     time.Duration

	audit func(action string, fields map[string]string)
	now   func() time.Time
}

type Config struct {
	AccessTTL             time.Duration
	RefreshTTL            time.Duration
	VerifyEmailBaseURL    string
	PasswordResetBaseURL  string
	VerifyEmailTokenTTL   time.Duration
	PasswordResetTokenTTL time.Duration
}

func NewService(
	accounts AccountStore,
	hasher PasswordHasher,
	signer TokenSigner,
	notify NotificationPublisher,
	cfg Config,
) *Service {
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	verifyTTL := cfg.VerifyEmailTokenTTL
	if verifyTTL <= 0 {
		verifyTTL = 24 * time.Hour
	}
	resetTTL := cfg.PasswordResetTokenTTL
	if resetTTL <= 0 || resetTTL > time.Hour {
		// reset links stay short-lived
		resetTTL = 30 * time.Minute
	}
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		signer:   signer,
		notify:   notify,

		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,

		verifyEmailBaseURL:   cfg.VerifyEmailBaseURL,
		passwordResetBaseURL: cfg.PasswordResetBaseURL,
		verifyEmailTTL:       verifyTTL,
		passwordResetTTL:     resetTTL,

		audit: func(string, map[string]string) {},
		now:   time.Now,
	}
}

// WithAudit installs a hook for security-relevant events (failed publishes,
// rotation conflicts). Wired to the logger in bootstrap.
func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

// AuthTokens is the common token output for handlers/DTO mapping.
type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	TokenType    string // "Bearer"
	ExpiresIn    int64  // seconds
}

type RegisterResult struct {
	Account domain.Account
	Tokens  AuthTokens
}

type LoginResult struct {
	Account domain.Account
	Tokens  AuthTokens
}

// issueTokens mints an access token and installs a fresh refresh credential,
// overwriting whatever was live before (single active session per account).
func (s *Service) issueTokens(ctx context.Context, a domain.Account) (AuthTokens, error) {
	access, err := s.signer.SignAccessToken(a.ID, a.Role, s.accessTTL)
	if err != nil {
		return AuthTokens{}, domain.ErrTokenSignFailed(err)
	}

	refresh, err := newOpaqueToken(32)
	if err != nil {
		return AuthTokens{}, domain.ErrRandomFailed(err)
	}

	if err := s.accounts.SetRefreshToken(ctx, a.ID, refresh, s.now().Add(s.refreshTTL)); err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// newOpaqueToken returns a URL-safe opaque token with bytesLen bytes of
// entropy (32 bytes = 256 bits).
func newOpaqueToken(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		return "", errors.New("invalid token length")
	}
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
