package session

import (
	"context"
	"time"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
)

/*
AccountStore
------------
Persistence port for accounts. Only describes WHAT the session flows need,
not HOW rows are stored.

Every token-consuming write (rotate, redeem) is a conditional update: the
implementation must compare the stored token (and its expiry) and mutate the
row in one atomic step. Two concurrent calls presenting the same credential
must never both succeed.
*/
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (domain.Account, error)
	FindByID(ctx context.Context, id string) (domain.Account, error)
	Create(ctx context.Context, a domain.Account) (domain.Account, error)

	// Refresh credential. SetRefreshToken overwrites unconditionally (login
	// and registration start a fresh session). RotateRefreshToken succeeds
	// only if the stored token equals oldToken and is unexpired.
	SetRefreshToken(ctx context.Context, accountID, token string, expiry time.Time) error
	RotateRefreshToken(ctx context.Context, accountID, oldToken, newToken string, expiry time.Time) error
	ClearRefreshToken(ctx context.Context, accountID string) error
	ClearRefreshTokenByValue(ctx context.Context, token string) error

	// Clears the refresh credential in the same statement: a password change
	// always ends the current session.
	UpdatePasswordHash(ctx context.Context, accountID, newHash string) error

	// Password reset token. Redeem consumes the token and installs the new
	// hash atomically; Peek checks redeemability without consuming.
	SetPasswordResetToken(ctx context.Context, accountID, token string, expiry time.Time) error
	PeekPasswordResetToken(ctx context.Context, token string) (domain.Account, error)
	RedeemPasswordResetToken(ctx context.Context, token, newHash string) (domain.Account, error)

	// Email verification token, single-use.
	SetEmailVerificationToken(ctx context.Context, accountID, token string, expiry time.Time) error
	RedeemEmailVerificationToken(ctx context.Context, token string) (domain.Account, error)
}

/*
PasswordHasher
--------------
Abstracts bcrypt / argon2.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

/*
TokenSigner
-----------
Issues and verifies access tokens (JWT).
VerifyExpiredAccessToken checks the signature but ignores expiry; it exists
only so Refresh can recover which account is refreshing from a stale access
token.
*/
type TokenClaims struct {
	AccountID string
	Role      string
	Exp       time.Time
}

type TokenSigner interface {
	SignAccessToken(accountID string, role string, ttl time.Duration) (string, error)
	VerifyAccessToken(token string) (TokenClaims, error)
	VerifyExpiredAccessToken(token string) (TokenClaims, error)
}

/*
NotificationPublisher
---------------------
Hands verification / reset links to the delivery pipeline (email service).
Delivery is best-effort and independently retried there; this service never
sends mail itself.
*/
type VerificationEmailEvent struct {
	AccountID string
	Email     string
	Name      string
	URL       string
}

type PasswordResetEmailEvent struct {
	AccountID string
	Email     string
	Name      string
	URL       string
}

type NotificationPublisher interface {
	PublishVerificationEmail(ctx context.Context, evt VerificationEmailEvent) error
	PublishPasswordResetEmail(ctx context.Context, evt PasswordResetEmailEvent) error
}
