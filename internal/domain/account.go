package domain

import "time"

// Status is the lifecycle state of an account. Only Active accounts may
// authenticate; suspension/deletion is driven by account management, not
// by this service.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusDeleted   Status = "deleted"
)

func IsValidStatus(s string) bool {
	return s == string(StatusActive) || s == string(StatusSuspended) || s == string(StatusDeleted)
}

// Account is a platform account as this service sees it. The three
// token/expiry pairs are owned exclusively by the session lifecycle flows;
// profile data beyond Name lives in other services.
//
// At most one refresh credential is live per account: issuing a new one
// overwrites the previous value.
type Account struct {
	ID            string
	Email         string
	Name          string
	PasswordHash  string
	Role          string
	Status        Status
	EmailVerified bool

	RefreshToken       string
	RefreshTokenExpiry time.Time

	EmailVerificationToken       string
	EmailVerificationTokenExpiry time.Time

	PasswordResetToken       string
	PasswordResetTokenExpiry time.Time

	CreatedAt time.Time
}

// CanAuthenticate reports whether the account is allowed to log in or
// refresh a session.
func (a Account) CanAuthenticate() bool {
	return a.Status == StatusActive
}
