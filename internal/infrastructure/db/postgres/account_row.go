package postgres

import (
	"database/sql"
	"time"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
)

// accountColumns is the canonical select list; every query that returns an
// account row uses it so scanAccountRow stays in sync.
const accountColumns = `id, email, name, password_hash, role, status, email_verified,
refresh_token, refresh_token_expiry,
email_verification_token, email_verification_token_expiry,
password_reset_token, password_reset_token_expiry,
created_at`

type accountRow struct {
	ID            string
	Email         string
	Name          string
	PasswordHash  string
	Role          string
	Status        string
	EmailVerified bool

	RefreshToken       sql.NullString
	RefreshTokenExpiry sql.NullTime

	EmailVerificationToken       sql.NullString
	EmailVerificationTokenExpiry sql.NullTime

	PasswordResetToken       sql.NullString
	PasswordResetTokenExpiry sql.NullTime

	CreatedAt time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccountRow(row rowScanner) (accountRow, error) {
	var ar accountRow
	err := row.Scan(
		&ar.ID,
		&ar.Email,
		&ar.Name,
		&ar.PasswordHash,
		&ar.Role,
		&ar.Status,
		&ar.EmailVerified,
		&ar.RefreshToken,
		&ar.RefreshTokenExpiry,
		&ar.EmailVerificationToken,
		&ar.EmailVerificationTokenExpiry,
		&ar.PasswordResetToken,
		&ar.PasswordResetTokenExpiry,
		&ar.CreatedAt,
	)
	return ar, err
}

func toDomainAccount(ar accountRow) domain.Account {
	a := domain.Account{
		ID:            ar.ID,
		Email:         ar.Email,
		Name:          ar.Name,
		PasswordHash:  ar.PasswordHash,
		Role:          ar.Role,
		Status:        domain.Status(ar.Status),
		EmailVerified: ar.EmailVerified,
		CreatedAt:     ar.CreatedAt,
	}
	if ar.RefreshToken.Valid {
		a.RefreshToken = ar.RefreshToken.String
	}
	if ar.RefreshTokenExpiry.Valid {
		a.RefreshTokenExpiry = ar.RefreshTokenExpiry.Time
	}
	if ar.EmailVerificationToken.Valid {
		a.EmailVerificationToken = ar.EmailVerificationToken.String
	}
	if ar.EmailVerificationTokenExpiry.Valid {
		a.EmailVerificationTokenExpiry = ar.EmailVerificationTokenExpiry.Time
	}
	if ar.PasswordResetToken.Valid {
		a.PasswordResetToken = ar.PasswordResetToken.String
	}
	if ar.PasswordResetTokenExpiry.Valid {
		a.PasswordResetTokenExpiry = ar.PasswordResetTokenExpiry.Time
	}
	return a
}
