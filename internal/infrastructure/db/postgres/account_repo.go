package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
)

// AccountRepo implements session.AccountStore on PostgreSQL.
//
// Token rotation and redemption are single conditional UPDATEs: the stored
// token and its expiry are part of the WHERE clause, so two requests racing
// on the same credential cannot both succeed.
type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ---------- lookups ----------

func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	email = normalizeEmail(email)
	if email == "" {
		return domain.Account{}, domain.ErrMissingField("email")
	}

	const q = `
SELECT ` + accountColumns + `
FROM accounts
WHERE email = $1
LIMIT 1;
`
	ar, err := scanAccountRow(r.db.QueryRowContext(ctx, q, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrAccountNotFound()
		}
		return domain.Account{}, domain.ErrDBUnavailable(err)
	}
	return toDomainAccount(ar), nil
}

func (r *AccountRepo) FindByID(ctx context.Context, id string) (domain.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Account{}, domain.ErrMissingField("id")
	}

	const q = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
LIMIT 1;
`
	ar, err := scanAccountRow(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrAccountNotFound()
		}
		return domain.Account{}, domain.ErrDBUnavailable(err)
	}
	return toDomainAccount(ar), nil
}

func (r *AccountRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	a.Email = normalizeEmail(a.Email)
	if a.ID == "" {
		return domain.Account{}, domain.ErrMissingField("id")
	}
	if a.Email == "" {
		return domain.Account{}, domain.ErrMissingField("email")
	}
	if a.PasswordHash == "" {
		return domain.Account{}, domain.ErrMissingField("password_hash")
	}
	if a.Role == "" {
		a.Role = "user"
	}
	if a.Status == "" {
		a.Status = domain.StatusActive
	}

	const q = `
INSERT INTO accounts (id, email, name, password_hash, role, status, email_verified)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + accountColumns + `;
`
	ar, err := scanAccountRow(r.db.QueryRowContext(ctx, q,
		a.ID, a.Email, a.Name, a.PasswordHash, a.Role, string(a.Status), a.EmailVerified,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Account{}, domain.ErrEmailAlreadyExists()
		}
		return domain.Account{}, domain.ErrDBUnavailable(err)
	}
	return toDomainAccount(ar), nil
}

// ---------- refresh credential ----------

func (r *AccountRepo) SetRefreshToken(ctx context.Context, accountID, token string, expiry time.Time) error {
	const q = `
UPDATE accounts
SET refresh_token = $2,
    refresh_token_expiry = $3
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, accountID, token, expiry)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAccountNotFound()
	}
	return nil
}

func (r *AccountRepo) RotateRefreshToken(ctx context.Context, accountID, oldToken, newToken string, expiry time.Time) error {
	// compare-and-swap: only the holder of the current, unexpired token wins
	const q = `
UPDATE accounts
SET refresh_token = $3,
    refresh_token_expiry = $4
WHERE id = $1
  AND refresh_token = $2
  AND refresh_token_expiry > NOW();
`
	res, err := r.db.ExecContext(ctx, q, accountID, oldToken, newToken, expiry)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTokenInvalidOrExpired()
	}
	return nil
}

func (r *AccountRepo) ClearRefreshToken(ctx context.Context, accountID string) error {
	const q = `
UPDATE accounts
SET refresh_token = NULL,
    refresh_token_expiry = NULL
WHERE id = $1;
`
	// zero rows is fine: revocation is idempotent
	if _, err := r.db.ExecContext(ctx, q, accountID); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

func (r *AccountRepo) ClearRefreshTokenByValue(ctx context.Context, token string) error {
	const q = `
UPDATE accounts
SET refresh_token = NULL,
    refresh_token_expiry = NULL
WHERE refresh_token = $1;
`
	if _, err := r.db.ExecContext(ctx, q, token); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

// ---------- password ----------

func (r *AccountRepo) UpdatePasswordHash(ctx context.Context, accountID, newHash string) error {
	if newHash == "" {
		return domain.ErrMissingField("password_hash")
	}

	// a password change always ends the current session
	const q = `
UPDATE accounts
SET password_hash = $2,
    refresh_token = NULL,
    refresh_token_expiry = NULL
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, accountID, newHash)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAccountNotFound()
	}
	return nil
}

// ---------- password reset token ----------

func (r *AccountRepo) SetPasswordResetToken(ctx context.Context, accountID, token string, expiry time.Time) error {
	const q = `
UPDATE accounts
SET password_reset_token = $2,
    password_reset_token_expiry = $3
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, accountID, token, expiry)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAccountNotFound()
	}
	return nil
}

func (r *AccountRepo) PeekPasswordResetToken(ctx context.Context, token string) (domain.Account, error) {
	const q = `
SELECT ` + accountColumns + `
FROM accounts
WHERE password_reset_token = $1
  AND password_reset_token_expiry > NOW()
  AND status = 'active'
LIMIT 1;
`
	ar, err := scanAccountRow(r.db.QueryRowContext(ctx, q, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrTokenInvalidOrExpired()
		}
		return domain.Account{}, domain.ErrDBUnavailable(err)
	}
	return toDomainAccount(ar), nil
}

func (r *AccountRepo) RedeemPasswordResetToken(ctx context.Context, token, newHash string) (domain.Account, error) {
	// single-use: the token is cleared in the same statement that checks it,
	// together with the refresh credential
	const q = `
UPDATE accounts
SET password_hash = $2,
    password_reset_token = NULL,
    password_reset_token_expiry = NULL,
    refresh_token = NULL,
    refresh_token_expiry = NULL
WHERE password_reset_token = $1
  AND password_reset_token_expiry > NOW()
  AND status = 'active'
RETURNING ` + accountColumns + `;
`
	ar, err := scanAccountRow(r.db.QueryRowContext(ctx, q, token, newHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrTokenInvalidOrExpired()
		}
		return domain.Account{}, domain.ErrDBUnavailable(err)
	}
	return toDomainAccount(ar), nil
}

// ---------- email verification token ----------

func (r *AccountRepo) SetEmailVerificationToken(ctx context.Context, accountID, token string, expiry time.Time) error {
	const q = `
UPDATE accounts
SET email_verification_token = $2,
    email_verification_token_expiry = $3
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, accountID, token, expiry)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAccountNotFound()
	}
	return nil
}

func (r *AccountRepo) RedeemEmailVerificationToken(ctx context.Context, token string) (domain.Account, error) {
	const q = `
UPDATE accounts
SET email_verified = TRUE,
    email_verification_token = NULL,
    email_verification_token_expiry = NULL
WHERE email_verification_token = $1
  AND email_verification_token_expiry > NOW()
  AND status = 'active'
RETURNING ` + accountColumns + `;
`
	ar, err := scanAccountRow(r.db.QueryRowContext(ctx, q, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrTokenInvalidOrExpired()
		}
		return domain.Account{}, domain.ErrDBUnavailable(err)
	}
	return toDomainAccount(ar), nil
}

// isUniqueViolation reports a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
