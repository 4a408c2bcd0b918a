package session

import (
	"context"
	"strings"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
)

// Login authenticates an account and issues a token pair.
// IMPORTANT: unknown email, wrong password and non-active status all fail
// with the same invalid_credentials code (avoid account enumeration).
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	if email == "" || password == "" {
		return LoginResult{}, domain.ErrInvalidCredentials()
	}

	a, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if domain.Is(err, "account_not_found") {
			return LoginResult{}, domain.ErrInvalidCredentials()
		}
		// store unreachable etc. stays an internal fault
		return LoginResult{}, err
	}

	if !a.CanAuthenticate() {
		// keep the real reason in the audit trail only
		s.audit("login.inactive_account", map[string]string{
			"account_id": a.ID,
			"status":     string(a.Status),
		})
		return LoginResult{}, domain.ErrInvalidCredentials()
	}

	if err := s.hasher.Compare(a.PasswordHash, password); err != nil {
		return LoginResult{}, domain.ErrInvalidCredentials()
	}

	toks, err := s.issueTokens(ctx, a)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Account: a, Tokens: toks}, nil
}
