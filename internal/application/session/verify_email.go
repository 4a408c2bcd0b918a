package session

import (
	"context"
	"strings"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
)

// VerifyEmailConfirm consumes a verification token and marks the account
// verified. The token is cleared in the same update: it runs exactly once.
func (s *Service) VerifyEmailConfirm(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrMissingField("token")
	}

	_, err := s.accounts.RedeemEmailVerificationToken(ctx, token)
	return err
}

// VerifyEmailRequest re-issues a verification token for an unverified
// account. Non-enumerating: unknown, inactive or already-verified emails all
// report acceptance.
func (s *Service) VerifyEmailRequest(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return domain.ErrMissingField("email")
	}

	a, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if !domain.Is(err, "account_not_found") {
			s.audit("verify_email.lookup_failed", map[string]string{"error_code": domain.Code(err)})
		}
		return nil
	}
	if !a.CanAuthenticate() || a.EmailVerified {
		return nil
	}

	if err := s.sendVerification(ctx, a); err != nil {
		s.audit("verify_email.send_failed", map[string]string{
			"account_id": a.ID,
			"error_code": domain.Code(err),
		})
	}
	return nil
}
