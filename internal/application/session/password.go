package session

import (
	"context"
	"strings"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
)

// PasswordChange changes the password for an authenticated account and ends
// the current session (the store clears the refresh credential in the same
// update).
func (s *Service) PasswordChange(ctx context.Context, accountID, currentPassword, newPassword string) error {
	if accountID == "" {
		return domain.ErrMissingField("account_id")
	}
	if currentPassword == "" || newPassword == "" {
		return domain.ErrMissingField("password")
	}
	if len(newPassword) < 8 {
		return domain.ErrWeakPassword("min length 8")
	}

	a, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(a.PasswordHash, currentPassword); err != nil {
		return domain.ErrInvalidCredentials()
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return domain.ErrHashFailed(err)
	}

	return s.accounts.UpdatePasswordHash(ctx, accountID, newHash)
}

// PasswordResetRequest issues a single-use reset token and hands the link to
// the email pipeline. Always reports acceptance: an unknown or inactive
// email produces the same outcome as a real one, and internal failures are
// only audited. The token write commits before the publish, so a failed
// send never rolls back an issued token.
func (s *Service) PasswordResetRequest(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil
	}

	a, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if !domain.Is(err, "account_not_found") {
			s.audit("password_reset.lookup_failed", map[string]string{"error_code": domain.Code(err)})
		}
		return nil
	}
	if !a.CanAuthenticate() {
		return nil
	}

	token, err := newOpaqueToken(32)
	if err != nil {
		s.audit("password_reset.token_failed", map[string]string{"account_id": a.ID})
		return nil
	}

	if err := s.accounts.SetPasswordResetToken(ctx, a.ID, token, s.now().Add(s.passwordResetTTL)); err != nil {
		s.audit("password_reset.save_failed", map[string]string{
			"account_id": a.ID,
			"error_code": domain.Code(err),
		})
		return nil
	}

	if err := s.notify.PublishPasswordResetEmail(ctx, PasswordResetEmailEvent{
		AccountID: a.ID,
		Email:     a.Email,
		Name:      a.Name,
		URL:       s.passwordResetBaseURL + token,
	}); err != nil {
		s.audit("password_reset.publish_failed", map[string]string{
			"account_id": a.ID,
			"error_code": domain.Code(err),
		})
	}
	return nil
}

// PasswordResetValidate checks whether a reset token is currently
// redeemable without consuming it (used by the reset-form page).
func (s *Service) PasswordResetValidate(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrMissingField("token")
	}
	_, err := s.accounts.PeekPasswordResetToken(ctx, token)
	return err
}

// PasswordResetConfirm consumes the token and installs the new password.
// Redemption clears the token and the refresh credential in one atomic
// update, so the token satisfies at most one request and any live session
// ends.
func (s *Service) PasswordResetConfirm(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.ErrMissingField("token")
	}
	if newPassword == "" {
		return domain.ErrMissingField("new_password")
	}
	if len(newPassword) < 8 {
		return domain.ErrWeakPassword("min length 8")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return domain.ErrHashFailed(err)
	}

	a, err := s.accounts.RedeemPasswordResetToken(ctx, token, hash)
	if err != nil {
		return err
	}

	s.audit("password_reset.confirmed", map[string]string{"account_id": a.ID})
	return nil
}
