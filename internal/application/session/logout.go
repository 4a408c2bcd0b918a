package session

import "context"

// Logout clears the refresh credential for a known account id. Idempotent:
// logging out an account with no live session is a harmless no-op.
func (s *Service) Logout(ctx context.Context, accountID string) error {
	if accountID == "" {
		return nil
	}
	return s.accounts.ClearRefreshToken(ctx, accountID)
}

// Revoke clears a refresh credential by its value, for callers that only
// hold the token (device-initiated sign-out). Unknown or already-cleared
// values are a no-op, not an error.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.accounts.ClearRefreshTokenByValue(ctx, refreshToken)
}
