package session

import (
	"context"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
)

// Refresh trades an expired access token + live refresh token for a new
// pair. The access token only needs a valid signature (its expiry is
// ignored): it identifies which account is refreshing. The refresh token is
// compared and swapped against the stored value in one atomic step, so a
// token can be rotated at most once — a leaked, already-rotated value is
// dead.
func (s *Service) Refresh(ctx context.Context, accessToken, refreshToken string) (AuthTokens, error) {
	if accessToken == "" || refreshToken == "" {
		return AuthTokens{}, domain.ErrTokenInvalidOrExpired()
	}

	claims, err := s.signer.VerifyExpiredAccessToken(accessToken)
	if err != nil {
		return AuthTokens{}, domain.ErrTokenInvalidOrExpired()
	}

	a, err := s.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		if domain.Is(err, "account_not_found") {
			return AuthTokens{}, domain.ErrTokenInvalidOrExpired()
		}
		return AuthTokens{}, err
	}

	if !a.CanAuthenticate() {
		return AuthTokens{}, domain.ErrTokenInvalidOrExpired()
	}

	newRefresh, err := newOpaqueToken(32)
	if err != nil {
		return AuthTokens{}, domain.ErrRandomFailed(err)
	}

	// Atomic compare-and-swap: fails if the stored token differs (already
	// rotated or revoked) or its expiry has passed. Two concurrent calls
	// with the same old token cannot both win.
	if err := s.accounts.RotateRefreshToken(ctx, a.ID, refreshToken, newRefresh, s.now().Add(s.refreshTTL)); err != nil {
		if domain.Is(err, "token_invalid_or_expired") {
			s.audit("refresh.rotation_rejected", map[string]string{"account_id": a.ID})
			return AuthTokens{}, domain.ErrTokenInvalidOrExpired()
		}
		return AuthTokens{}, err
	}

	access, err := s.signer.SignAccessToken(a.ID, a.Role, s.accessTTL)
	if err != nil {
		return AuthTokens{}, domain.ErrTokenSignFailed(err)
	}

	return AuthTokens{
		AccessToken:  access,
		RefreshToken: newRefresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}
