// Package memory provides in-process implementations of the session ports,
// used in development mode and by the HTTP-level tests. Semantics mirror the
// Postgres store, including the conditional token updates.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/application/session"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
)

type AccountStore struct {
	mu      sync.Mutex
	byID    map[string]domain.Account
	byEmail map[string]string // normalized email -> id
	now     func() time.Time
}

var _ session.AccountStore = (*AccountStore)(nil)

func NewAccountStore() *AccountStore {
	return &AccountStore{
		byID:    make(map[string]domain.Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountStore) FindByEmail(_ context.Context, email string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return s.byID[id], nil
}

func (s *AccountStore) FindByID(_ context.Context, id string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return a, nil
}

func (s *AccountStore) Create(_ context.Context, a domain.Account) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.Email = normalizeEmail(a.Email)
	if _, exists := s.byEmail[a.Email]; exists {
		return domain.Account{}, domain.ErrEmailAlreadyExists()
	}
	if a.Role == "" {
		a.Role = "user"
	}
	if a.Status == "" {
		a.Status = domain.StatusActive
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	s.byID[a.ID] = a
	s.byEmail[a.Email] = a.ID
	return a, nil
}

func (s *AccountStore) SetRefreshToken(_ context.Context, accountID, token string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[accountID]
	if !ok {
		return domain.ErrAccountNotFound()
	}
	a.RefreshToken = token
	a.RefreshTokenExpiry = expiry
	s.byID[accountID] = a
	return nil
}

func (s *AccountStore) RotateRefreshToken(_ context.Context, accountID, oldToken, newToken string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[accountID]
	if !ok {
		return domain.ErrTokenInvalidOrExpired()
	}
	if a.RefreshToken == "" || a.RefreshToken != oldToken || !a.RefreshTokenExpiry.After(s.now()) {
		return domain.ErrTokenInvalidOrExpired()
	}
	a.RefreshToken = newToken
	a.RefreshTokenExpiry = expiry
	s.byID[accountID] = a
	return nil
}

func (s *AccountStore) ClearRefreshToken(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[accountID]
	if !ok {
		return nil
	}
	a.RefreshToken = ""
	a.RefreshTokenExpiry = time.Time{}
	s.byID[accountID] = a
	return nil
}

func (s *AccountStore) ClearRefreshTokenByValue(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, a := range s.byID {
		if a.RefreshToken == token {
			a.RefreshToken = ""
			a.RefreshTokenExpiry = time.Time{}
			s.byID[id] = a
			return nil
		}
	}
	return nil
}

func (s *AccountStore) UpdatePasswordHash(_ context.Context, accountID, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[accountID]
	if !ok {
		return domain.ErrAccountNotFound()
	}
	a.PasswordHash = newHash
	a.RefreshToken = ""
	a.RefreshTokenExpiry = time.Time{}
	s.byID[accountID] = a
	return nil
}

func (s *AccountStore) SetPasswordResetToken(_ context.Context, accountID, token string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[accountID]
	if !ok {
		return domain.ErrAccountNotFound()
	}
	a.PasswordResetToken = token
	a.PasswordResetTokenExpiry = expiry
	s.byID[accountID] = a
	return nil
}

func (s *AccountStore) PeekPasswordResetToken(_ context.Context, token string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.findByResetToken(token)
	if !ok {
		return domain.Account{}, domain.ErrTokenInvalidOrExpired()
	}
	return a, nil
}

func (s *AccountStore) RedeemPasswordResetToken(_ context.Context, token, newHash string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.findByResetToken(token)
	if !ok {
		return domain.Account{}, domain.ErrTokenInvalidOrExpired()
	}
	a.PasswordHash = newHash
	a.PasswordResetToken = ""
	a.PasswordResetTokenExpiry = time.Time{}
	a.RefreshToken = ""
	a.RefreshTokenExpiry = time.Time{}
	s.byID[a.ID] = a
	return a, nil
}

func (s *AccountStore) SetEmailVerificationToken(_ context.Context, accountID, token string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[accountID]
	if !ok {
		return domain.ErrAccountNotFound()
	}
	a.EmailVerificationToken = token
	a.EmailVerificationTokenExpiry = expiry
	s.byID[accountID] = a
	return nil
}

func (s *AccountStore) RedeemEmailVerificationToken(_ context.Context, token string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		return domain.Account{}, domain.ErrTokenInvalidOrExpired()
	}
	for id, a := range s.byID {
		if a.EmailVerificationToken != token {
			continue
		}
		if !a.EmailVerificationTokenExpiry.After(s.now()) || a.Status != domain.StatusActive {
			return domain.Account{}, domain.ErrTokenInvalidOrExpired()
		}
		a.EmailVerified = true
		a.EmailVerificationToken = ""
		a.EmailVerificationTokenExpiry = time.Time{}
		s.byID[id] = a
		return a, nil
	}
	return domain.Account{}, domain.ErrTokenInvalidOrExpired()
}

// findByResetToken must be called with the lock held.
func (s *AccountStore) findByResetToken(token string) (domain.Account, bool) {
	if token == "" {
		return domain.Account{}, false
	}
	for _, a := range s.byID {
		if a.PasswordResetToken != token {
			continue
		}
		if !a.PasswordResetTokenExpiry.After(s.now()) || a.Status != domain.StatusActive {
			return domain.Account{}, false
		}
		return a, true
	}
	return domain.Account{}, false
}
