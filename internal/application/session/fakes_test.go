package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
)

/*
Fakes for ports
*/

type fakeAccounts struct {
	mu sync.Mutex

	byID    map[string]domain.Account
	byEmail map[string]string // email -> id

	now func() time.Time

	// injected errors (if set, method returns error)
	findByEmailErr error
	findByIDErr    error
	createErr      error
	setRefreshErr  error
	setResetErr    error
	setVerifyErr   error
	updatePwdErr   error

	// call records
	clearedIDs    []string
	clearedValues []string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		byID:    map[string]domain.Account{},
		byEmail: map[string]string{},
		now:     time.Now,
	}
}

func (f *fakeAccounts) put(a domain.Account) {
	f.byID[a.ID] = a
	f.byEmail[a.Email] = a.ID
}

func (f *fakeAccounts) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findByEmailErr != nil {
		return domain.Account{}, f.findByEmailErr
	}
	id, ok := f.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return f.byID[id], nil
}

func (f *fakeAccounts) FindByID(ctx context.Context, id string) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findByIDErr != nil {
		return domain.Account{}, f.findByIDErr
	}
	a, ok := f.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return a, nil
}

func (f *fakeAccounts) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.Account{}, f.createErr
	}
	if _, exists := f.byEmail[a.Email]; exists {
		return domain.Account{}, domain.ErrEmailAlreadyExists()
	}
	f.put(a)
	return a, nil
}

func (f *fakeAccounts) SetRefreshToken(ctx context.Context, accountID, token string, expiry time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setRefreshErr != nil {
		return f.setRefreshErr
	}
	a, ok := f.byID[accountID]
	if !ok {
		return domain.ErrAccountNotFound()
	}
	a.RefreshToken = token
	a.RefreshTokenExpiry = expiry
	f.put(a)
	return nil
}

func (f *fakeAccounts) RotateRefreshToken(ctx context.Context, accountID, oldToken, newToken string, expiry time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.byID[accountID]
	if !ok || a.RefreshToken == "" || a.RefreshToken != oldToken || !a.RefreshTokenExpiry.After(f.now()) {
		return domain.ErrTokenInvalidOrExpired()
	}
	a.RefreshToken = newToken
	a.RefreshTokenExpiry = expiry
	f.put(a)
	return nil
}

func (f *fakeAccounts) ClearRefreshToken(ctx context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clearedIDs = append(f.clearedIDs, accountID)
	a, ok := f.byID[accountID]
	if !ok {
		return nil
	}
	a.RefreshToken = ""
	a.RefreshTokenExpiry = time.Time{}
	f.put(a)
	return nil
}

func (f *fakeAccounts) ClearRefreshTokenByValue(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clearedValues = append(f.clearedValues, token)
	for _, a := range f.byID {
		if a.RefreshToken == token {
			a.RefreshToken = ""
			a.RefreshTokenExpiry = time.Time{}
			f.put(a)
			return nil
		}
	}
	return nil
}

func (f *fakeAccounts) UpdatePasswordHash(ctx context.Context, accountID, newHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updatePwdErr != nil {
		return f.updatePwdErr
	}
	a, ok := f.byID[accountID]
	if !ok {
		return domain.ErrAccountNotFound()
	}
	a.PasswordHash = newHash
	a.RefreshToken = ""
	a.RefreshTokenExpiry = time.Time{}
	f.put(a)
	return nil
}

func (f *fakeAccounts) SetPasswordResetToken(ctx context.Context, accountID, token string, expiry time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setResetErr != nil {
		return f.setResetErr
	}
	a, ok := f.byID[accountID]
	if !ok {
		return domain.ErrAccountNotFound()
	}
	a.PasswordResetToken = token
	a.PasswordResetTokenExpiry = expiry
	f.put(a)
	return nil
}

func (f *fakeAccounts) PeekPasswordResetToken(ctx context.Context, token string) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.byID {
		if a.Status == domain.StatusActive && a.PasswordResetToken == token && a.PasswordResetTokenExpiry.After(f.now()) {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrTokenInvalidOrExpired()
}

func (f *fakeAccounts) RedeemPasswordResetToken(ctx context.Context, token, newHash string) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.byID {
		if a.Status == domain.StatusActive && a.PasswordResetToken != "" && a.PasswordResetToken == token && a.PasswordResetTokenExpiry.After(f.now()) {
			a.PasswordHash = newHash
			a.PasswordResetToken = ""
			a.PasswordResetTokenExpiry = time.Time{}
			a.RefreshToken = ""
			a.RefreshTokenExpiry = time.Time{}
			f.put(a)
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrTokenInvalidOrExpired()
}

func (f *fakeAccounts) SetEmailVerificationToken(ctx context.Context, accountID, token string, expiry time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setVerifyErr != nil {
		return f.setVerifyErr
	}
	a, ok := f.byID[accountID]
	if !ok {
		return domain.ErrAccountNotFound()
	}
	a.EmailVerificationToken = token
	a.EmailVerificationTokenExpiry = expiry
	f.put(a)
	return nil
}

func (f *fakeAccounts) RedeemEmailVerificationToken(ctx context.Context, token string) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.byID {
		if a.Status == domain.StatusActive && a.EmailVerificationToken != "" && a.EmailVerificationToken == token && a.EmailVerificationTokenExpiry.After(f.now()) {
			a.EmailVerified = true
			a.EmailVerificationToken = ""
			a.EmailVerificationTokenExpiry = time.Time{}
			f.put(a)
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrTokenInvalidOrExpired()
}

type fakeHasher struct {
	hashFn    func(pw string) (string, error)
	compareFn func(hash, pw string) error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashFn != nil {
		return h.hashFn(password)
	}
	return "hash:" + password, nil
}

func (h *fakeHasher) Compare(hash string, password string) error {
	if h.compareFn != nil {
		return h.compareFn(hash, password)
	}
	if hash == "hash:"+password {
		return nil
	}
	return errors.New("mismatch")
}

// fakeSigner produces invertible tokens so Refresh can recover the account.
type fakeSigner struct {
	signFn          func(accountID, role string, ttl time.Duration) (string, error)
	verifyExpiredFn func(token string) (TokenClaims, error)
}

func (s *fakeSigner) SignAccessToken(accountID string, role string, ttl time.Duration) (string, error) {
	if s.signFn != nil {
		return s.signFn(accountID, role, ttl)
	}
	return fmt.Sprintf("jwt:%s:%s", accountID, role), nil
}

func (s *fakeSigner) VerifyAccessToken(token string) (TokenClaims, error) {
	return s.parse(token)
}

func (s *fakeSigner) VerifyExpiredAccessToken(token string) (TokenClaims, error) {
	if s.verifyExpiredFn != nil {
		return s.verifyExpiredFn(token)
	}
	return s.parse(token)
}

func (s *fakeSigner) parse(token string) (TokenClaims, error) {
	parts := strings.SplitN(token, ":", 3)
	if len(parts) != 3 || parts[0] != "jwt" {
		return TokenClaims{}, errors.New("bad signature")
	}
	return TokenClaims{AccountID: parts[1], Role: parts[2]}, nil
}

type fakeNotify struct {
	mu sync.Mutex

	verifyErr error
	resetErr  error

	verifications []VerificationEmailEvent
	resets        []PasswordResetEmailEvent
}

func (n *fakeNotify) PublishVerificationEmail(ctx context.Context, evt VerificationEmailEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.verifyErr != nil {
		return n.verifyErr
	}
	n.verifications = append(n.verifications, evt)
	return nil
}

func (n *fakeNotify) PublishPasswordResetEmail(ctx context.Context, evt PasswordResetEmailEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.resetErr != nil {
		return n.resetErr
	}
	n.resets = append(n.resets, evt)
	return nil
}

/*
Shared helpers
*/

func newSvcForTest(t *testing.T) (*Service, *fakeAccounts, *fakeHasher, *fakeSigner, *fakeNotify) {
	t.Helper()

	accounts := newFakeAccounts()
	hasher := &fakeHasher{}
	signer := &fakeSigner{}
	notify := &fakeNotify{}

	svc := NewService(accounts, hasher, signer, notify, Config{
		AccessTTL:            15 * time.Minute,
		RefreshTTL:           7 * 24 * time.Hour,
		VerifyEmailBaseURL:   "https://app.test/verify-email?token=",
		PasswordResetBaseURL: "https://app.test/reset-password?token=",
	})
	return svc, accounts, hasher, signer, notify
}

func activeAccount(id, email, password string) domain.Account {
	return domain.Account{
		ID:           id,
		Email:        email,
		PasswordHash: "hash:" + password,
		Role:         "user",
		Status:       domain.StatusActive,
	}
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %q, got nil", code)
	}
	if got := domain.Code(err); got != code {
		t.Fatalf("expected code %q, got %q (%v)", code, got, err)
	}
}
