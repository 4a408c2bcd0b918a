package session

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
)

// Register creates an active, unverified account, queues the verification
// email and auto-authenticates exactly like Login.
func (s *Service) Register(ctx context.Context, name, email, password string) (RegisterResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)

	if email == "" {
		return RegisterResult{}, domain.ErrMissingField("email")
	}
	if password == "" {
		return RegisterResult{}, domain.ErrMissingField("password")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return RegisterResult{}, domain.ErrHashFailed(err)
	}

	a := domain.Account{
		ID:            uuid.NewString(),
		Email:         email,
		Name:          name,
		PasswordHash:  hash,
		Role:          "user",
		Status:        domain.StatusActive,
		EmailVerified: false,
	}

	created, err := s.accounts.Create(ctx, a)
	if err != nil {
		return RegisterResult{}, err
	}

	if err := s.sendVerification(ctx, created); err != nil {
		// verification can be re-requested later; registration stands
		s.audit("register.verification_send_failed", map[string]string{
			"account_id": created.ID,
			"error_code": domain.Code(err),
		})
	}

	toks, err := s.issueTokens(ctx, created)
	if err != nil {
		return RegisterResult{}, err
	}

	return RegisterResult{Account: created, Tokens: toks}, nil
}

// sendVerification issues a fresh single-use verification token and hands
// the link to the email pipeline. The token is committed before the publish;
// a failed publish does not invalidate it.
func (s *Service) sendVerification(ctx context.Context, a domain.Account) error {
	token, err := newOpaqueToken(32)
	if err != nil {
		return domain.ErrRandomFailed(err)
	}

	if err := s.accounts.SetEmailVerificationToken(ctx, a.ID, token, s.now().Add(s.verifyEmailTTL)); err != nil {
		return err
	}

	return s.notify.PublishVerificationEmail(ctx, VerificationEmailEvent{
		AccountID: a.ID,
		Email:     a.Email,
		Name:      a.Name,
		URL:       s.verifyEmailBaseURL + token,
	})
}
