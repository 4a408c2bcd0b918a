package memory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/application/session"
)

// LogPublisher stands in for the message broker when none is configured.
// Events are logged instead of published so local flows still complete.
type LogPublisher struct {
	log zerolog.Logger
}

var _ session.NotificationPublisher = (*LogPublisher)(nil)

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishVerificationEmail(_ context.Context, evt session.VerificationEmailEvent) error {
	p.log.Info().
		Str("event", "auth.email.verify.requested").
		Str("account_id", evt.AccountID).
		Str("email", evt.Email).
		Str("url", evt.URL).
		Msg("verification email event (broker disabled)")
	return nil
}

func (p *LogPublisher) PublishPasswordResetEmail(_ context.Context, evt session.PasswordResetEmailEvent) error {
	p.log.Info().
		Str("event", "auth.password.reset.requested").
		Str("account_id", evt.AccountID).
		Str("email", evt.Email).
		Str("url", evt.URL).
		Msg("password reset email event (broker disabled)")
	return nil
}
