// Package rabbitmq publishes account-lifecycle notification events to a
// durable topic exchange. The email service consumes them and owns delivery
// and retries.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/application/session"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
)

const (
	DefaultExchange = "healthaid.events"

	routingKeyVerifyEmail   = "auth.email.verify.requested"
	routingKeyPasswordReset = "auth.password.reset.requested"

	// Minimum window to wait for Return / Confirm.
	publishWait = 2 * time.Second
)

type Publisher struct {
	url      string
	exchange string

	mu sync.Mutex

	conn *amqp.Connection
	ch   *amqp.Channel

	confirmCh <-chan amqp.Confirmation
	returnCh  <-chan amqp.Return
}

var _ session.NotificationPublisher = (*Publisher)(nil)

func NewPublisher(url string) (*Publisher, error) {
	p := &Publisher{
		url:      url,
		exchange: DefaultExchange,
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetConn()
	return nil
}

// ---- session.NotificationPublisher ----

type emailEventPayload struct {
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	IssuedAt  time.Time `json:"issued_at"`
}

func (p *Publisher) PublishVerificationEmail(ctx context.Context, evt session.VerificationEmailEvent) error {
	return p.publishJSON(ctx, routingKeyVerifyEmail, emailEventPayload{
		AccountID: evt.AccountID,
		Email:     evt.Email,
		Name:      evt.Name,
		URL:       evt.URL,
		IssuedAt:  time.Now().UTC(),
	})
}

func (p *Publisher) PublishPasswordResetEmail(ctx context.Context, evt session.PasswordResetEmailEvent) error {
	return p.publishJSON(ctx, routingKeyPasswordReset, emailEventPayload{
		AccountID: evt.AccountID,
		Email:     evt.Email,
		Name:      evt.Name,
		URL:       evt.URL,
		IssuedAt:  time.Now().UTC(),
	})
}

// ---- internal ----

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return domain.ErrBrokerUnavailable(fmt.Errorf("rabbitmq dial: %w", err))
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return domain.ErrBrokerUnavailable(fmt.Errorf("rabbitmq channel: %w", err))
	}

	// Declare topic exchange (idempotent).
	if err := ch.ExchangeDeclare(
		p.exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return domain.ErrBrokerUnavailable(fmt.Errorf("exchange declare: %w", err))
	}

	// Enable confirm mode.
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return domain.ErrBrokerUnavailable(fmt.Errorf("confirm mode: %w", err))
	}

	p.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	p.returnCh = ch.NotifyReturn(make(chan amqp.Return, 1))

	p.conn = conn
	p.ch = ch
	return nil
}

func (p *Publisher) ensureConnected() error {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil {
		return nil
	}
	return p.connect()
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.ErrBrokerUnavailable(fmt.Errorf("marshal payload: %w", err))
	}

	// Ensure there is a deadline to avoid blocking forever.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureConnected(); err != nil {
		return err
	}

	// Drain stale confirm / return messages from a previous publish.
drain:
	for {
		select {
		case <-p.confirmCh:
		case <-p.returnCh:
		default:
			break drain
		}
	}

	if err := p.ch.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	); err != nil {
		p.resetConn()
		return domain.ErrBrokerUnavailable(fmt.Errorf("publish %s: %w", routingKey, err))
	}

	// Wait for Return / Confirm / Timeout. With mandatory delivery the
	// Return frame arrives before the Ack when no queue is bound.
	select {
	case ret := <-p.returnCh:
		return domain.ErrBrokerUnavailable(fmt.Errorf(
			"rabbitmq unroutable: key=%s code=%d text=%s",
			routingKey, ret.ReplyCode, ret.ReplyText,
		))

	case conf := <-p.confirmCh:
		select {
		case ret := <-p.returnCh:
			return domain.ErrBrokerUnavailable(fmt.Errorf(
				"rabbitmq unroutable: key=%s code=%d text=%s",
				routingKey, ret.ReplyCode, ret.ReplyText,
			))
		default:
		}
		if !conf.Ack {
			return domain.ErrBrokerUnavailable(fmt.Errorf(
				"rabbitmq nack: key=%s deliveryTag=%d", routingKey, conf.DeliveryTag,
			))
		}
		return nil

	case <-time.After(publishWait):
		return domain.ErrBrokerUnavailable(fmt.Errorf("rabbitmq publish timeout: key=%s", routingKey))

	case <-ctx.Done():
		return domain.ErrBrokerUnavailable(ctx.Err())
	}
}

// resetConn must be called with the lock held.
func (p *Publisher) resetConn() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
