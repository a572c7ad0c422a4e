// Package sender доставляет письма-напоминания: напрямую по SMTP или через очередь RabbitMQ.
package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subtrack/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subtrack/internal/lib/sl"
	"github.com/magabrotheeeer/subtrack/internal/lib/smtp"
	"github.com/magabrotheeeer/subtrack/internal/models"
)

// ErrNoRecipient возвращается для письма без адреса получателя.
var ErrNoRecipient = errors.New("email has no recipient")

// SMTPMailer отправляет письма через SMTP транспорт.
type SMTPMailer struct {
	transport smtp.TransportInterface
	from      string
	log       *slog.Logger
	now       func() time.Time
}

// NewSMTPMailer создает новый экземпляр SMTPMailer.
func NewSMTPMailer(transport smtp.TransportInterface, from string, log *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		transport: transport,
		from:      from,
		log:       log,
		now:       time.Now,
	}
}

// Send доставляет одно письмо.
func (s *SMTPMailer) Send(ctx context.Context, email models.Email) error {
	const op = "sender.Send"
	if email.To == "" {
		return fmt.Errorf("%s: %w", op, ErrNoRecipient)
	}

	msg, err := smtp.BuildMessage(s.from, email, s.now())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	client, err := s.transport.Connect(ctx)
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		// после успешного Quit соединение уже закрыто, ошибка Close ожидаема
		_ = client.Close()
	}()

	if err := client.Mail(s.from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.from), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Rcpt(email.To); err != nil {
		s.log.Error("failed to set RCPT TO", slog.String("recipient", email.To), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = wc.Write(msg); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("email sent successfully", slog.String("to", email.To))
	return nil
}

// HandleQueued разбирает письмо из очереди и доставляет его по SMTP.
// Подходит как rabbitmq.Handler: неразборчивое письмо или письмо без получателя
// отклоняется через rabbitmq.ErrReject, ошибка доставки возвращает его в очередь.
func (s *SMTPMailer) HandleQueued(ctx context.Context, body []byte) error {
	const op = "sender.HandleQueued"
	var email models.Email
	if err := json.Unmarshal(body, &email); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrReject, err)
	}
	if email.To == "" {
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrReject, ErrNoRecipient)
	}
	if err := s.Send(ctx, email); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// QueueMailer публикует письма в RabbitMQ, доставкой занимается отдельный воркер.
type QueueMailer struct {
	ch         rabbitmq.Channel
	exchange   string
	routingKey string
}

// NewQueueMailer создает новый экземпляр QueueMailer.
func NewQueueMailer(ch rabbitmq.Channel, exchange, routingKey string) *QueueMailer {
	return &QueueMailer{ch: ch, exchange: exchange, routingKey: routingKey}
}

// Send публикует письмо в очередь.
func (q *QueueMailer) Send(ctx context.Context, email models.Email) error {
	const op = "sender.QueueMailer.Send"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if email.To == "" {
		return fmt.Errorf("%s: %w", op, ErrNoRecipient)
	}
	if err := rabbitmq.PublishMessage(q.ch, q.exchange, q.routingKey, email); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
