// Package sender запускает обработчик очереди писем с напоминаниями.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subtrack/internal/app/dispatch"
	"github.com/magabrotheeeer/subtrack/internal/config"
	"github.com/magabrotheeeer/subtrack/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subtrack/internal/lib/sl"
	"github.com/magabrotheeeer/subtrack/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/subtrack/internal/services/sender"
)

// App читает письма из очереди и отправляет их по SMTP.
type App struct {
	conn        *amqp.Connection
	ch          *amqp.Channel
	queue       string
	concurrency int
	mailer      *senderservice.SMTPMailer
	logger      *slog.Logger
}

// New подключается к RabbitMQ и объявляет очередь писем.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "sender.New"

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, dispatch.Topology(cfg))
	if err != nil {
		if cerr := conn.Close(); cerr != nil {
			logger.Error("failed to close connection", sl.Err(cerr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)

	return &App{
		conn:        conn,
		ch:          ch,
		queue:       cfg.RabbitMQ.Queue,
		concurrency: cfg.RabbitMQ.Concurrency,
		mailer:      senderservice.NewSMTPMailer(transport, cfg.Reminder.From, logger),
		logger:      logger,
	}, nil
}

// Run обрабатывает очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumeMessages(ctx, a.logger, a.ch, a.queue, a.concurrency, a.mailer.HandleQueued)
	if err != nil {
		a.logger.Error("reminder queue consumer failed", slog.String("queue", a.queue), sl.Err(err))
	}

	a.logger.Info("sender service shutting down gracefully")

	if cerr := a.ch.Close(); cerr != nil {
		a.logger.Error("failed to close channel", sl.Err(cerr))
	}
	if cerr := a.conn.Close(); cerr != nil {
		a.logger.Error("failed to close connection", sl.Err(cerr))
	}
	return err
}
