// Package dispatch собирает рассылку напоминаний из конфига: способ доставки писем
// (SMTP напрямую или очередь RabbitMQ) и необязательную защиту от повторов в Redis.
// Используется и API, и планировщиком.
package dispatch

import (
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subtrack/internal/config"
	"github.com/magabrotheeeer/subtrack/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subtrack/internal/lib/sl"
	"github.com/magabrotheeeer/subtrack/internal/lib/smtp"
	"github.com/magabrotheeeer/subtrack/internal/metrics"
	"github.com/magabrotheeeer/subtrack/internal/services/reminder"
	"github.com/magabrotheeeer/subtrack/internal/services/sender"
)

// NewMailer возвращает Mailer согласно reminder.dispatch и функцию освобождения ресурсов.
func NewMailer(cfg *config.Config, logger *slog.Logger) (reminder.Mailer, func(), error) {
	const op = "dispatch.NewMailer"

	switch cfg.Reminder.Dispatch {
	case config.DispatchQueue:
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		ch, err := rabbitmq.SetupChannel(conn, Topology(cfg))
		if err != nil {
			closeResources(nil, conn, logger)
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Info("reminders are dispatched through RabbitMQ", slog.String("exchange", cfg.RabbitMQ.Exchange))
		mailer := sender.NewQueueMailer(ch, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
		return mailer, func() { closeResources(ch, conn, logger) }, nil
	default:
		logger.Info("reminders are sent over SMTP", slog.String("host", cfg.SMTP.Host))
		transport := smtp.NewTransport(cfg.SMTP, logger)
		return sender.NewSMTPMailer(transport, cfg.Reminder.From, logger), func() {}, nil
	}
}

// Topology описывает очередь писем с напоминаниями.
func Topology(cfg *config.Config) rabbitmq.Topology {
	return rabbitmq.ReminderTopology(
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.Queue,
		cfg.RabbitMQ.RoutingKey,
		cfg.RabbitMQ.Concurrency,
	)
}

// ReminderConfig переносит настройки рассылки из конфига.
func ReminderConfig(cfg *config.Config) reminder.Config {
	return reminder.Config{
		Secret:          cfg.Reminder.CronSecret,
		Concurrency:     cfg.Reminder.Concurrency,
		RatePerSecond:   cfg.Reminder.RatePerSecond,
		SummaryCurrency: cfg.Reminder.SummaryCurrency,
		DashboardURL:    cfg.Reminder.DashboardURL,
		DedupeTTL:       cfg.Reminder.DedupeTTL,
	}
}

// NewReminderService собирает сервис рассылки. ledger подключается только при reminder.dedupe,
// m может быть nil.
func NewReminderService(
	cfg *config.Config,
	users reminder.UserSource,
	mailer reminder.Mailer,
	ledger reminder.Ledger,
	m *metrics.Metrics,
	logger *slog.Logger,
) *reminder.Service {
	var opts []reminder.Option
	if cfg.Reminder.Dedupe && ledger != nil {
		opts = append(opts, reminder.WithLedger(ledger))
	}
	if m != nil {
		opts = append(opts, reminder.WithMetrics(m))
	}
	return reminder.New(ReminderConfig(cfg), users, mailer, logger, opts...)
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}
