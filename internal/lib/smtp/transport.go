package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"

	"github.com/magabrotheeeer/subtrack/internal/config"
	"github.com/magabrotheeeer/subtrack/internal/lib/sl"
)

// ErrNoStartTLS возвращается, если сервер не поддерживает STARTTLS, а настроена аутентификация.
var ErrNoStartTLS = errors.New("smtp server does not support STARTTLS")

// Transport реализует SMTP транспорт для отправки писем.
type Transport struct {
	cfg config.SMTP
	log *slog.Logger
}

// smtpClientWrapper обертка для *smtp.Client, реализующая интерфейс Client.
type smtpClientWrapper struct {
	client *smtp.Client
}

func (w *smtpClientWrapper) Mail(from string) error {
	return w.client.Mail(from)
}

func (w *smtpClientWrapper) Rcpt(to string) error {
	return w.client.Rcpt(to)
}

func (w *smtpClientWrapper) Data() (io.WriteCloser, error) {
	return w.client.Data()
}

func (w *smtpClientWrapper) Quit() error {
	return w.client.Quit()
}

func (w *smtpClientWrapper) Close() error {
	return w.client.Close()
}

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log}
}

// Connect устанавливает соединение с SMTP сервером.
// Без учётных данных допускается нешифрованный релей (например, локальный mailhog).
func (t *Transport) Connect(ctx context.Context) (Client, error) {
	const op = "smtp.Connect"
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		t.log.Error("failed to dial SMTP server", slog.String("addr", addr), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		t.log.Error("failed to create SMTP client", sl.Err(err))
		if closeErr := conn.Close(); closeErr != nil {
			t.log.Error("failed to close connection", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ok, _ := client.Extension("STARTTLS")
	if ok {
		tlsConfig := &tls.Config{
			ServerName: t.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err = client.StartTLS(tlsConfig); err != nil {
			t.log.Error("failed to start TLS", sl.Err(err))
			t.closeClient(client)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if t.cfg.User == "" {
		return &smtpClientWrapper{client: client}, nil
	}
	if !ok {
		t.log.Error("SMTP server does not support STARTTLS")
		t.closeClient(client)
		return nil, fmt.Errorf("%s: %w", op, ErrNoStartTLS)
	}

	auth := smtp.PlainAuth("", t.cfg.User, t.cfg.Password, t.cfg.Host)
	if err = client.Auth(auth); err != nil {
		t.log.Error("smtp auth failed", sl.Err(err))
		t.closeClient(client)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &smtpClientWrapper{client: client}, nil
}

func (t *Transport) closeClient(client *smtp.Client) {
	if closeErr := client.Close(); closeErr != nil {
		t.log.Error("failed to close client", sl.Err(closeErr))
	}
}
