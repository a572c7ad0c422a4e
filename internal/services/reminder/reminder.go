// Package reminder реализует рассылку напоминаний о ближайших продлениях подписок.
//
// Один проход (sweep) проверяет секрет запуска, загружает всех пользователей с подписками,
// отбирает подписки со списанием через 1–7 дней и отправляет каждому пользователю
// не больше одного письма. Ошибка отправки одному пользователю не прерывает проход.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subtrack/internal/lib/renewal"
	"github.com/magabrotheeeer/subtrack/internal/lib/secret"
	"github.com/magabrotheeeer/subtrack/internal/lib/sl"
	"github.com/magabrotheeeer/subtrack/internal/metrics"
	"github.com/magabrotheeeer/subtrack/internal/models"
)

var (
	// ErrUnauthorized возвращается, если секрет запуска не совпал. Ничего не загружается и не отправляется.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSweepFailed возвращается, если не удалось загрузить пользователей.
	ErrSweepFailed = errors.New("sweep failed")
)

// UserSource возвращает всех пользователей вместе с подписками.
type UserSource interface {
	FindAllUsersWithSubscriptions(ctx context.Context) ([]models.User, error)
}

// Mailer доставляет письмо.
type Mailer interface {
	Send(ctx context.Context, email models.Email) error
}

// Ledger хранит отметки об уже отправленных в этот день напоминаниях.
type Ledger interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Invalidate(ctx context.Context, key string) error
}

// Config настройки рассылки.
type Config struct {
	Secret          string
	Concurrency     int
	RatePerSecond   float64
	SummaryCurrency string
	DashboardURL    string
	DedupeTTL       time.Duration
}

// Due описывает подписку из окна напоминаний вместе с количеством дней до списания.
type Due struct {
	Subscription models.Subscription
	DaysUntil    int
}

// Service выполняет проходы рассылки.
type Service struct {
	cfg      Config
	users    UserSource
	mailer   Mailer
	composer *Composer
	ledger   Ledger
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// Option настраивает необязательные зависимости Service.
type Option func(*Service)

// WithLedger включает защиту от повторной отправки в течение одного дня.
func WithLedger(l Ledger) Option {
	return func(s *Service) { s.ledger = l }
}

// WithMetrics включает запись метрик.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New создает новый экземпляр Service.
func New(cfg Config, users UserSource, mailer Mailer, log *slog.Logger, opts ...Option) *Service {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 36 * time.Hour
	}
	s := &Service{
		cfg:      cfg,
		users:    users,
		mailer:   mailer,
		composer: NewComposer(cfg.SummaryCurrency, cfg.DashboardURL),
		log:      log,
	}
	if cfg.RatePerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run выполняет один проход рассылки на дату today.
//
// credential сверяется с настроенным секретом до любого обращения к хранилищу.
// Возвращает число писем, успешно переданных Mailer.
func (s *Service) Run(ctx context.Context, credential string, today time.Time) (models.SweepReport, error) {
	const op = "reminder.Run"

	if !secret.Match(s.cfg.Secret, credential) {
		s.log.Warn("sweep rejected: invalid credential", slog.String("op", op))
		s.observeSweep(metrics.SweepUnauthorized, time.Now())
		return models.SweepReport{}, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	report, err := s.Sweep(ctx, today)
	if err != nil {
		return report, fmt.Errorf("%s: %w", op, err)
	}
	return report, nil
}

// Sweep выполняет проход без проверки секрета. Используется планировщиком,
// который работает внутри доверенного процесса и не предъявляет секрет.
func (s *Service) Sweep(ctx context.Context, today time.Time) (models.SweepReport, error) {
	const op = "reminder.Sweep"
	log := s.log.With(slog.String("op", op), slog.String("date", today.Format(time.DateOnly)))
	start := time.Now()

	users, err := s.users.FindAllUsersWithSubscriptions(ctx)
	if err != nil {
		log.Error("failed to fetch users", sl.Err(err))
		s.observeSweep(metrics.SweepFailed, start)
		return models.SweepReport{}, fmt.Errorf("%s: %w: %w", op, ErrSweepFailed, err)
	}

	var (
		sent     atomic.Int64
		eligible int
		g        errgroup.Group
	)
	g.SetLimit(s.cfg.Concurrency)

	for _, user := range users {
		if user.Email == "" {
			continue
		}
		due := DueSubscriptions(user.Subscriptions, today)
		if len(due) == 0 {
			continue
		}
		eligible++

		g.Go(func() error {
			if s.remind(ctx, log, user, due, today) {
				sent.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	report := models.SweepReport{Success: true, EmailsSent: int(sent.Load())}
	s.observeSweep(metrics.SweepSucceeded, start)
	log.Info("sweep finished",
		slog.Int("users", len(users)),
		slog.Int("eligible", eligible),
		slog.Int("emails_sent", report.EmailsSent),
		slog.Duration("took", time.Since(start)))
	return report, nil
}

// DueSubscriptions возвращает подписки, списание по которым через 1–7 дней от today,
// в исходном порядке. В день списания напоминание не отправляется.
func DueSubscriptions(subs []models.Subscription, today time.Time) []Due {
	var due []Due
	for _, sub := range subs {
		days := renewal.DaysUntilRenewal(sub.NextBillingDate, today)
		if renewal.ReminderWindow.Contains(days) {
			due = append(due, Due{Subscription: sub, DaysUntil: days})
		}
	}
	return due
}

func (s *Service) remind(ctx context.Context, log *slog.Logger, user models.User, due []Due, today time.Time) bool {
	log = log.With(slog.String("user_id", user.ID))

	r, err := s.composer.Compose(user, due)
	if err != nil {
		log.Error("failed to compose reminder", sl.Err(err))
		s.countFailure(metrics.StageCompose)
		return false
	}
	email, err := s.composer.Render(r)
	if err != nil {
		log.Error("failed to render reminder", sl.Err(err))
		s.countFailure(metrics.StageCompose)
		return false
	}
	return s.dispatch(ctx, log, user, email, today)
}

func (s *Service) dispatch(ctx context.Context, log *slog.Logger, user models.User, email models.Email, today time.Time) bool {
	key := LedgerKey(user.ID, today)
	if s.ledger != nil {
		first, err := s.ledger.MarkOnce(ctx, key, s.cfg.DedupeTTL)
		switch {
		case err != nil:
			log.Warn("dedupe ledger unavailable, sending anyway", sl.Err(err))
		case !first:
			log.Info("reminder already sent today, skipping")
			if s.metrics != nil {
				s.metrics.EmailsDedupedTotal.Inc()
			}
			return false
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			log.Error("rate limiter wait failed", sl.Err(err))
			s.release(ctx, log, key)
			s.countFailure(metrics.StageDispatch)
			return false
		}
	}

	if err := s.mailer.Send(ctx, email); err != nil {
		log.Error("failed to send reminder", slog.String("to", email.To), sl.Err(err))
		s.release(ctx, log, key)
		s.countFailure(metrics.StageDispatch)
		return false
	}

	if s.metrics != nil {
		s.metrics.EmailsSentTotal.Inc()
	}
	log.Debug("reminder sent", slog.String("to", email.To), slog.String("subject", email.Subject))
	return true
}

func (s *Service) release(ctx context.Context, log *slog.Logger, key string) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Invalidate(ctx, key); err != nil {
		log.Warn("failed to release dedupe mark", slog.String("key", key), sl.Err(err))
	}
}

func (s *Service) countFailure(stage string) {
	if s.metrics != nil {
		s.metrics.EmailsFailedTotal.WithLabelValues(stage).Inc()
	}
}

func (s *Service) observeSweep(result string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.SweepsTotal.WithLabelValues(result).Inc()
	s.metrics.SweepDuration.Observe(time.Since(start).Seconds())
}

// LedgerKey возвращает ключ отметки об отправке напоминания пользователю в день today.
func LedgerKey(userID string, today time.Time) string {
	return "reminder:" + userID + ":" + today.Format(time.DateOnly)
}
