// Package scheduler запускает рассылку напоминаний по расписанию cron.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/subtrack/internal/app/dispatch"
	"github.com/magabrotheeeer/subtrack/internal/cache"
	"github.com/magabrotheeeer/subtrack/internal/config"
	"github.com/magabrotheeeer/subtrack/internal/lib/sl"
	"github.com/magabrotheeeer/subtrack/internal/models"
	"github.com/magabrotheeeer/subtrack/internal/services/reminder"
	"github.com/magabrotheeeer/subtrack/internal/storage/repository"
)

const (
	dbRetries    = 10
	dbRetryDelay = 3 * time.Second
)

// Runner выполняет один проход рассылки. Планировщик работает внутри доверенного процесса,
// поэтому секрет HTTP-триггера ему не нужен.
type Runner interface {
	Sweep(ctx context.Context, today time.Time) (models.SweepReport, error)
}

// App представляет приложение планировщика.
type App struct {
	runner   Runner
	schedule cron.Schedule
	spec     string
	logger   *slog.Logger
	now      func() time.Time
	closers  []func()
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	var err error
	for range dbRetries {
		if err = db.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dbRetryDelay):
		}
	}
	return fmt.Errorf("database not ready after retries: %w", err)
}

// New подключает хранилище, Redis (если включена защита от повторов) и способ доставки писем.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "scheduler.New"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	closers := []func(){func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close storage", sl.Err(err))
		}
	}}
	fail := func(err error) (*App, error) {
		closeAll(closers)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = waitForDB(ctx, db); err != nil {
		return fail(err)
	}

	var ledger reminder.Ledger
	if cfg.Reminder.Dedupe {
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			return fail(err)
		}
		ledger = cacheRedis
		closers = append(closers, func() {
			if err := cacheRedis.Close(); err != nil {
				logger.Error("failed to close cache", sl.Err(err))
			}
		})
	}

	mailer, closeMailer, err := dispatch.NewMailer(cfg, logger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeMailer)

	svc := dispatch.NewReminderService(cfg, db, mailer, ledger, nil, logger)
	app, err := newApp(svc, cfg.Reminder.Schedule, logger)
	if err != nil {
		return fail(err)
	}
	app.closers = closers
	return app, nil
}

func newApp(runner Runner, spec string, logger *slog.Logger) (*App, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return &App{
		runner:   runner,
		schedule: schedule,
		spec:     spec,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// RunOnce выполняет один проход рассылки и освобождает ресурсы.
func (a *App) RunOnce(ctx context.Context) error {
	defer closeAll(a.closers)
	return a.sweep(ctx)
}

// Run выполняет рассылку по расписанию до отмены ctx.
// Перед остановкой дожидается завершения начатого прохода.
func (a *App) Run(ctx context.Context) error {
	c := cron.New()
	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		_ = a.sweep(ctx)
	}))
	c.Schedule(a.schedule, job)

	c.Start()
	a.logger.Info("reminder scheduler started", slog.String("schedule", a.spec))

	<-ctx.Done()
	a.logger.Info("shutting down reminder scheduler")
	<-c.Stop().Done()

	closeAll(a.closers)
	return nil
}

func (a *App) sweep(ctx context.Context) error {
	const op = "scheduler.sweep"
	report, err := a.runner.Sweep(ctx, a.now())
	if err != nil {
		a.logger.Error("reminder sweep failed", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	a.logger.Info("reminder sweep completed", slog.String("op", op), slog.Int("emails_sent", report.EmailsSent))
	return nil
}

func closeAll(closers []func()) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}
