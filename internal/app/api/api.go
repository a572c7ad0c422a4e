package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subtrack/internal/app/dispatch"
	"github.com/magabrotheeeer/subtrack/internal/cache"
	"github.com/magabrotheeeer/subtrack/internal/config"
	"github.com/magabrotheeeer/subtrack/internal/lib/jwt"
	"github.com/magabrotheeeer/subtrack/internal/lib/sl"
	"github.com/magabrotheeeer/subtrack/internal/metrics"
	"github.com/magabrotheeeer/subtrack/internal/migrations"
	"github.com/magabrotheeeer/subtrack/internal/services/dashboard"
	"github.com/magabrotheeeer/subtrack/internal/services/subscription"
	"github.com/magabrotheeeer/subtrack/internal/services/users"
	"github.com/magabrotheeeer/subtrack/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App представляет HTTP API сервиса.
type App struct {
	server      *http.Server
	logger      *slog.Logger
	db          *repository.Storage
	cache       *cache.Cache
	closeMailer func()
}

// New подключает хранилище, применяет миграции, подключает Redis и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "api.New"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		closeStorage(db, logger)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		closeStorage(db, logger)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	mailer, closeMailer, err := dispatch.NewMailer(cfg, logger)
	if err != nil {
		closeStorage(db, logger)
		closeCache(cacheRedis, logger)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	subscriptionService := subscription.New(db, cacheRedis, cfg.RedisConnection.CacheTTL, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Subscriptions: subscriptionService,
		Dashboard:     dashboard.New(subscriptionService, logger),
		Users:         users.New(db, logger),
		Reminders:     dispatch.NewReminderService(cfg, db, mailer, cacheRedis, m, logger),
		Tokens:        jwt.NewJWTMaker(cfg.Identity.JWTSecretKey, cfg.Identity.TokenTTL),
		Storage:       db,
		Metrics:       m,
	}, Options{
		WebhookSecret:   cfg.Identity.WebhookSecret,
		SummaryCurrency: cfg.Reminder.SummaryCurrency,
		RateLimit:       rate.Limit(cfg.HTTPServer.RateLimit),
		RateBurst:       cfg.HTTPServer.RateBurst,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server:      srv,
		logger:      logger,
		db:          db,
		cache:       cacheRedis,
		closeMailer: closeMailer,
	}, nil
}

// Run запускает HTTP сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	a.closeMailer()
	closeCache(a.cache, a.logger)
	closeStorage(a.db, a.logger)
	return err
}

func closeStorage(db *repository.Storage, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Error("failed to close storage", sl.Err(err))
	}
}

func closeCache(c *cache.Cache, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close cache", sl.Err(err))
	}
}
