// Package api собирает HTTP API сервиса: маршруты, middleware и зависимости.
package api

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subtrack/internal/http/handlers/cron"
	dashboardhandler "github.com/magabrotheeeer/subtrack/internal/http/handlers/dashboard"
	"github.com/magabrotheeeer/subtrack/internal/http/handlers/health"
	"github.com/magabrotheeeer/subtrack/internal/http/handlers/meta"
	"github.com/magabrotheeeer/subtrack/internal/http/handlers/subscription/create"
	"github.com/magabrotheeeer/subtrack/internal/http/handlers/subscription/list"
	"github.com/magabrotheeeer/subtrack/internal/http/handlers/subscription/read"
	"github.com/magabrotheeeer/subtrack/internal/http/handlers/subscription/remove"
	"github.com/magabrotheeeer/subtrack/internal/http/handlers/subscription/update"
	"github.com/magabrotheeeer/subtrack/internal/http/handlers/webhook"
	"github.com/magabrotheeeer/subtrack/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subtrack/internal/metrics"
	"github.com/magabrotheeeer/subtrack/internal/services/dashboard"
	"github.com/magabrotheeeer/subtrack/internal/services/reminder"
	"github.com/magabrotheeeer/subtrack/internal/services/subscription"
	"github.com/magabrotheeeer/subtrack/internal/services/users"
)

// Services содержит зависимости обработчиков.
type Services struct {
	Subscriptions *subscription.Service
	Dashboard     *dashboard.Service
	Users         *users.Service
	Reminders     *reminder.Service
	Tokens        middlewarectx.TokenParser
	Storage       health.Pinger
	Metrics       *metrics.Metrics
}

// Options содержит настройки маршрутов.
type Options struct {
	WebhookSecret   string
	SummaryCurrency string
	RateLimit       rate.Limit
	RateBurst       int
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services, opts Options) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)
	if s.Metrics != nil {
		r.Use(s.Metrics.Middleware)
	}

	r.Get("/health", health.New(logger, s.Storage).ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		// Триггер внешнего cron, авторизация по секрету внутри сервиса
		cronHandler := cron.New(logger, s.Reminders)
		r.Get("/cron/reminders", cronHandler.ServeHTTP)
		r.Post("/cron/reminders", cronHandler.ServeHTTP)

		r.Post("/webhooks/identity", webhook.New(logger, s.Users, opts.WebhookSecret).ServeHTTP)

		r.Route("/v1", func(r chi.Router) {
			r.Get("/meta", meta.New().ServeHTTP)

			// Группа с JWT аутентификацией
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RateLimitMiddleware(rate.NewLimiter(opts.RateLimit, opts.RateBurst), logger))
				r.Use(middlewarectx.JWTMiddleware(s.Tokens, logger))
				r.Use(middlewarectx.UserMiddleware(s.Subscriptions, logger))

				r.Get("/dashboard", dashboardhandler.New(logger, s.Dashboard, opts.SummaryCurrency).ServeHTTP)
				r.Post("/subscriptions", create.New(logger, s.Subscriptions).ServeHTTP)
				r.Get("/subscriptions", list.New(logger, s.Subscriptions).ServeHTTP)
				r.Get("/subscriptions/{id}", read.New(logger, s.Subscriptions).ServeHTTP)
				r.Put("/subscriptions/{id}", update.New(logger, s.Subscriptions).ServeHTTP)
				r.Delete("/subscriptions/{id}", remove.New(logger, s.Subscriptions).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
