// Package cron реализует HTTP-триггер прохода рассылки напоминаний.
//
// Внешний планировщик вызывает GET или POST /api/cron/reminders с заголовком
// "Authorization: Bearer <secret>". Формат ответов совместим с внешними cron-сервисами:
// 401 с текстом "Unauthorized", 500 с {"success":false,"error":"Cron job failed"}
// и 200 с {"success":true,"emailsSent":N}.
package cron

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subtrack/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subtrack/internal/lib/sl"
	"github.com/magabrotheeeer/subtrack/internal/models"
	"github.com/magabrotheeeer/subtrack/internal/services/reminder"
)

// Service описывает запуск прохода рассылки.
type Service interface {
	Run(ctx context.Context, credential string, today time.Time) (models.SweepReport, error)
}

// FailureResponse описывает тело ответа при сбое прохода.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Handler запускает проход рассылки.
type Handler struct {
	log     *slog.Logger
	service Service
	now     func() time.Time
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		now:     time.Now,
	}
}

// ServeHTTP godoc
// @Summary Запустить рассылку напоминаний
// @Tags Cron
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.SweepReport "Отчёт о проходе"
// @Failure 401 {string} string "Unauthorized"
// @Failure 500 {object} FailureResponse "Cron job failed"
// @Router /cron/reminders [get]
// @Router /cron/reminders [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cron.reminders"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	credential, _ := middlewarectx.BearerToken(r)

	report, err := h.service.Run(r.Context(), credential, h.now())
	switch {
	case errors.Is(err, reminder.ErrUnauthorized):
		log.Warn("unauthorized sweep trigger")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	case err != nil:
		log.Error("sweep failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, FailureResponse{Success: false, Error: "Cron job failed"})
		return
	}

	log.Info("sweep finished", slog.Int("emails_sent", report.EmailsSent))
	render.JSON(w, r, report)
}
