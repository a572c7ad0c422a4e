// Package dashboard реализует HTTP-обработчик сводки расходов пользователя.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subtrack/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subtrack/internal/http/response"
	"github.com/magabrotheeeer/subtrack/internal/lib/billing"
	"github.com/magabrotheeeer/subtrack/internal/lib/sl"
	"github.com/magabrotheeeer/subtrack/internal/models"
)

// Service описывает построение сводки.
type Service interface {
	Summary(ctx context.Context, userID string, today time.Time) (models.Summary, error)
}

// Summary содержит сводку вместе с отформатированными итогами.
type Summary struct {
	models.Summary
	MonthlyTotalFormatted string `json:"monthly_total_formatted"`
	YearlyTotalFormatted  string `json:"yearly_total_formatted"`
}

// Handler возвращает сводку текущего пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	currency string
	now      func() time.Time
}

// New создает новый Handler. Итоги форматируются в валюте currency.
func New(log *slog.Logger, service Service, currency string) *Handler {
	if currency == "" {
		currency = billing.DefaultCurrency
	}
	return &Handler{
		log:      log,
		service:  service,
		currency: currency,
		now:      time.Now,
	}
}

// ServeHTTP godoc
// @Summary Сводка расходов
// @Description Месячный и годовой итог, ближайшие продления (0–7 дней) и недавно добавленные подписки.
// @Tags Dashboard
// @Produce  json
// @Success 200 {object} response.Response "Сводка"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /dashboard [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	summary, err := h.service.Summary(r.Context(), userID, h.now())
	if err != nil {
		log.Error("failed to build summary", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build summary"))
		return
	}

	monthly, err := billing.FormatCurrency(summary.MonthlyTotal, h.currency)
	if err != nil {
		log.Error("failed to format total", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build summary"))
		return
	}
	yearly, err := billing.FormatCurrency(summary.YearlyTotal, h.currency)
	if err != nil {
		log.Error("failed to format total", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build summary"))
		return
	}

	render.JSON(w, r, response.OKWithData(Summary{
		Summary:               summary,
		MonthlyTotalFormatted: monthly,
		YearlyTotalFormatted:  yearly,
	}))
}
