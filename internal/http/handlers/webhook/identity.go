// Package webhook реализует приём событий провайдера идентификации.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subtrack/internal/http/response"
	"github.com/magabrotheeeer/subtrack/internal/lib/secret"
	"github.com/magabrotheeeer/subtrack/internal/lib/sl"
	"github.com/magabrotheeeer/subtrack/internal/models"
)

// SignatureHeader задает заголовок с base64 HMAC-SHA256 подписью тела запроса.
const SignatureHeader = "X-Webhook-Signature"

const maxBodySize = 1 << 20

// Service описывает обработку события.
type Service interface {
	HandleEvent(ctx context.Context, event models.IdentityEvent) error
}

// Handler принимает подписанные события провайдера.
type Handler struct {
	log     *slog.Logger
	service Service
	key     string
}

// New создает новый Handler. Подпись проверяется общим секретом key.
func New(log *slog.Logger, service Service, key string) *Handler {
	return &Handler{
		log:     log,
		service: service,
		key:     key,
	}
}

// ServeHTTP godoc
// @Summary Событие провайдера идентификации
// @Description user.created и user.updated создают или обновляют пользователя, user.deleted удаляет его.
// @Tags Webhooks
// @Accept  json
// @Produce  json
// @Param X-Webhook-Signature header string true "base64 HMAC-SHA256 тела запроса"
// @Success 200 {object} response.Response "Событие обработано"
// @Failure 400 {object} response.ErrorResponse "Нет подписи, неверная подпись или некорректный JSON"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /webhooks/identity [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhook.identity"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		log.Warn("missing webhook signature")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing signature"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if !secret.VerifySignature(h.key, body, signature) {
		log.Warn("webhook verification failed")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var event models.IdentityEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to decode event", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.service.HandleEvent(r.Context(), event); err != nil {
		log.Error("failed to handle event", slog.String("type", event.Type), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process webhook"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"type": event.Type,
	}))
}
