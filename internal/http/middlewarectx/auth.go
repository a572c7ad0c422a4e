// Package middlewarectx содержит HTTP middleware для аутентификации запросов
// и передачи данных пользователя через контекст.
//
// JWTMiddleware проверяет токен провайдера идентификации в заголовке Authorization
// и кладёт в контекст данные пользователя. UserMiddleware по этим данным находит
// (или создаёт) пользователя в хранилище и кладёт в контекст его ID.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subtrack/internal/http/response"
	"github.com/magabrotheeeer/subtrack/internal/lib/jwt"
	"github.com/magabrotheeeer/subtrack/internal/lib/sl"
	"github.com/magabrotheeeer/subtrack/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// IdentityKey хранит данные пользователя из токена.
	IdentityKey Key = "identity"
	// UserID хранит ID пользователя в хранилище.
	UserID Key = "user_id"
)

// TokenParser описывает проверку токена доступа.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.Claims, error)
}

// UserResolver находит пользователя по данным из токена.
type UserResolver interface {
	ResolveUser(ctx context.Context, identity models.Identity) (*models.User, error)
}

// BearerToken извлекает токен из заголовка Authorization вида "Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

// IdentityFrom возвращает данные пользователя, положенные JWTMiddleware.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(models.Identity)
	return identity, ok && identity.ExternalID != ""
}

// UserIDFrom возвращает ID пользователя, положенный UserMiddleware.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserID).(string)
	return id, ok && id != ""
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден, добавляет данные пользователя в контекст запроса,
// иначе возвращает ошибку с HTTP статусом 401 Unauthorized.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr, ok := BearerToken(r)
			if !ok {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, claims.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserMiddleware находит пользователя по данным из токена и добавляет его ID в контекст.
func UserMiddleware(resolver UserResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.UserMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			identity, ok := IdentityFrom(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			user, err := resolver.ResolveUser(r.Context(), identity)
			if err != nil {
				log.Error("failed to resolve user", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			ctx := context.WithValue(r.Context(), UserID, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
