// Package users синхронизирует пользователей с провайдером идентификации.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/subtrack/internal/models"
	"github.com/magabrotheeeer/subtrack/internal/storage/repository"
)

// ErrUnsupportedEvent возвращается для события без идентификатора пользователя.
var ErrUnsupportedEvent = errors.New("unsupported identity event")

// Repository определяет методы хранилища пользователей.
type Repository interface {
	UpsertUser(ctx context.Context, identity models.Identity) (*models.User, error)
	DeleteUserByExternalID(ctx context.Context, externalID string) error
}

// Service применяет события провайдера идентификации к хранилищу.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// HandleEvent создаёт или обновляет пользователя для user.created и user.updated
// и удаляет его для user.deleted. Удаление отсутствующего пользователя не считается ошибкой.
// Прочие типы событий игнорируются.
func (s *Service) HandleEvent(ctx context.Context, event models.IdentityEvent) error {
	const op = "users.HandleEvent"
	log := s.log.With(slog.String("op", op), slog.String("type", event.Type))

	if event.Data.ID == "" {
		return fmt.Errorf("%s: %w", op, ErrUnsupportedEvent)
	}

	switch event.Type {
	case models.EventUserCreated, models.EventUserUpdated:
		user, err := s.repo.UpsertUser(ctx, event.Data.Identity())
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Info("user synced", slog.String("user_id", user.ID))
	case models.EventUserDeleted:
		err := s.repo.DeleteUserByExternalID(ctx, event.Data.ID)
		if errors.Is(err, repository.ErrNotFound) {
			log.Debug("user already deleted", slog.String("external_id", event.Data.ID))
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Info("user deleted", slog.String("external_id", event.Data.ID))
	default:
		log.Debug("event ignored")
	}
	return nil
}
