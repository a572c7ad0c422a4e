// Package subscription содержит бизнес-логику управления подписками пользователя и их кеширование.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/subtrack/internal/lib/billing"
	"github.com/magabrotheeeer/subtrack/internal/lib/sl"
	"github.com/magabrotheeeer/subtrack/internal/models"
	"github.com/magabrotheeeer/subtrack/internal/storage/repository"
)

// DateLayout задает формат даты следующего списания во входящих запросах.
const DateLayout = "2006-01-02"

// ErrInvalidInput возвращается для некорректных данных подписки.
var ErrInvalidInput = errors.New("invalid subscription input")

// Repository определяет методы хранилища, нужные сервису.
type Repository interface {
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	UpsertUser(ctx context.Context, identity models.Identity) (*models.User, error)
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	GetSubscription(ctx context.Context, userID, id string) (*models.Subscription, error)
	UpdateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	DeleteSubscription(ctx context.Context, userID, id string) error
	ListSubscriptions(ctx context.Context, userID string) ([]models.Subscription, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// Service реализует работу с подписками, список подписок пользователя кешируется.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

func listKey(userID string) string {
	return "subscriptions:" + userID
}

// ResolveUser возвращает пользователя по данным из токена. Если пользователь ещё не
// пришёл через webhook провайдера, он создаётся.
func (s *Service) ResolveUser(ctx context.Context, identity models.Identity) (*models.User, error) {
	const op = "subscription.ResolveUser"
	user, err := s.repo.GetUserByExternalID(ctx, identity.ExternalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err = s.repo.UpsertUser(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user created from token claims", slog.String("user_id", user.ID))
	return user, nil
}

// Create создает подписку пользователя userID.
// Валюта по умолчанию USD, цвет по умолчанию берётся из категории.
func (s *Service) Create(ctx context.Context, userID string, req models.DummySubscription) (*models.Subscription, error) {
	const op = "subscription.Create"
	sub, err := fromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.UserID = userID

	created, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new subscription", slog.String("id", created.ID))

	s.invalidate(ctx, userID)
	return created, nil
}

// Get возвращает подписку пользователя по ID.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.Subscription, error) {
	const op = "subscription.Get"
	sub, err := s.repo.GetSubscription(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// Update заменяет данные подписки пользователя.
func (s *Service) Update(ctx context.Context, userID, id string, req models.DummySubscription) (*models.Subscription, error) {
	const op = "subscription.Update"
	sub, err := fromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.ID = id
	sub.UserID = userID

	updated, err := s.repo.UpdateSubscription(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("updated subscription in storage", slog.String("id", id))

	s.invalidate(ctx, userID)
	return updated, nil
}

// Delete удаляет подписку пользователя.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	const op = "subscription.Delete"
	if err := s.repo.DeleteSubscription(ctx, userID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// List возвращает все подписки пользователя, используя кеш или репозиторий.
func (s *Service) List(ctx context.Context, userID string) ([]models.Subscription, error) {
	const op = "subscription.List"
	key := listKey(userID)

	var cached []models.Subscription
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), sl.Err(err))
	}
	if found && err == nil {
		return cached, nil
	}

	subs, err := s.repo.ListSubscriptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, subs, s.ttl); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", key), sl.Err(err))
	}
	return subs, nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	key := listKey(userID)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", key), sl.Err(err))
	}
}

func fromRequest(req models.DummySubscription) (models.Subscription, error) {
	next, err := time.ParseInLocation(DateLayout, strings.TrimSpace(req.NextBillingDate), time.Local)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("%w: next billing date: %w", ErrInvalidInput, err)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = billing.DefaultCurrency
	}

	category := models.CategoryFor(strings.ToLower(strings.TrimSpace(req.Category)))
	color := req.Color
	if color == "" {
		color = category.Color
	}

	return models.Subscription{
		Name:            strings.TrimSpace(req.Name),
		Price:           req.Price,
		Currency:        currency,
		BillingCycle:    billing.ParseCycle(req.BillingCycle),
		Category:        category.Value,
		NextBillingDate: next,
		Notes:           req.Notes,
		Color:           color,
	}, nil
}
