// Package dashboard собирает сводку расходов пользователя для дашборда.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/magabrotheeeer/subtrack/internal/lib/renewal"
	"github.com/magabrotheeeer/subtrack/internal/models"
)

// Limit ограничивает число подписок в списках ближайших продлений и недавно добавленных.
const Limit = 5

// SubscriptionLister возвращает подписки пользователя.
type SubscriptionLister interface {
	List(ctx context.Context, userID string) ([]models.Subscription, error)
}

// Service строит сводку по подпискам пользователя.
type Service struct {
	subs SubscriptionLister
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(subs SubscriptionLister, log *slog.Logger) *Service {
	return &Service{subs: subs, log: log}
}

// Summary загружает подписки пользователя и строит по ним сводку на дату today.
func (s *Service) Summary(ctx context.Context, userID string, today time.Time) (models.Summary, error) {
	const op = "dashboard.Summary"
	subs, err := s.subs.List(ctx, userID)
	if err != nil {
		return models.Summary{}, fmt.Errorf("%s: %w", op, err)
	}
	summary := Summarize(subs, today)
	s.log.Debug("summary built",
		slog.String("user_id", userID),
		slog.Int("active", summary.ActiveCount),
		slog.Int("upcoming", len(summary.UpcomingRenewals)))
	return summary, nil
}

// Summarize считает итоги по подпискам на дату today. Входной срез не изменяется.
//
// В ближайшие продления попадают подписки со списанием через 0–7 дней,
// по возрастанию даты списания. Недавние идут по убыванию даты создания.
// Оба списка ограничены Limit элементами, порядок равных элементов сохраняется.
func Summarize(subs []models.Subscription, today time.Time) models.Summary {
	summary := models.Summary{
		ActiveCount:         len(subs),
		UpcomingRenewals:    make([]models.UpcomingRenewal, 0, Limit),
		RecentSubscriptions: make([]models.Subscription, 0, Limit),
	}

	upcoming := make([]models.UpcomingRenewal, 0)
	for _, sub := range subs {
		summary.MonthlyTotal += sub.MonthlyAmount()
		summary.YearlyTotal += sub.YearlyAmount()

		days := renewal.DaysUntilRenewal(sub.NextBillingDate, today)
		if renewal.DashboardWindow.Contains(days) {
			upcoming = append(upcoming, models.UpcomingRenewal{Subscription: sub, DaysUntil: days})
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].NextBillingDate.Before(upcoming[j].NextBillingDate)
	})
	summary.UpcomingRenewals = append(summary.UpcomingRenewals, upcoming[:min(len(upcoming), Limit)]...)

	recent := make([]models.Subscription, len(subs))
	copy(recent, subs)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	summary.RecentSubscriptions = append(summary.RecentSubscriptions, recent[:min(len(recent), Limit)]...)

	return summary
}
