// Package models содержит доменные структуры сервиса: подписку, пользователя,
// сводку для дашборда и напоминание о продлении, а также DTO для приёма JSON-запросов.
package models

import (
	"time"

	"github.com/magabrotheeeer/subtrack/internal/lib/billing"
)

// Subscription представляет регулярную подписку пользователя.
// Ядро сервиса только читает подписки и никогда не изменяет их состояние.
type Subscription struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	Name            string        `json:"name"`
	Price           float64       `json:"price"`
	Currency        string        `json:"currency"`
	BillingCycle    billing.Cycle `json:"billing_cycle"`
	Category        string        `json:"category"`
	NextBillingDate time.Time     `json:"next_billing_date"`
	Notes           string        `json:"notes,omitempty"`
	Color           string        `json:"color,omitempty"` // переопределяет цвет категории, только для отображения
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// MonthlyAmount возвращает месячный эквивалент стоимости подписки.
func (s Subscription) MonthlyAmount() float64 {
	return billing.MonthlyAmount(s.Price, s.BillingCycle)
}

// YearlyAmount возвращает годовой эквивалент стоимости подписки.
func (s Subscription) YearlyAmount() float64 {
	return billing.YearlyAmount(s.Price, s.BillingCycle)
}

// DisplayColor возвращает цвет подписки или, если он не задан, цвет её категории.
func (s Subscription) DisplayColor() string {
	if s.Color != "" {
		return s.Color
	}
	return CategoryFor(s.Category).Color
}

// DummySubscription используется для приёма данных подписки из JSON-запроса.
// Дата следующего списания приходит строкой в формате 2006-01-02.
// Период списания и категория намеренно не ограничиваются перечнем:
// неизвестные значения обрабатываются по умолчанию.
type DummySubscription struct {
	Name            string  `json:"name" validate:"required,max=255"`
	Price           float64 `json:"price" validate:"gte=0"`
	Currency        string  `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	BillingCycle    string  `json:"billing_cycle" validate:"required"`
	Category        string  `json:"category,omitempty"`
	NextBillingDate string  `json:"next_billing_date" validate:"required"`
	Notes           string  `json:"notes,omitempty" validate:"max=1000"`
	Color           string  `json:"color,omitempty" validate:"omitempty,hexcolor"`
}
