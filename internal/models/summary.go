package models

// UpcomingRenewal описывает подписку из окна ближайших продлений вместе с числом дней до списания.
type UpcomingRenewal struct {
	Subscription
	DaysUntil int `json:"days_until"`
}

// Summary содержит агрегированные данные дашборда пользователя.
type Summary struct {
	MonthlyTotal        float64           `json:"monthly_total"`
	YearlyTotal         float64           `json:"yearly_total"`
	ActiveCount         int               `json:"active_count"`
	UpcomingRenewals    []UpcomingRenewal `json:"upcoming_renewals"`
	RecentSubscriptions []Subscription    `json:"recent_subscriptions"`
}
