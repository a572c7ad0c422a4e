package models

import "time"

// User представляет пользователя, зарегистрированного через внешнего провайдера идентификации.
type User struct {
	ID            string         `json:"id"`
	ExternalID    string         `json:"external_id"` // идентификатор пользователя у провайдера
	Email         string         `json:"email"`
	Name          string         `json:"name,omitempty"` // пустая строка означает, что имя не указано
	CreatedAt     time.Time      `json:"created_at"`
	Subscriptions []Subscription `json:"subscriptions,omitempty"`
}

// Identity содержит данные пользователя, полученные от провайдера идентификации
// (из токена доступа или из webhook-события).
type Identity struct {
	ExternalID string
	Email      string
	Name       string
}
