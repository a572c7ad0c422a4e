package models

import "strings"

// Типы событий провайдера идентификации.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// IdentityEvent описывает событие о пользователе, которое присылает провайдером идентификации через webhook.
type IdentityEvent struct {
	Type string            `json:"type"`
	Data IdentityEventData `json:"data"`
}

// IdentityEventData описывает пользователя в событии провайдера.
type IdentityEventData struct {
	ID             string         `json:"id"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
}

// EmailAddress содержит адрес электронной почты пользователя у провайдера.
type EmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// Identity возвращает данные пользователя: первый адрес почты и имя, собранное из имени и фамилии.
func (d IdentityEventData) Identity() Identity {
	var email string
	if len(d.EmailAddresses) > 0 {
		email = d.EmailAddresses[0].EmailAddress
	}

	parts := make([]string, 0, 2)
	for _, p := range []string{d.FirstName, d.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	return Identity{
		ExternalID: d.ID,
		Email:      email,
		Name:       strings.Join(parts, " "),
	}
}
