package models

// ReminderItem описывает строку напоминания об одной подписке.
type ReminderItem struct {
	Name      string `json:"name"`
	Price     string `json:"price"`
	DaysUntil int    `json:"days_until"`
}

// Reminder содержит агрегированное напоминание для одного пользователя.
// MonthlyTotal учитывает все подписки пользователя, а не только попавшие в окно.
type Reminder struct {
	Email        string         `json:"email"`
	Name         string         `json:"name,omitempty"`
	Items        []ReminderItem `json:"items"`
	MonthlyTotal string         `json:"monthly_total"`
}

// Count возвращает количество подписок в напоминании.
func (r Reminder) Count() int {
	return len(r.Items)
}

// Email содержит письмо, готовое к отправке.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// SweepReport содержит итог одного прохода рассылки напоминаний.
type SweepReport struct {
	Success    bool `json:"success"`
	EmailsSent int  `json:"emailsSent"`
}
