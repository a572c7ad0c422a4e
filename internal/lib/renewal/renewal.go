// Package renewal вычисляет количество календарных дней до следующего списания
// и окна, в которых подписка считается «скоро продлевающейся».
package renewal

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// Window задает включительный диапазон дней до продления.
type Window struct {
	Min int
	Max int
}

var (
	// DashboardWindow задает окно ближайших продлений на дашборде, включая сегодняшний день.
	DashboardWindow = Window{Min: 0, Max: 7}
	// ReminderWindow задает окно рассылки напоминаний. В день списания письмо не отправляется.
	ReminderWindow = Window{Min: 1, Max: 7}
)

// Contains сообщает, попадает ли days в окно.
func (w Window) Contains(days int) bool {
	return days >= w.Min && days <= w.Max
}

// DaysUntilRenewal возвращает количество дней от today до nextBillingDate.
//
// Обе даты усекаются до полуночи в часовом поясе today, разница делится на сутки
// и округляется вверх. Отрицательное значение означает, что дата списания уже прошла.
func DaysUntilRenewal(nextBillingDate, today time.Time) int {
	loc := today.Location()
	from := midnight(today)
	to := midnight(nextBillingDate.In(loc))
	return int(math.Ceil(float64(to.Sub(from)) / float64(day)))
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
