// Package billing содержит чистые функции для пересчёта стоимости подписки
// в месячный и годовой эквивалент, а также форматирование денежных сумм.
package billing

// Cycle задает период списания подписки.
type Cycle string

const (
	// Weekly еженедельное списание.
	Weekly Cycle = "weekly"
	// Monthly ежемесячное списание.
	Monthly Cycle = "monthly"
	// Yearly ежегодное списание.
	Yearly Cycle = "yearly"
)

// WeeksPerMonth задает среднее количество недель в месяце.
const WeeksPerMonth = 4.33

// Cycles возвращает поддерживаемые периоды списания в порядке отображения.
func Cycles() []Cycle {
	return []Cycle{Weekly, Monthly, Yearly}
}

// ParseCycle приводит строку к периоду списания без нормализации: только точные значения
// "weekly", "monthly" и "yearly" считаются известными. Любое другое значение, в том числе
// "Weekly", сохраняется как есть, и расчёты обрабатывают его как ежемесячное.
func ParseCycle(s string) Cycle {
	return Cycle(s)
}

// Valid сообщает, является ли период одним из поддерживаемых.
func (c Cycle) Valid() bool {
	switch c {
	case Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

// Label возвращает человекочитаемое название периода.
func (c Cycle) Label() string {
	switch c {
	case Weekly:
		return "Weekly"
	case Yearly:
		return "Yearly"
	default:
		return "Monthly"
	}
}

// MonthlyAmount приводит стоимость к месячной.
//
// Неизвестный период обрабатывается как ежемесячный: цена возвращается без изменений.
// Отрицательные значения и NaN не проверяются.
func MonthlyAmount(price float64, cycle Cycle) float64 {
	switch cycle {
	case Weekly:
		return price * WeeksPerMonth
	case Yearly:
		return price / 12
	case Monthly:
		return price
	default:
		// неизвестный период считается ежемесячным
		return price
	}
}

// YearlyAmount приводит стоимость к годовой.
//
// Неизвестный период обрабатывается как ежегодный: цена возвращается без изменений.
func YearlyAmount(price float64, cycle Cycle) float64 {
	switch cycle {
	case Weekly:
		return price * 52
	case Monthly:
		return price * 12
	case Yearly:
		return price
	default:
		return price
	}
}
