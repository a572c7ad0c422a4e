package models

// Category описывает категорию подписки и её цвет по умолчанию.
type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// CategoryOther используется по умолчанию.
const CategoryOther = "other"

var (
	categoryEntertainment = Category{Value: "entertainment", Label: "Entertainment", Color: "#ef4444"}
	categoryProductivity  = Category{Value: "productivity", Label: "Productivity", Color: "#6366f1"}
	categoryHealth        = Category{Value: "health", Label: "Health", Color: "#10b981"}
	categoryFinance       = Category{Value: "finance", Label: "Finance", Color: "#f59e0b"}
	categoryDefault       = Category{Value: CategoryOther, Label: "Other", Color: "#71717a"}
)

// Categories возвращает все категории в порядке отображения.
func Categories() []Category {
	return []Category{
		categoryEntertainment,
		categoryProductivity,
		categoryHealth,
		categoryFinance,
		categoryDefault,
	}
}

// CategoryFor возвращает категорию по значению. Для неизвестного значения
// всегда возвращается категория "other".
func CategoryFor(value string) Category {
	switch value {
	case categoryEntertainment.Value:
		return categoryEntertainment
	case categoryProductivity.Value:
		return categoryProductivity
	case categoryHealth.Value:
		return categoryHealth
	case categoryFinance.Value:
		return categoryFinance
	default:
		return categoryDefault
	}
}
