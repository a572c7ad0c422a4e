package billing

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultCurrency используется, когда валюта подписки не указана.
const DefaultCurrency = "USD"

var printer = message.NewPrinter(language.AmericanEnglish)

// Currencies возвращает валюты, предлагаемые пользователю при создании подписки.
func Currencies() []string {
	return []string{"USD", "EUR", "GBP"}
}

// FormatCurrency форматирует сумму в локали en-US: символ валюты, разделители разрядов
// и стандартное для валюты количество знаков после запятой ("$1,040.00").
// Половина округляется от нуля: 10.125 USD выводится как "$10.13".
//
// Для неизвестного кода ISO 4217 возвращается ошибка.
func FormatCurrency(amount float64, code string) (string, error) {
	const op = "billing.FormatCurrency"

	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("%s: %q: %w", op, code, err)
	}

	scale, _ := currency.Standard.Rounding(unit)
	sign, abs := splitSign(amount)
	return sign + printer.Sprint(currency.Symbol(unit)) + formatNumber(abs, scale), nil
}

// FormatPrice форматирует цену подписки. Корректный по форме, но незарегистрированный
// трёхбуквенный код выводится перед суммой ("ABC 9.99"), ошибка возвращается только
// для кода другой формы.
func FormatPrice(amount float64, code string) (string, error) {
	formatted, err := FormatCurrency(amount, code)
	if err == nil || !isCurrencyCode(code) {
		return formatted, err
	}
	sign, abs := splitSign(amount)
	return sign + strings.ToUpper(code) + " " + formatNumber(abs, 2), nil
}

func splitSign(amount float64) (string, float64) {
	if amount < 0 {
		return "-", -amount
	}
	return "", amount
}

func formatNumber(abs float64, scale int) string {
	p := math.Pow10(scale)
	rounded := math.Round(abs*p) / p
	return printer.Sprint(number.Decimal(rounded, number.Scale(scale)))
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
