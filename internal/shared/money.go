package shared

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders an amount as Brazilian currency, e.g. "R$ 1.234,50".
func FormatBRL(v decimal.Decimal) string {
	return "R$ " + FormatDecimal(v)
}

// FormatDecimal renders an amount with two decimals using pt-BR separators.
func FormatDecimal(v decimal.Decimal) string {
	return brPrinter.Sprint(number.Decimal(v.Round(2).InexactFloat64(), number.Scale(2)))
}

// RoundPercent returns round(100*part/whole) with halves rounded up, or 0
// when whole is not positive.
func RoundPercent(part, whole decimal.Decimal) int {
	if !whole.IsPositive() {
		return 0
	}
	return int(part.Mul(decimal.NewFromInt(100)).Div(whole).Round(0).IntPart())
}
