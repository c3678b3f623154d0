package invoices

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var enIN = message.NewPrinter(language.MustParse("en-IN"))

// FormatAmount renders an amount with Indian digit grouping, e.g.
// 1234567.89 becomes "₹12,34,567.89".
func FormatAmount(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return enIN.Sprintf("₹%v", number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
