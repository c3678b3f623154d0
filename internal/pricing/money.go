package pricing

import "github.com/shopspring/decimal"

// Round2 rounds a monetary value to two decimal places, half up. Every
// intermediate amount is rounded before it feeds the next stage so results
// match the shop's legacy rate sheets digit for digit.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FromFloat converts a physical measurement (area, length) into a decimal
// for multiplication against a monetary rate.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)
