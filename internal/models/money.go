package models

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Money rounds a decimal amount to cents and converts it back to float64
// for storage and JSON.
func Money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// Dec lifts a stored amount into decimal arithmetic.
func Dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
