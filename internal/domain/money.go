package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// toDecimal converts a float to decimal. NaN and infinities collapse to zero
// because decimal.NewFromFloat panics on them.
func toDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// RoundMoney rounds a currency amount half away from zero to 2 places
func RoundMoney(v float64) float64 {
	return round(v, 2)
}

func round(v float64, places int32) float64 {
	f, _ := toDecimal(v).Round(places).Float64()
	return f
}

// mulMoney multiplies two amounts exactly and rounds the product once
func mulMoney(a, b float64) float64 {
	f, _ := toDecimal(a).Mul(toDecimal(b)).Round(2).Float64()
	return f
}
