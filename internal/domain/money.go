package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the fixed number of fractional digits used for every amount.
const MoneyScale int32 = 2

// MoneyFromFloat converts a boundary float into a scale-2 decimal.
// Rounding is half-to-even (banker's rounding): 0.125 -> 0.12, 0.135 -> 0.14.
func MoneyFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).RoundBank(MoneyScale)
}

// MoneyFromString parses a decimal string and rounds it half-to-even to scale 2.
func MoneyFromString(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal amount", ErrInvalidAmount, s)
	}
	return d.RoundBank(MoneyScale), nil
}

// Money normalizes an already-decimal value to scale 2.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(MoneyScale)
}

// NonNegative floors an amount at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
