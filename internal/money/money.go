// Package money converts between the decimal amounts accepted on the API
// boundary and the int64 minor units (cents) used everywhere inside the
// engine. All arithmetic on balances and settlements happens in cents so
// that thousands of expenses accumulate without floating-point drift.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotPositive     = errors.New("amount must be greater than zero")
	ErrNegative        = errors.New("amount must not be negative")
	ErrTooManyDecimals = errors.New("amount must have at most two decimal places")
)

// ToCents converts a decimal amount to minor units, rejecting sub-cent
// precision rather than rounding it away.
func ToCents(d decimal.Decimal) (int64, error) {
	if d.Exponent() < -2 {
		// Trailing zeros still parse with a smaller exponent; only reject
		// amounts that actually lose precision at two places.
		if !d.Equal(d.Round(2)) {
			return 0, ErrTooManyDecimals
		}
	}
	return d.Mul(decimal.NewFromInt(100)).IntPart(), nil
}

// PositiveCents converts and requires a strictly positive amount.
func PositiveCents(d decimal.Decimal) (int64, error) {
	cents, err := ToCents(d)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrNotPositive
	}
	return cents, nil
}

// NonNegativeCents converts and requires a zero-or-positive amount.
func NonNegativeCents(d decimal.Decimal) (int64, error) {
	cents, err := ToCents(d)
	if err != nil {
		return 0, err
	}
	if cents < 0 {
		return 0, ErrNegative
	}
	return cents, nil
}

// FromCents renders minor units back into a two-place decimal for responses.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
