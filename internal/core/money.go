package core

import (
	"strings"

	"github.com/shopspring/decimal"

	"giftbook/internal/numeral"
)

// MaxAmountCents is the largest amount a record may hold (99,999,999.99).
const MaxAmountCents int64 = 9_999_999_999

// ParseAmount converts a decimal string in yuan to Money.
//
// Thousands separators are accepted and more than two decimals are rounded
// half-up. Negative values, values above MaxAmountCents and anything that is
// not a plain decimal return ErrInvalidAmount. Zero is allowed.
//
//	ParseAmount("1,234.5")  -> 123450
//	ParseAmount("12.345")   -> 1235
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal converts an amount in yuan, rounding to the nearest fen.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Round(2).Shift(2)
	if cents.GreaterThan(decimal.NewFromInt(MaxAmountCents)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Validate checks the amount is within the ledger limits.
func (m Money) Validate() error {
	if m.Cents < 0 || m.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	return nil
}

// Yuan returns the amount as an exact decimal.
func (m Money) Yuan() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Add returns the sum of both amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// String formats the amount with thousands separators, e.g. "1,234.56".
func (m Money) String() string {
	return numeral.FormatDecimal(m.Yuan())
}

// Chinese returns the uppercase numeral form, e.g. "壹佰元整".
func (m Money) Chinese() string {
	return numeral.ToChineseDecimal(m.Yuan())
}
