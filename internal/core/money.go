// Package core holds the ledger domain: entities, money handling, roles and
// the value types produced by reports.
//
// Amounts are stored as integer cents. Parsing goes through exact decimal
// arithmetic so no binary floating point is involved at any step.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

const (
	// Integer digits above which the cent value cannot fit in an int64.
	maxMagnitude = 19
	// Below this every value is under a tenth of a cent and rounds to zero.
	minMagnitude = -2
)

// AmountToCents converts a decimal numeral to cents, rounding half to even.
//
// Examples:
//
//	AmountToCents("12.34")  -> 1234, nil
//	AmountToCents("0.125")  -> 12, nil (ties go to the even cent)
//	AmountToCents("0.135")  -> 14, nil
//	AmountToCents("abc")    -> 0, ErrInvalidAmount
func AmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsZero() {
		return 0, nil
	}
	// The exponent is unbounded in the input, so reject or collapse extreme
	// magnitudes before any arithmetic expands the coefficient.
	magnitude := d.NumDigits() + int(d.Exponent())
	if magnitude > maxMagnitude {
		return 0, ErrInvalidAmount
	}
	if magnitude < minMagnitude {
		return 0, nil
	}
	cents := d.Mul(hundred).RoundBank(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// CentsToDisplay renders cents with exactly two fractional digits and no grouping.
func CentsToDisplay(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

func (m Money) String() string {
	return CentsToDisplay(m.Cents)
}

// Validate rejects negative amounts; the sign of a movement lives in its type.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
