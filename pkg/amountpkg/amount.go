// Package amountpkg parses money amounts typed by users.
package amountpkg

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotANumber indicates that the input is not a decimal number.
	ErrNotANumber = errors.New("amount is not a number")
	// ErrFractional indicates that the input has a fractional minor-unit part.
	ErrFractional = errors.New("amount must be a whole number of minor units")
	// ErrOutOfRange indicates that the input does not fit into an int64.
	ErrOutOfRange = errors.New("amount is out of range")
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// Parse converts s into a whole amount of minor units.
//
// A leading "$" is accepted. The sign is preserved: range checks against
// zero are the ledger's business.
func Parse(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrNotANumber
	}

	return FromDecimal(d)
}

// FromDecimal converts d into a whole amount of minor units.
func FromDecimal(d decimal.Decimal) (int64, error) {
	if !d.Equal(d.Truncate(0)) {
		return 0, ErrFractional
	}

	if d.Abs().GreaterThan(maxAmount) {
		return 0, ErrOutOfRange
	}

	return d.IntPart(), nil
}
