// Package core provides money parsing and handling utilities.
//
// Amounts are shopspring decimals so sums never drift the way float64 sums do.
// A decimal cannot hold NaN or infinity, which leaves non-negativity as the only
// runtime check once a value has been constructed.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered string into a non-negative amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// exponents and anything that is not a plain decimal are rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ValidationError
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "cannot be empty"}
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "must be an unsigned number"}
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, &ValidationError{Field: "amount", Reason: "not a number: " + s}
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "not a number: " + s}
	}
	return d, nil
}

// AmountFromFloat converts a float64 into an amount, rejecting NaN, infinities
// and negative values.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "must be a finite number"}
	}
	d := decimal.NewFromFloat(f)
	if err := ValidateAmount("amount", d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount rejects negative values. Zero is allowed.
func ValidateAmount(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return &ValidationError{Field: field, Reason: "must not be negative"}
	}
	return nil
}
