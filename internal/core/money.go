// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from user input
// and rendering them with two decimal places for display.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are bounded so that rendering and persisting them stays cheap.
const (
	maxAmountDigits = 15 // integer digits
	maxAmountScale  = 8  // decimal places
)

// AmountInRange reports whether d has at most 15 integer digits and 8
// decimals. It inspects the coefficient and exponent only and never expands d.
func AmountInRange(d decimal.Decimal) bool {
	exp := int(d.Exponent())
	if exp < -maxAmountScale || exp > maxAmountDigits {
		return false
	}
	return d.NumDigits()+exp <= maxAmountDigits
}

// ParseAmount converts a user supplied decimal string to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. The value
// is kept at full precision; rounding only happens when it is displayed.
// Returns ErrInvalidAmount for empty, non-numeric, zero or negative input and
// for values outside AmountInRange.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.345, nil
//	ParseAmount("0")      -> 0, ErrInvalidAmount
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() || !AmountInRange(d) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders d with exactly two decimals, rounding half away from zero.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatMoney prefixes the formatted amount with a currency code, e.g. "EUR 12.50".
func FormatMoney(code string, d decimal.Decimal) string {
	return code + " " + FormatAmount(d)
}
