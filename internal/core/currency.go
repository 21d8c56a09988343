package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the currency every stored amount is denominated in.
const BaseCurrency = "USD"

var supportedCurrencies = []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "CNY", "INR"}

// SupportedCurrencies lists the display currencies offered to users.
func SupportedCurrencies() []string {
	return append([]string(nil), supportedCurrencies...)
}

// IsSupportedCurrency reports whether code is one of SupportedCurrencies.
func IsSupportedCurrency(code string) bool {
	code = NormalizeCurrency(code)
	for _, c := range supportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// RateTable maps currency codes to multipliers relative to the base currency.
// It is replaced wholesale on refresh and never merged.
type RateTable map[string]decimal.Decimal

// BaseRateTable returns a table containing only the base currency at 1.
func BaseRateTable() RateTable {
	return RateTable{BaseCurrency: decimal.NewFromInt(1)}
}

// NewRateTable builds a table from raw rates. Codes are normalized,
// non-positive rates are dropped and base is always mapped to 1.
func NewRateTable(base string, rates map[string]decimal.Decimal) RateTable {
	base = NormalizeCurrency(base)
	if base == "" {
		base = BaseCurrency
	}
	table := make(RateTable, len(rates)+1)
	for code, rate := range rates {
		code = NormalizeCurrency(code)
		if code == "" || !rate.IsPositive() {
			continue
		}
		table[code] = rate
	}
	table[base] = decimal.NewFromInt(1)
	return table
}

// Rate returns the multiplier for code, or 1 when the code is unknown.
func (rt RateTable) Rate(code string) decimal.Decimal {
	if rate, ok := rt[NormalizeCurrency(code)]; ok && rate.IsPositive() {
		return rate
	}
	return decimal.NewFromInt(1)
}

// Has reports whether the table carries a rate for code.
func (rt RateTable) Has(code string) bool {
	_, ok := rt[NormalizeCurrency(code)]
	return ok
}

// Convert multiplies a base currency amount by the rate for code, falling
// back to 1 when code is missing. The result is rounded to two decimals for
// display; the stored amount is never touched.
func Convert(amount decimal.Decimal, code string, table RateTable) decimal.Decimal {
	return amount.Mul(table.Rate(code)).Round(2)
}

// In returns a copy of s with every amount converted to code.
func (s Summary) In(code string, table RateTable) Summary {
	out := Summary{
		TotalIncome:   Convert(s.TotalIncome, code, table),
		TotalExpenses: Convert(s.TotalExpenses, code, table),
		Count:         s.Count,
	}
	// Derived from the rounded totals so the displayed figures always add up.
	out.Balance = out.TotalIncome.Sub(out.TotalExpenses)
	for _, c := range s.ByCategory {
		out.ByCategory = append(out.ByCategory, CategoryAmount{Name: c.Name, Amount: Convert(c.Amount, code, table)})
	}
	for _, d := range s.Daily {
		out.Daily = append(out.Daily, DayTotal{
			Date:     d.Date,
			Income:   Convert(d.Income, code, table),
			Expenses: Convert(d.Expenses, code, table),
		})
	}
	return out
}
