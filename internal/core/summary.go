package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// DayTotal holds the income and expense sums of a single calendar day.
type DayTotal struct {
	Date     Date
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

// Net returns income minus expenses for the day.
func (d DayTotal) Net() decimal.Decimal {
	return d.Income.Sub(d.Expenses)
}

// Summary is every aggregate of a ledger snapshot, in base currency.
type Summary struct {
	Balance       decimal.Decimal
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	ByCategory    []CategoryAmount // expenses only, largest first
	Daily         []DayTotal       // oldest first
	Count         int
}

// TotalIncome sums the income records.
func TotalIncome(txs []Transaction) decimal.Decimal {
	return sumKind(txs, Income)
}

// TotalExpenses sums the expense records.
func TotalExpenses(txs []Transaction) decimal.Decimal {
	return sumKind(txs, Expense)
}

// Balance is total income minus total expenses.
func Balance(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Signed())
	}
	return total
}

func sumKind(txs []Transaction, k Kind) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.Kind == k {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// ExpensesByCategory sums expense amounts per category. Categories without
// expenses are absent from the result.
func ExpensesByCategory(txs []Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Kind != Expense {
			continue
		}
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// SortedCategories orders category totals by amount descending, then name.
func SortedCategories(totals map[string]decimal.Decimal) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// DailyTotals groups income and expenses by date, oldest first.
func DailyTotals(txs []Transaction) []DayTotal {
	byDay := make(map[string]*DayTotal)
	for _, t := range txs {
		key := t.Date.String()
		day, ok := byDay[key]
		if !ok {
			day = &DayTotal{Date: t.Date}
			byDay[key] = day
		}
		if t.Kind == Income {
			day.Income = day.Income.Add(t.Amount)
		} else {
			day.Expenses = day.Expenses.Add(t.Amount)
		}
	}

	out := make([]DayTotal, 0, len(byDay))
	for _, day := range byDay {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

// Summarize computes every aggregate in one call. Nothing is cached.
func Summarize(txs []Transaction) Summary {
	return Summary{
		Balance:       Balance(txs),
		TotalIncome:   TotalIncome(txs),
		TotalExpenses: TotalExpenses(txs),
		ByCategory:    SortedCategories(ExpensesByCategory(txs)),
		Daily:         DailyTotals(txs),
		Count:         len(txs),
	}
}
