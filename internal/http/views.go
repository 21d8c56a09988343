package http

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

type transactionView struct {
	ID          string
	Kind        string
	IsIncome    bool
	Category    string
	Description string
	Date        string
	Amount      string
}

type categoryView struct {
	Name    string
	Amount  string
	Percent int
}

type dayView struct {
	Date     string
	Income   string
	Expenses string
	Net      string
	Negative bool
}

// summaryView is the data of the summary partial, already converted to the
// display currency.
type summaryView struct {
	Currency        string
	Currencies      []string
	Balance         string
	BalanceNegative bool
	Income          string
	Expenses        string
	Count           int
	Categories      []categoryView
	Daily           []dayView
	Transactions    []transactionView
}

type pageData struct {
	Summary              summaryView
	IncomeCategories     []string
	ExpenseCategories    []string
	DefaultQuickCategory string
	HTMXURL              string
}

func newSummaryView(code string, txs []core.Transaction, sum core.Summary, rates core.RateTable) summaryView {
	v := summaryView{
		Currency:        code,
		Currencies:      core.SupportedCurrencies(),
		Balance:         core.FormatAmount(sum.Balance),
		BalanceNegative: sum.Balance.IsNegative(),
		Income:          core.FormatAmount(sum.TotalIncome),
		Expenses:        core.FormatAmount(sum.TotalExpenses),
		Count:           sum.Count,
	}

	for _, c := range sum.ByCategory {
		v.Categories = append(v.Categories, categoryView{
			Name:    c.Name,
			Amount:  core.FormatAmount(c.Amount),
			Percent: percentOf(c.Amount, sum.TotalExpenses),
		})
	}
	for _, d := range sum.Daily {
		v.Daily = append(v.Daily, dayView{
			Date:     d.Date.String(),
			Income:   core.FormatAmount(d.Income),
			Expenses: core.FormatAmount(d.Expenses),
			Net:      core.FormatAmount(d.Net()),
			Negative: d.Net().IsNegative(),
		})
	}
	for _, tx := range txs {
		v.Transactions = append(v.Transactions, transactionView{
			ID:          tx.ID,
			Kind:        tx.Kind.String(),
			IsIncome:    tx.Kind == core.Income,
			Category:    tx.Category,
			Description: tx.Description,
			Date:        tx.Date.String(),
			Amount:      core.FormatAmount(core.Convert(tx.Amount, code, rates)),
		})
	}
	return v
}

// percentOf returns part/total as a whole percentage for the category bars.
func percentOf(part, total decimal.Decimal) int {
	if !total.IsPositive() {
		return 0
	}
	return int(part.Div(total).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// JSON surface. Amounts are JSON numbers; stored amounts keep full precision,
// converted figures are rounded to two decimals.

type transactionJSON struct {
	ID            string      `json:"id"`
	Kind          string      `json:"kind"`
	Amount        json.Number `json:"amount"`
	Category      string      `json:"category"`
	Description   string      `json:"description"`
	Date          string      `json:"date"`
	DisplayAmount json.Number `json:"display_amount,omitempty"`
}

type categoryJSON struct {
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
}

type dayJSON struct {
	Date     string      `json:"date"`
	Income   json.Number `json:"income"`
	Expenses json.Number `json:"expenses"`
	Net      json.Number `json:"net"`
}

type summaryJSON struct {
	Currency      string         `json:"currency"`
	Balance       json.Number    `json:"balance"`
	TotalIncome   json.Number    `json:"total_income"`
	TotalExpenses json.Number    `json:"total_expenses"`
	ByCategory    []categoryJSON `json:"by_category"`
	Daily         []dayJSON      `json:"daily"`
	Count         int            `json:"count"`
}

type ratesJSON struct {
	Base      string                 `json:"base"`
	Rates     map[string]json.Number `json:"rates"`
	Supported []string               `json:"supported"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(core.FormatAmount(d))
}

func newTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          tx.ID,
		Kind:        tx.Kind.String(),
		Amount:      json.Number(tx.Amount.String()),
		Category:    tx.Category,
		Description: tx.Description,
		Date:        tx.Date.String(),
	}
}

func newSummaryJSON(code string, sum core.Summary) summaryJSON {
	out := summaryJSON{
		Currency:      code,
		Balance:       number(sum.Balance),
		TotalIncome:   number(sum.TotalIncome),
		TotalExpenses: number(sum.TotalExpenses),
		ByCategory:    []categoryJSON{},
		Daily:         []dayJSON{},
		Count:         sum.Count,
	}
	for _, c := range sum.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryJSON{Category: c.Name, Amount: number(c.Amount)})
	}
	for _, d := range sum.Daily {
		out.Daily = append(out.Daily, dayJSON{
			Date:     d.Date.String(),
			Income:   number(d.Income),
			Expenses: number(d.Expenses),
			Net:      number(d.Net()),
		})
	}
	return out
}

func newRatesJSON(table core.RateTable) ratesJSON {
	out := ratesJSON{
		Base:      core.BaseCurrency,
		Rates:     make(map[string]json.Number, len(table)),
		Supported: core.SupportedCurrencies(),
	}
	for code, rate := range table {
		out.Rates[code] = json.Number(rate.String())
	}
	return out
}
