package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateTextRoundTrip(t *testing.T) {
	d := NewDate(2024, 2, 29)
	b, err := d.MarshalText()
	if err != nil || string(b) != "2024-02-29" {
		t.Fatalf("marshal: %q %v", b, err)
	}
	var back Date
	if err := back.UnmarshalText(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("expected %v, got %v", d, back)
	}
	if err := back.UnmarshalText([]byte("2024-13-01")); err == nil {
		t.Fatalf("expected error for month 13")
	}
}

func TestDateOfTruncates(t *testing.T) {
	ts := time.Date(2025, 3, 9, 23, 59, 1, 5, time.UTC)
	if got := DateOf(ts).String(); got != "2025-03-09" {
		t.Fatalf("got %s", got)
	}
}

func TestParseKind(t *testing.T) {
	for _, in := range []string{"income", "Expense", " INCOME "} {
		if _, err := ParseKind(in); err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
	}
	for _, in := range []string{"", "transfer"} {
		if _, err := ParseKind(in); err != ErrInvalidKind {
			t.Fatalf("%q: expected ErrInvalidKind, got %v", in, err)
		}
	}
}

func TestCategoriesAreKindSpecific(t *testing.T) {
	if !IsCategory(Income, "Salary") || IsCategory(Expense, "Salary") {
		t.Fatalf("Salary must be income-only")
	}
	if !IsCategory(Expense, "Groceries") || IsCategory(Income, "Groceries") {
		t.Fatalf("Groceries must be expense-only")
	}
	if !IsCategory(Income, "Other") || !IsCategory(Expense, "Other") {
		t.Fatalf("Other belongs to both kinds")
	}
	cats := Categories(Income)
	cats[0] = "mutated"
	if Categories(Income)[0] != "Salary" {
		t.Fatalf("Categories must return a copy")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:          "a",
		Kind:        Expense,
		Amount:      decimal.NewFromInt(5),
		Category:    "Groceries",
		Description: "milk",
		Date:        NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := map[string]func(tx *Transaction){
		"empty id":         func(tx *Transaction) { tx.ID = " " },
		"bad kind":         func(tx *Transaction) { tx.Kind = "transfer" },
		"zero amount":      func(tx *Transaction) { tx.Amount = decimal.Zero },
		"negative amount":  func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-1) },
		"huge amount":      func(tx *Transaction) { tx.Amount = decimal.New(1, 400) },
		"tiny fraction":    func(tx *Transaction) { tx.Amount = decimal.New(1, -9) },
		"empty category":   func(tx *Transaction) { tx.Category = "" },
		"foreign category": func(tx *Transaction) { tx.Category = "Salary" },
		"blank desc":       func(tx *Transaction) { tx.Description = "  " },
		"zero date":        func(tx *Transaction) { tx.Date = Date{} },
	}
	for name, mutate := range bads {
		tx := good
		mutate(&tx)
		if err := tx.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
