package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// DateLayout is the wire format of a transaction date.
const DateLayout = "2006-01-02"

type (
	Kind string

	Date struct {
		time.Time
	}

	// Entry is a validated draft, ready to become a Transaction.
	Entry struct {
		Kind        Kind
		Amount      decimal.Decimal
		Category    string
		Description string
	}

	Transaction struct {
		ID          string
		Kind        Kind
		Amount      decimal.Decimal // base currency, never rounded
		Category    string
		Description string
		Date        Date
	}
)

var (
	ErrInvalidKind        = errors.New("invalid kind")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyCategory      = errors.New("empty category")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyID            = errors.New("empty id")
)

const maxDescriptionLen = 200

var categories = map[Kind][]string{
	Income:  {"Salary", "Freelance Work", "Side Hustle", "Investment Returns", "Gift Money", "Other"},
	Expense: {"Groceries", "Gas & Transport", "Shopping", "Utilities", "Fun Stuff", "Medical", "Rent/Mortgage", "Other"},
}

// DefaultQuickIncomeCategory is used when a quick income entry names no category.
const DefaultQuickIncomeCategory = "Salary"

// ParseKind accepts "income" or "expense" in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (k Kind) String() string {
	return string(k)
}

// Categories returns the allowed categories for the kind, in display order.
func Categories(k Kind) []string {
	return append([]string(nil), categories[k]...)
}

// IsCategory reports whether category belongs to the allowed set for k.
func IsCategory(k Kind, category string) bool {
	for _, c := range categories[k] {
		if c == category {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the invariants a stored transaction must hold.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if !t.Amount.IsPositive() || !AmountInRange(t.Amount) {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if !IsCategory(t.Kind, t.Category) {
		return ErrUnknownCategory
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	return t.Date.Validate()
}

// Signed returns the amount with expenses negated.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}
