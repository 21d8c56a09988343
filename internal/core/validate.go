package core

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Field names the form input a validation error belongs to.
type Field string

const (
	FieldKind        Field = "kind"
	FieldAmount      Field = "amount"
	FieldCategory    Field = "category"
	FieldDescription Field = "description"
)

type (
	// Draft is the raw content of the full transaction entry form.
	Draft struct {
		Kind        string
		Amount      string
		Category    string
		Description string
	}

	// QuickIncomeDraft is the raw content of the quick income form.
	QuickIncomeDraft struct {
		Amount   string
		Category string
	}
)

// FieldErrors collects every failing field of a draft.
type FieldErrors map[Field]error

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[Field(f)].Error())
	}
	return strings.Join(parts, "; ")
}

// Has reports whether f failed validation.
func (fe FieldErrors) Has(f Field) bool {
	_, ok := fe[f]
	return ok
}

// Messages returns the errors keyed by field name, for rendering.
func (fe FieldErrors) Messages() map[string]string {
	out := make(map[string]string, len(fe))
	for f, err := range fe {
		out[string(f)] = err.Error()
	}
	return out
}

func (fe FieldErrors) err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// ValidateEntry checks a full entry draft. All of kind, amount, category and
// description are required. The returned error, when non-nil, is a
// FieldErrors holding every problem found.
func ValidateEntry(d Draft) (Entry, error) {
	errs := FieldErrors{}

	kind, err := ParseKind(d.Kind)
	if err != nil {
		errs[FieldKind] = err
	}

	amount, err := ParseAmount(d.Amount)
	if err != nil {
		errs[FieldAmount] = err
	}

	category := strings.TrimSpace(d.Category)
	switch {
	case category == "":
		errs[FieldCategory] = ErrEmptyCategory
	case kind.Valid() && !IsCategory(kind, category):
		errs[FieldCategory] = ErrUnknownCategory
	}

	description := strings.TrimSpace(d.Description)
	switch {
	case description == "":
		errs[FieldDescription] = ErrEmptyDescription
	case utf8.RuneCountInString(description) > maxDescriptionLen:
		errs[FieldDescription] = ErrDescriptionTooLong
	}

	if err := errs.err(); err != nil {
		return Entry{}, err
	}
	return Entry{Kind: kind, Amount: amount, Category: category, Description: description}, nil
}

// ValidateQuickIncome checks a quick income draft. Only the amount is
// required; the category defaults to DefaultQuickIncomeCategory and doubles
// as the description.
func ValidateQuickIncome(q QuickIncomeDraft) (Entry, error) {
	errs := FieldErrors{}

	amount, err := ParseAmount(q.Amount)
	if err != nil {
		errs[FieldAmount] = err
	}

	category := strings.TrimSpace(q.Category)
	if category == "" {
		category = DefaultQuickIncomeCategory
	}
	if !IsCategory(Income, category) {
		errs[FieldCategory] = ErrUnknownCategory
	}

	if err := errs.err(); err != nil {
		return Entry{}, err
	}
	return Entry{Kind: Income, Amount: amount, Category: category, Description: category}, nil
}
