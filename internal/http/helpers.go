package http

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"fintrack/internal/core"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// currencyParam is the display currency selector shared by pages and API.
type currencyParam struct {
	Code string `validate:"required,len=3,uppercase,iso4217"`
}

// resolveCurrency returns raw when it is a valid, supported ISO 4217 code and
// fallback otherwise.
func resolveCurrency(raw, fallback string) (string, bool) {
	code := core.NormalizeCurrency(raw)
	if code == "" {
		return fallback, true
	}
	if err := validate.Struct(currencyParam{Code: code}); err != nil {
		return fallback, false
	}
	if !core.IsSupportedCurrency(code) {
		return fallback, false
	}
	return code, true
}

// validID guards the delete endpoint against absurd identifiers. Unknown but
// well-formed ids are still a no-op.
func validID(id string) bool {
	return validate.Var(id, "required,max=64,printascii") == nil
}
