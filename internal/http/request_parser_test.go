package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "kind": "expense", "amount": 42.50, "category": " Groceries "}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}
	// Numbers keep their literal form
	if amount := parser.Get("amount"); amount != "42.50" {
		t.Errorf("Get('amount') = %q, want '42.50'", amount)
	}

	want := core.Draft{Kind: "expense", Amount: "42.50", Category: "Groceries"}
	if got := parser.Draft(); got != want {
		t.Errorf("Draft() = %+v, want %+v", got, want)
	}
}

func TestRequestBodyParser_JSONWithoutContentType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(` {"amount":"7"}`))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !parser.IsJSON() || parser.QuickIncomeDraft().Amount != "7" {
		t.Errorf("IsJSON() = %v, draft = %+v", parser.IsJSON(), parser.QuickIncomeDraft())
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"amount":`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err == nil {
		t.Fatal("expected a parse error")
	}
	if parser.IsJSON() {
		t.Error("IsJSON() should be false after a failed parse")
	}
	if !wantsJSON(req, parser) {
		t.Error("a JSON content type should still get a JSON error")
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&description=form+test&amount=100"
	req := httptest.NewRequest(http.MethodPost, "/test?id=ignored", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if id := parser.Get("id"); id != "456" {
		t.Errorf("Get('id') = %q, want body value '456'", id)
	}
	if d := parser.Get("description"); d != "form test" {
		t.Errorf("Get('description') = %q, want 'form test'", d)
	}
}

func TestRequestBodyParser_QueryFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/test?id=abc", nil)

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if id := parser.Get("id"); id != "abc" {
		t.Errorf("Get('id') = %q, want 'abc'", id)
	}
	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_TooLarge(t *testing.T) {
	body := "description=" + strings.Repeat("a", maxBodyBytes)
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("Parse() error = %v, want ErrBodyTooLarge", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{"a\x00b\x07c", "abc"},
		{"line\nbreak\ttab", "line\nbreak\ttab"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWantsJSON(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    bool
	}{
		{"plain form", nil, false},
		{"accept json", map[string]string{"Accept": "application/json"}, true},
		{"htmx wins over accept", map[string]string{"Accept": "application/json", "HX-Request": "true"}, false},
		{"json content type", map[string]string{"Content-Type": "application/json"}, true},
		{"problem+json", map[string]string{"Content-Type": "application/problem+json"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := wantsJSON(req, nil); got != tt.want {
				t.Errorf("wantsJSON() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveCurrency(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"", "USD", true},
		{"EUR", "EUR", true},
		{" jpy ", "JPY", true},
		{"SEK", "USD", false},
		{"ABC", "USD", false},
		{"EURO", "USD", false},
	}
	for _, tt := range tests {
		got, ok := resolveCurrency(tt.raw, "USD")
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("resolveCurrency(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestValidID(t *testing.T) {
	if !validID("3f1c2a9e-0000-4000-8000-000000000000") {
		t.Error("uuid should be valid")
	}
	for _, id := range []string{"", strings.Repeat("x", 65), "bad\x01id", "ünïcode"} {
		if validID(id) {
			t.Errorf("validID(%q) = true", id)
		}
	}
}

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		allowed []string
		wantErr bool
	}{
		{"POST allowed", http.MethodPost, []string{http.MethodPost}, false},
		{"DELETE allowed with multiple", http.MethodDelete, []string{http.MethodDelete, http.MethodPost}, false},
		{"GET not allowed", http.MethodGet, []string{http.MethodPost}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireMethod(req, tt.allowed...)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}

func TestRequireGET(t *testing.T) {
	for _, m := range []string{http.MethodGet, http.MethodHead} {
		if RequireGET(httptest.NewRequest(m, "/", nil)) != nil {
			t.Errorf("RequireGET should allow %s", m)
		}
	}
	if RequireGET(httptest.NewRequest(http.MethodPost, "/", nil)) == nil {
		t.Error("RequireGET should reject POST")
	}
}

func TestRequireDeleteOrPOST(t *testing.T) {
	tests := []struct {
		method  string
		wantErr bool
	}{
		{http.MethodPost, false},
		{http.MethodDelete, false},
		{http.MethodGet, true},
		{http.MethodPut, true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireDeleteOrPOST(req)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}
