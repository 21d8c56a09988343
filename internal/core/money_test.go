package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.005", true}, // full precision kept
		{" 2.50 ", "2.5", true},
		{"1e3", "1000", true},
		{"999999999999999", "999999999999999", true},
		{"0.00000001", "0.00000001", true},
		{"1234567890123456", "", false},
		{"1e15", "", false},
		{"1e400", "", false},
		{"1e10000000", "", false},
		{"1e1000000000", "", false},
		{"0.000000001", "", false},
		{"-1", "", false},
		{"0", "", false},
		{"0.00", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"NaN", "", false},
		{"Inf", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err != ErrInvalidAmount {
				t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
			}
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"100":    "100.00",
		"1.005":  "1.01",
		"12.344": "12.34",
		"-3.5":   "-3.50",
	}
	for in, want := range cases {
		d := decimal.RequireFromString(in)
		if got := FormatAmount(d); got != want {
			t.Fatalf("%s: expected %s, got %s", in, want, got)
		}
	}
	d := decimal.RequireFromString("7.5")
	if got := FormatMoney("EUR", d); got != "EUR 7.50" {
		t.Fatalf("FormatMoney: got %s", got)
	}
}
