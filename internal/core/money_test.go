package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"3.5", 350, true},
		{" 2.50 ", 250, true},
		{"0.004", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"1e3", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{1: "0.01", 350: "3.50", 1500: "15.00", 123456: "1234.56"}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyDisplay(t *testing.T) {
	if got := (Money{Cents: 350}).Display("USD"); got != "$3.50" {
		t.Fatalf("Display = %q", got)
	}
	if got := (Money{Cents: 350}).Display(""); got != "$3.50" {
		t.Fatalf("Display with default currency = %q", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 350})
	if err != nil || string(b) != "3.50" {
		t.Fatalf("marshal: %s %v", b, err)
	}

	for in, want := range map[string]int64{`3.5`: 350, `"12.34"`: 1234, `10`: 1000} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil || m.Cents != want {
			t.Fatalf("unmarshal %s: got %d err=%v", in, m.Cents, err)
		}
	}
	for _, in := range []string{`0`, `-3`, `"x"`, `null`} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err == nil {
			t.Fatalf("unmarshal %s: expected error", in)
		}
	}
}
