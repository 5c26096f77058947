package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"12.34", 1234, true},
		{"$12.34", 1234, true},
		{"1,234.56", 123456, true},
		{"$1,234.56", 123456, true},
		{"-45.00", -4500, true},
		{"- $45.00", -4500, true},
		{"+ $20.00", 2000, true},
		{"  $3.5 ", 350, true},
		{"100", 10000, true},
		{"$0.00", 0, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"--", 0, false},
	}
	for i, tc := range cases {
		got, ok := ParseAmount(tc.in)
		if ok != tc.ok {
			t.Fatalf("case %d: %q ok = %v, want %v", i, tc.in, ok, tc.ok)
		}
		if got.Cents != tc.cents {
			t.Fatalf("case %d: %q = %d cents, want %d", i, tc.in, got.Cents, tc.cents)
		}
	}
}

func TestParseDollars(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"500", 50000, true},
		{"123.45", 12345, true},
		{"-10.5", -1050, true},
		{" 0 ", 0, true},
		{"abc", 0, false},
		{"", 0, false},
	}
	for i, tc := range cases {
		got, err := ParseDollars(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.cents {
				t.Fatalf("case %d: %q = %d (err=%v), want %d", i, tc.in, got.Cents, err, tc.cents)
			}
		} else if err == nil {
			t.Fatalf("case %d: %q expected error", i, tc.in)
		}
	}
}

func TestFromDollarsRounding(t *testing.T) {
	cases := []struct {
		in    float64
		cents int64
	}{
		{120.0, 12000},
		{0.015, 2}, // half away from zero
		{-0.015, -2},
		{199.999, 20000},
	}
	for i, tc := range cases {
		if got := FromDollars(tc.in); got.Cents != tc.cents {
			t.Fatalf("case %d: FromDollars(%v) = %d, want %d", i, tc.in, got.Cents, tc.cents)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		out   string
	}{
		{123456, "$1,234.56"},
		{-123456, "-$1,234.56"},
		{5, "$0.05"},
		{0, "$0.00"},
		{100000000, "$1,000,000.00"},
	}
	for i, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.out {
			t.Fatalf("case %d: %d = %q, want %q", i, tc.cents, got, tc.out)
		}
	}
}
