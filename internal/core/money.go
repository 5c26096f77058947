// Package core implements the domain model and the financial aggregation
// pipeline: term resolution, budget-vs-spend summaries, period comparison,
// and keyword-based category classification.
package core

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// amountRe matches an optional sign followed by a decimal number, with
// optional thousands separators. Statement exports disagree wildly on
// formatting, so parsing scans for the first numeric token instead of
// demanding a clean field.
var amountRe = regexp.MustCompile(`([+-])?\s*(\d[\d,]*(?:\.\d+)?)`)

// ParseAmount leniently parses a statement amount string into Money.
// Currency symbols, thousands separators, and unicode spaces are
// stripped; a leading sign is honored. Unparseable input yields zero
// cents and ok=false so row cleaning can decide what to do with it.
func ParseAmount(s string) (Money, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '$' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return Money{}, false
	}
	m := amountRe.FindStringSubmatch(cleaned)
	if m == nil {
		return Money{}, false
	}
	num := strings.ReplaceAll(m[2], ",", "")
	d, err := decimal.NewFromString(num)
	if err != nil {
		return Money{}, false
	}
	cents := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if m[1] == "-" {
		cents = -cents
	}
	return Money{Cents: cents}, true
}

// ParseDollars strictly parses a decimal dollar string (e.g. "500" or
// "123.45", optional leading sign) into Money. Used for API inputs
// where a malformed amount is an error, not a zero.
func ParseDollars(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{Cents: d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()}, nil
}

// FromDollars converts a float dollar value to Money, rounding half away
// from zero. Store wire formats carry amounts as float dollars.
func FromDollars(dollars float64) Money {
	return Money{Cents: int64(math.Round(dollars * 100))}
}

// Dollars returns the dollar value as a float64 for wire formats and
// display. Use cents for arithmetic.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// String formats the amount as a dollar string, e.g. "-$1,234.56".
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100
	s := fmt.Sprintf("%d", whole)
	if whole >= 1000 {
		var parts []string
		for len(s) > 3 {
			parts = append([]string{s[len(s)-3:]}, parts...)
			s = s[:len(s)-3]
		}
		s = strings.Join(append([]string{s}, parts...), ",")
	}
	out := fmt.Sprintf("$%s.%02d", s, frac)
	if neg {
		return "-" + out
	}
	return out
}
