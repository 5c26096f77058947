package core

import (
	"testing"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"2024-08-26", "2024-08-26", true},
		{" 2024-01-02 ", "2024-01-02", true},
		{"08/26/2024", "", false},
		{"not a date", "", false},
		{"", "", false},
	}
	for i, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("case %d: %q expected %q, got %q (err=%v)", i, tc.in, tc.out, got.String(), err)
			}
		} else if err == nil {
			t.Fatalf("case %d: %q expected error", i, tc.in)
		}
	}
}

func TestValidateSemesterName(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"Fall 2024", true},
		{"Spring 2025", true},
		{"summer 2023", true},
		{"Winter 2026", true},
		{"Autumn 2024", false},
		{"Fall", false},
		{"Fall 24", false},
		{"2024 Fall", false},
		{"", false},
	}
	for i, tc := range cases {
		err := ValidateSemesterName(tc.name)
		if tc.ok && err != nil {
			t.Fatalf("case %d: %q expected ok, got %v", i, tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d: %q expected error", i, tc.name)
		}
	}
}

func TestTermValidate(t *testing.T) {
	good := Term{ID: "FA24", Semester: "Fall 2024", StartDate: NewDate(2024, 8, 26), EndDate: NewDate(2024, 12, 14)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Term{
		{ID: "", Semester: "Fall 2024", StartDate: NewDate(2024, 8, 26), EndDate: NewDate(2024, 12, 14)},
		{ID: "FA24", Semester: "nope", StartDate: NewDate(2024, 8, 26), EndDate: NewDate(2024, 12, 14)},
		{ID: "FA24", Semester: "Fall 2024", EndDate: NewDate(2024, 12, 14)},
		{ID: "FA24", Semester: "Fall 2024", StartDate: NewDate(2024, 12, 15), EndDate: NewDate(2024, 12, 14)},
	}
	for i, tm := range bads {
		if err := tm.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTermContainsInclusiveBounds(t *testing.T) {
	term := Term{ID: "FA24", Semester: "Fall 2024", StartDate: NewDate(2024, 8, 26), EndDate: NewDate(2024, 12, 14)}
	cases := []struct {
		d    Date
		want bool
	}{
		{NewDate(2024, 8, 26), true},  // start boundary
		{NewDate(2024, 12, 14), true}, // end boundary
		{NewDate(2024, 10, 1), true},
		{NewDate(2024, 8, 25), false},
		{NewDate(2024, 12, 15), false},
		{Date{}, false}, // missing date
	}
	for i, tc := range cases {
		if got := term.Contains(tc.d); got != tc.want {
			t.Fatalf("case %d: Contains(%s) = %v, want %v", i, tc.d, got, tc.want)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{TermID: "FA24", CommitteeID: 3, Amount: Money{Cents: 50000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Budget{
		{TermID: "", CommitteeID: 3, Amount: Money{Cents: 1}},
		{TermID: "FA24", CommitteeID: 0, Amount: Money{Cents: 1}},
		{TermID: "FA24", CommitteeID: 3, Amount: Money{Cents: -1}},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCommitteeValidate(t *testing.T) {
	if err := (Committee{ID: 1, Name: "Marketing", Type: CommitteeTypeCommittee}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Committee{ID: 1, Name: " ", Type: CommitteeTypeCommittee}).Validate(); err == nil {
		t.Fatal("expected error for blank name")
	}
	if err := (Committee{ID: 1, Name: "Marketing", Type: "board"}).Validate(); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
