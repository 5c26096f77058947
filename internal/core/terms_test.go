package core

import "testing"

func termFixtures() []Term {
	return []Term{
		{ID: "SP25", Semester: "Spring 2025", StartDate: NewDate(2025, 1, 13), EndDate: NewDate(2025, 5, 2)},
		{ID: "FA24", Semester: "Fall 2024", StartDate: NewDate(2024, 8, 26), EndDate: NewDate(2024, 12, 14)},
		{ID: "SP24", Semester: "Spring 2024", StartDate: NewDate(2024, 1, 16), EndDate: NewDate(2024, 5, 3)},
	}
}

func TestResolveTerm(t *testing.T) {
	terms := termFixtures()
	cases := []struct {
		d    Date
		want string // "" means nil
	}{
		{NewDate(2024, 8, 26), "FA24"},  // inclusive start
		{NewDate(2024, 12, 14), "FA24"}, // inclusive end
		{NewDate(2024, 10, 1), "FA24"},
		{NewDate(2025, 2, 1), "SP25"},
		{NewDate(2024, 6, 1), ""}, // between terms
		{NewDate(2030, 1, 1), ""},
		{Date{}, ""}, // missing date
	}
	for i, tc := range cases {
		got := ResolveTerm(tc.d, terms)
		if tc.want == "" {
			if got != nil {
				t.Fatalf("case %d: expected nil, got %s", i, got.ID)
			}
			continue
		}
		if got == nil || got.ID != tc.want {
			t.Fatalf("case %d: expected %s, got %v", i, tc.want, got)
		}
	}
}

func TestResolveTermOverlapEarliestWins(t *testing.T) {
	terms := []Term{
		{ID: "B", Semester: "Spring 2024", StartDate: NewDate(2024, 2, 1), EndDate: NewDate(2024, 6, 30)},
		{ID: "A", Semester: "Winter 2024", StartDate: NewDate(2024, 1, 1), EndDate: NewDate(2024, 3, 31)},
	}
	got := ResolveTerm(NewDate(2024, 3, 1), terms)
	if got == nil || got.ID != "A" {
		t.Fatalf("expected earliest-starting term A, got %v", got)
	}
}

func TestPreviousTerm(t *testing.T) {
	terms := termFixtures()
	cases := []struct {
		id   string
		want string
	}{
		{"SP25", "FA24"},
		{"FA24", "SP24"},
		{"SP24", ""}, // earliest term
		{"XX99", ""}, // unknown term
	}
	for i, tc := range cases {
		got := PreviousTerm(tc.id, terms)
		if tc.want == "" {
			if got != nil {
				t.Fatalf("case %d: expected nil, got %s", i, got.ID)
			}
			continue
		}
		if got == nil || got.ID != tc.want {
			t.Fatalf("case %d: expected %s, got %v", i, tc.want, got)
		}
	}
}

func TestPreviousTermCollapsesDuplicates(t *testing.T) {
	terms := append(termFixtures(),
		// double-inserted row, same semester and start date
		Term{ID: "FA24-dup", Semester: "Fall 2024", StartDate: NewDate(2024, 8, 26), EndDate: NewDate(2024, 12, 14)},
	)
	got := PreviousTerm("SP25", terms)
	if got == nil || got.Semester != "Fall 2024" {
		t.Fatalf("expected Fall 2024, got %v", got)
	}
	// the duplicate must not make FA24 its own predecessor
	prev := PreviousTerm("FA24", terms)
	if prev == nil || prev.ID != "SP24" {
		t.Fatalf("expected SP24, got %v", prev)
	}
}

func TestOverlappingTerms(t *testing.T) {
	if pairs := OverlappingTerms(termFixtures()); len(pairs) != 0 {
		t.Fatalf("expected no overlaps, got %d", len(pairs))
	}
	overlapping := []Term{
		{ID: "A", Semester: "Fall 2024", StartDate: NewDate(2024, 8, 1), EndDate: NewDate(2024, 12, 31)},
		{ID: "B", Semester: "Winter 2024", StartDate: NewDate(2024, 12, 1), EndDate: NewDate(2025, 1, 15)},
	}
	pairs := OverlappingTerms(overlapping)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 overlapping pair, got %d", len(pairs))
	}
}
