package core

import "sort"

// SortTermsByStart returns a copy of terms sorted ascending by start
// date, with ID as a tiebreak so the order is stable across loads.
func SortTermsByStart(terms []Term) []Term {
	out := make([]Term, len(terms))
	copy(out, terms)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate.Time) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out
}

// ResolveTerm maps a transaction date to the term whose inclusive
// [start, end] range contains it. When terms overlap, the one with the
// earliest start date wins. Returns nil for a zero date or when no term
// matches.
func ResolveTerm(d Date, terms []Term) *Term {
	if d.IsZero() {
		return nil
	}
	sorted := SortTermsByStart(terms)
	for i := range sorted {
		if sorted[i].Contains(d) {
			return &sorted[i]
		}
	}
	return nil
}

// TermResolver resolves many dates against one sorted view of the terms
// table. Use it when walking a whole transactions slice so the sort
// happens once.
type TermResolver struct {
	sorted []Term
}

func NewTermResolver(terms []Term) *TermResolver {
	return &TermResolver{sorted: SortTermsByStart(terms)}
}

// Resolve returns the matching term for d, or nil.
func (r *TermResolver) Resolve(d Date) *Term {
	if d.IsZero() {
		return nil
	}
	for i := range r.sorted {
		if r.sorted[i].Contains(d) {
			return &r.sorted[i]
		}
	}
	return nil
}

// PreviousTerm returns the term immediately preceding the given term in
// chronological order, or nil when the term is the earliest or unknown.
// Duplicate (semester, start date) rows collapse to a single entry so a
// double-inserted term cannot become its own predecessor.
func PreviousTerm(termID string, terms []Term) *Term {
	sorted := SortTermsByStart(terms)

	type termKey struct {
		semester string
		start    string
	}
	seen := make(map[termKey]bool)
	var distinct []Term
	for _, t := range sorted {
		k := termKey{semester: t.Semester, start: t.StartDate.String()}
		if seen[k] {
			continue
		}
		seen[k] = true
		distinct = append(distinct, t)
	}

	for i := range distinct {
		if distinct[i].ID == termID {
			if i == 0 {
				return nil
			}
			return &distinct[i-1]
		}
	}
	return nil
}

// OverlappingTerms returns every pair of terms whose date ranges
// intersect, for the integrity report.
func OverlappingTerms(terms []Term) [][2]Term {
	sorted := SortTermsByStart(terms)
	var pairs [][2]Term
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i].Overlaps(sorted[j]) {
				pairs = append(pairs, [2]Term{sorted[i], sorted[j]})
			}
		}
	}
	return pairs
}
