package core

import "strings"

// DuplicateMatch pairs a candidate row with the existing transaction it
// collided with.
type DuplicateMatch struct {
	Candidate  Transaction
	ExistingID int64
}

func dedupeKey(details string, d Date) string {
	return strings.TrimSpace(details) + "\x00" + d.String()
}

// Dedupe splits candidate rows into new rows and duplicates. A candidate
// is a duplicate iff an existing transaction has the identical trimmed
// details and the identical date normalized to YYYY-MM-DD. Amount is
// deliberately not part of the key: a corrected re-export of the same
// row should still be flagged, not silently double-inserted. Candidates
// that collide with each other within the same upload are also reduced
// to one row.
func Dedupe(candidates, existing []Transaction) (fresh []Transaction, dups []DuplicateMatch) {
	existingByKey := make(map[string]int64, len(existing))
	for _, tx := range existing {
		k := dedupeKey(tx.Details, tx.Date)
		if _, ok := existingByKey[k]; !ok {
			existingByKey[k] = tx.ID
		}
	}

	seen := make(map[string]bool, len(candidates))
	for _, tx := range candidates {
		k := dedupeKey(tx.Details, tx.Date)
		if id, ok := existingByKey[k]; ok {
			dups = append(dups, DuplicateMatch{Candidate: tx, ExistingID: id})
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		fresh = append(fresh, tx)
	}
	return fresh, dups
}
