package core

import "testing"

func TestDedupe(t *testing.T) {
	existing := []Transaction{
		{ID: 1, Date: NewDate(2024, 9, 10), Amount: Money{Cents: -1200}, Details: "flyers"},
		{ID: 2, Date: NewDate(2024, 9, 11), Amount: Money{Cents: 5000}, Details: "dues payment"},
	}
	candidates := []Transaction{
		{Date: NewDate(2024, 9, 10), Amount: Money{Cents: -1200}, Details: "flyers"},      // exact dup
		{Date: NewDate(2024, 9, 10), Amount: Money{Cents: -9900}, Details: " flyers "},    // dup despite amount and padding
		{Date: NewDate(2024, 9, 12), Amount: Money{Cents: -1200}, Details: "flyers"},      // different date, new
		{Date: NewDate(2024, 9, 11), Amount: Money{Cents: 5000}, Details: "dues payment"}, // dup
		{Date: NewDate(2024, 9, 13), Amount: Money{Cents: -300}, Details: "stickers"},     // new
	}

	fresh, dups := Dedupe(candidates, existing)
	if len(fresh) != 2 {
		t.Fatalf("expected 2 new rows, got %d", len(fresh))
	}
	if len(dups) != 3 {
		t.Fatalf("expected 3 duplicates, got %d", len(dups))
	}
	for _, d := range dups {
		if d.ExistingID == 0 {
			t.Fatalf("duplicate missing existing id: %+v", d)
		}
	}
}

func TestDedupeAmountNotPartOfKey(t *testing.T) {
	existing := []Transaction{{ID: 7, Date: NewDate(2024, 9, 10), Amount: Money{Cents: -100}, Details: "pizza"}}
	candidates := []Transaction{{Date: NewDate(2024, 9, 10), Amount: Money{Cents: -999}, Details: "pizza"}}
	fresh, dups := Dedupe(candidates, existing)
	if len(fresh) != 0 || len(dups) != 1 {
		t.Fatalf("expected amount-insensitive duplicate, got fresh=%d dups=%d", len(fresh), len(dups))
	}
	if dups[0].ExistingID != 7 {
		t.Fatalf("expected existing id 7, got %d", dups[0].ExistingID)
	}
}

func TestDedupeWithinBatch(t *testing.T) {
	candidates := []Transaction{
		{Date: NewDate(2024, 9, 14), Amount: Money{Cents: -500}, Details: "banner"},
		{Date: NewDate(2024, 9, 14), Amount: Money{Cents: -500}, Details: "banner"},
	}
	fresh, dups := Dedupe(candidates, nil)
	if len(fresh) != 1 {
		t.Fatalf("expected in-batch collapse to 1 row, got %d", len(fresh))
	}
	if len(dups) != 0 {
		t.Fatalf("in-batch repeats are not reported as store duplicates, got %d", len(dups))
	}
}
