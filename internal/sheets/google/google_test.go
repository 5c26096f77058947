package google

import (
	"context"
	"reflect"
	"testing"

	ports "finboard/internal/sheets"
)

func TestEntriesToValues(t *testing.T) {
	entries := []ports.LedgerEntry{
		{Date: "2024-09-10", Amount: -86.40, Details: "Pizza night", Purpose: "Food", Category: 2, Account: "Venmo"},
		{Date: "", Amount: 50, Details: "dues", Account: "Wells"},
	}

	got := entriesToValues(entries)
	want := [][]any{
		{"2024-09-10", -86.40, "Pizza night", "Food", int64(2), "Venmo"},
		{"", 50.0, "dues", "", "", "Wells"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("entriesToValues = %#v, want %#v", got, want)
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}

func TestNewRequiresOAuthMaterial(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"})
	if err == nil {
		t.Fatal("expected error for missing oauth material")
	}
}
