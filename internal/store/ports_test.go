package store

import (
	"context"
	"testing"

	"finboard/internal/core"
)

type fakePager struct {
	rows  []core.Transaction
	calls int
}

func (p *fakePager) TransactionPage(_ context.Context, offset, limit int) ([]core.Transaction, error) {
	p.calls++
	if offset >= len(p.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(p.rows) {
		end = len(p.rows)
	}
	return p.rows[offset:end], nil
}

func makeRows(n int) []core.Transaction {
	rows := make([]core.Transaction, n)
	for i := range rows {
		rows[i] = core.Transaction{ID: int64(i + 1)}
	}
	return rows
}

func TestAllTransactionsPaging(t *testing.T) {
	cases := []struct {
		rows  int
		calls int
	}{
		{0, 1},
		{999, 1},
		{1000, 2}, // full page forces one more probe
		{2500, 3},
		{3000, 4},
	}
	for i, tc := range cases {
		p := &fakePager{rows: makeRows(tc.rows)}
		got, err := AllTransactions(context.Background(), p, 1000)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if len(got) != tc.rows {
			t.Fatalf("case %d: got %d rows, want %d", i, len(got), tc.rows)
		}
		if p.calls != tc.calls {
			t.Fatalf("case %d: %d rows took %d calls, want %d", i, tc.rows, p.calls, tc.calls)
		}
	}
}

func TestAllTransactionsNoDuplicates(t *testing.T) {
	p := &fakePager{rows: makeRows(2500)}
	got, err := AllTransactions(context.Background(), p, 1000)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[int64]bool, len(got))
	for _, tx := range got {
		if seen[tx.ID] {
			t.Fatalf("duplicate id %d in union", tx.ID)
		}
		seen[tx.ID] = true
	}
}
