// Package store defines the table-store ports shared by the remote
// PostgREST backend, the local sqlite replica, and the in-memory fake.
package store

import (
	"context"
	"errors"
	"fmt"

	"finboard/internal/core"
)

// DefaultPageSize is the transaction read window. Other tables are
// small enough to read whole.
const DefaultPageSize = 1000

var (
	// ErrPermissionDenied marks writes rejected by the store's row-level
	// security policy. Handlers turn it into a hint instead of a bare 500.
	ErrPermissionDenied = errors.New("store permission denied")

	// ErrDuplicateKey marks unique-constraint violations, e.g. inserting
	// a term that already exists.
	ErrDuplicateKey = errors.New("duplicate key")
)

// TransactionPager serves fixed windows of the transactions table
// ordered by transaction id.
type TransactionPager interface {
	TransactionPage(ctx context.Context, offset, limit int) ([]core.Transaction, error)
}

// TableStore is the full read/write surface over the five tables.
type TableStore interface {
	TransactionPager

	Committees(ctx context.Context) ([]core.Committee, error)
	Terms(ctx context.Context) ([]core.Term, error)
	Budgets(ctx context.Context) ([]core.Budget, error)

	// InsertTransactions appends a batch with at-least-once semantics:
	// a partial failure returns the count already inserted plus an error,
	// and the inserted rows stay.
	InsertTransactions(ctx context.Context, txs []core.Transaction) (int, error)

	// UpdateTransactionCategory rewrites purpose and budget_category for
	// one transaction.
	UpdateTransactionCategory(ctx context.Context, id int64, purpose string, budgetCategory int64) error

	InsertTerm(ctx context.Context, term core.Term) error

	// DeleteBudgetsForTerm and InsertBudget together implement budget
	// replacement. The two steps are deliberately separate: there is no
	// transaction spanning them, so a concurrent reader can observe the
	// transient empty state.
	DeleteBudgetsForTerm(ctx context.Context, termID string) error
	InsertBudget(ctx context.Context, b core.Budget) error

	IsFileUploaded(ctx context.Context, fileName string) (bool, error)
	MarkFileUploaded(ctx context.Context, fileName string) error

	Close() error
}

// AllTransactions walks the pager in fixed windows and returns the
// union. The loop stops as soon as a page comes back shorter than the
// window, so a table holding 2500 rows with a 1000 window costs exactly
// three calls.
func AllTransactions(ctx context.Context, pager TransactionPager, window int) ([]core.Transaction, error) {
	if window <= 0 {
		window = DefaultPageSize
	}
	var all []core.Transaction
	offset := 0
	for {
		page, err := pager.TransactionPage(ctx, offset, window)
		if err != nil {
			return nil, fmt.Errorf("transaction page at offset %d: %w", offset, err)
		}
		all = append(all, page...)
		if len(page) < window {
			return all, nil
		}
		offset += window
	}
}
