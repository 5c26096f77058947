// Package memory implements the table store in process memory, for
// tests and local development without a remote store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"finboard/internal/core"
	"finboard/internal/store"
)

type Store struct {
	mu sync.RWMutex

	committees   []core.Committee
	terms        []core.Term
	budgets      []core.Budget
	transactions []core.Transaction
	uploaded     map[string]bool

	nextTransactionID int64
	nextBudgetID      int64

	// PageCalls counts TransactionPage invocations, used by tests that
	// assert the pagination contract.
	PageCalls int

	// FailInsertAfter, when > 0, fails InsertTransactions after that
	// many rows to exercise partial-batch behavior.
	FailInsertAfter int
}

var _ store.TableStore = (*Store)(nil)

func New() *Store {
	return &Store{
		uploaded:          make(map[string]bool),
		nextTransactionID: 1,
		nextBudgetID:      1,
	}
}

// Seed replaces the table contents wholesale.
func (s *Store) Seed(snap core.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committees = append([]core.Committee(nil), snap.Committees...)
	s.terms = append([]core.Term(nil), snap.Terms...)
	s.budgets = append([]core.Budget(nil), snap.Budgets...)
	s.transactions = append([]core.Transaction(nil), snap.Transactions...)
	for _, tx := range s.transactions {
		if tx.ID >= s.nextTransactionID {
			s.nextTransactionID = tx.ID + 1
		}
	}
	for _, b := range s.budgets {
		if b.ID >= s.nextBudgetID {
			s.nextBudgetID = b.ID + 1
		}
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) Committees(_ context.Context) ([]core.Committee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Committee(nil), s.committees...), nil
}

func (s *Store) Terms(_ context.Context) ([]core.Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Term(nil), s.terms...), nil
}

func (s *Store) Budgets(_ context.Context) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Budget(nil), s.budgets...), nil
}

func (s *Store) TransactionPage(_ context.Context, offset, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PageCalls++
	if offset >= len(s.transactions) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.transactions) {
		end = len(s.transactions)
	}
	return append([]core.Transaction(nil), s.transactions[offset:end]...), nil
}

func (s *Store) InsertTransactions(_ context.Context, txs []core.Transaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := 0
	for _, tx := range txs {
		if s.FailInsertAfter > 0 && inserted >= s.FailInsertAfter {
			return inserted, fmt.Errorf("insert transaction %d of %d: simulated failure", inserted+1, len(txs))
		}
		tx.ID = s.nextTransactionID
		s.nextTransactionID++
		s.transactions = append(s.transactions, tx)
		inserted++
	}
	return inserted, nil
}

func (s *Store) UpdateTransactionCategory(_ context.Context, id int64, purpose string, budgetCategory int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions[i].Purpose = purpose
			s.transactions[i].BudgetCategory = budgetCategory
			return nil
		}
	}
	return fmt.Errorf("update transaction %d: no such row", id)
}

func (s *Store) InsertTerm(_ context.Context, term core.Term) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.terms {
		if t.ID == term.ID {
			return fmt.Errorf("%w: term %s", store.ErrDuplicateKey, term.ID)
		}
	}
	s.terms = append(s.terms, term)
	return nil
}

func (s *Store) DeleteBudgetsForTerm(_ context.Context, termID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.budgets[:0]
	for _, b := range s.budgets {
		if b.TermID != termID {
			kept = append(kept, b)
		}
	}
	s.budgets = kept
	return nil
}

func (s *Store) InsertBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextBudgetID
	s.nextBudgetID++
	s.budgets = append(s.budgets, b)
	return nil
}

func (s *Store) IsFileUploaded(_ context.Context, fileName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uploaded[fileName], nil
}

func (s *Store) MarkFileUploaded(_ context.Context, fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded[fileName] = true
	return nil
}
