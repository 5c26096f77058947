// Package memory implements the ledger writer in process memory, for
// worker tests and local runs without Sheets credentials.
package memory

import (
	"context"
	"sync"

	"finboard/internal/sheets"
)

type Ledger struct {
	mu      sync.Mutex
	entries []sheets.LedgerEntry

	// FailNext makes the next append fail once, for requeue tests.
	FailNext error
}

var _ sheets.LedgerWriter = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) AppendEntries(_ context.Context, entries []sheets.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailNext != nil {
		err := l.FailNext
		l.FailNext = nil
		return err
	}
	l.entries = append(l.entries, entries...)
	return nil
}

// Entries returns a copy of everything appended so far.
func (l *Ledger) Entries() []sheets.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]sheets.LedgerEntry(nil), l.entries...)
}
