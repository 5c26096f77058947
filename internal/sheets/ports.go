package sheets

import "context"

// LedgerEntry is one row appended to the audit ledger copy. Dates are
// YYYY-MM-DD strings and amounts dollar floats, matching what auditors
// see in the spreadsheet.
type LedgerEntry struct {
	Date     string
	Amount   float64
	Details  string
	Purpose  string
	Category int64
	Account  string
}

// Ports for outbound adapters.
type (
	// LedgerWriter appends mirrored transaction batches to the ledger.
	LedgerWriter interface {
		AppendEntries(ctx context.Context, entries []LedgerEntry) error
	}
)
