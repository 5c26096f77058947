// Package ingest parses bank and payment-app statement exports into
// transaction rows ready for dedup and staging.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"finboard/internal/core"
)

// Statement kinds, detected from the uploaded file name.
const (
	KindVenmo    = "venmo"
	KindChecking = "checking"
)

const (
	venmoAccount    = "Venmo"
	checkingAccount = "Wells"
)

var ErrUnknownStatement = errors.New("unrecognized statement file name")

// RowError records a row that could not be parsed, without failing the
// rest of the file.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// DetectKind classifies an uploaded statement by file name. Venmo
// exports carry "VenmoStatement" in the name; bank exports carry
// "Checking".
func DetectKind(fileName string) (string, error) {
	lower := strings.ToLower(fileName)
	switch {
	case strings.Contains(lower, "venmostatement"):
		return KindVenmo, nil
	case strings.Contains(lower, "checking"):
		return KindChecking, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownStatement, fileName)
}

// Parse dispatches to the parser for the detected statement kind.
func Parse(kind string, r io.Reader) ([]core.Transaction, []RowError, error) {
	switch kind {
	case KindVenmo:
		return ParseVenmo(r)
	case KindChecking:
		return ParseChecking(r)
	}
	return nil, nil, fmt.Errorf("%w: kind %q", ErrUnknownStatement, kind)
}

// ParseVenmo reads a Venmo statement CSV. Venmo exports open with
// preamble lines before the real header, so the header row is
// discovered by scanning for a row that names both a date and an amount
// column. Details are assembled from the identifying columns joined
// with " | " so the dedup key survives re-exports.
func ParseVenmo(r io.Reader) ([]core.Transaction, []RowError, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, nil, err
	}

	headerIdx := -1
	var cols venmoColumns
	for i, rec := range records {
		if c, ok := findVenmoColumns(rec); ok {
			headerIdx = i
			cols = c
			break
		}
	}
	if headerIdx == -1 {
		return nil, nil, errors.New("venmo statement: header row not found")
	}

	var (
		txs     []core.Transaction
		rowErrs []RowError
	)
	for i, rec := range records[headerIdx+1:] {
		line := headerIdx + i + 2
		if isBlankRow(rec) || isVenmoFooter(rec) {
			continue
		}
		tx, err := venmoRow(rec, cols)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		txs = append(txs, tx)
	}
	return Clean(txs), rowErrs, nil
}

type venmoColumns struct {
	date, amount, id, note, from, to int
}

// findVenmoColumns reports whether rec is the header row and, if so,
// where each column of interest lives.
func findVenmoColumns(rec []string) (venmoColumns, bool) {
	cols := venmoColumns{date: -1, amount: -1, id: -1, note: -1, from: -1, to: -1}
	amountFallback := -1
	for i, cell := range rec {
		name := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case name == "date" || strings.HasPrefix(name, "date"):
			if cols.date == -1 {
				cols.date = i
			}
		case strings.Contains(name, "amount") && strings.Contains(name, "total"):
			cols.amount = i
		case strings.Contains(name, "amount"):
			if amountFallback == -1 {
				amountFallback = i
			}
		case name == "id" || (strings.Contains(name, "transaction") && strings.Contains(name, "id")):
			cols.id = i
		case strings.Contains(name, "note"):
			cols.note = i
		case name == "from":
			cols.from = i
		case name == "to":
			cols.to = i
		}
	}
	if cols.amount == -1 {
		cols.amount = amountFallback
	}
	if cols.date == -1 || cols.amount == -1 {
		return venmoColumns{}, false
	}
	return cols, true
}

func isBlankRow(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// isVenmoFooter drops the "account statement" summary rows Venmo
// appends below the transaction list.
func isVenmoFooter(rec []string) bool {
	joined := strings.ToLower(strings.Join(rec, " "))
	return strings.Contains(joined, "account statement")
}

func venmoRow(rec []string, cols venmoColumns) (core.Transaction, error) {
	tx := core.Transaction{Account: venmoAccount}

	tx.Date = parseStatementDate(cell(rec, cols.date))
	amount, _ := core.ParseAmount(cell(rec, cols.amount))
	tx.Amount = amount

	var parts []string
	for _, idx := range []int{cols.id, cols.note, cols.from, cols.to} {
		if v := strings.TrimSpace(cell(rec, idx)); v != "" {
			parts = append(parts, v)
		}
	}
	tx.Details = strings.Join(parts, " | ")

	if tx.Date.IsZero() && tx.Details == "" && tx.Amount.Cents == 0 {
		return tx, errors.New("empty row")
	}
	return tx, nil
}

// ParseChecking reads a bank checking-account CSV. The export has no
// header: column 0 is the date, column 1 the amount, and column 4 the
// description (falling back to the last column on short rows).
func ParseChecking(r io.Reader) ([]core.Transaction, []RowError, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, nil, err
	}

	var (
		txs     []core.Transaction
		rowErrs []RowError
	)
	for i, rec := range records {
		if len(rec) < 2 {
			continue
		}
		tx := core.Transaction{Account: checkingAccount}
		tx.Date = parseStatementDate(rec[0])
		amount, _ := core.ParseAmount(rec[1])
		tx.Amount = amount

		detailsIdx := 4
		if len(rec) <= detailsIdx {
			detailsIdx = len(rec) - 1
		}
		tx.Details = strings.TrimSpace(rec[detailsIdx])

		// A header or footer line has neither a date nor an amount.
		if tx.Date.IsZero() && tx.Amount.Cents == 0 && i == 0 {
			continue
		}
		if tx.Date.IsZero() && tx.Details == "" && tx.Amount.Cents == 0 {
			rowErrs = append(rowErrs, RowError{Line: i + 1, Err: errors.New("empty row")})
			continue
		}
		txs = append(txs, tx)
	}
	return Clean(txs), rowErrs, nil
}

// Clean drops statement noise: footer rows with no date and blank-ish
// details, and zero-amount rows with no details. Details made of pure
// separator characters ("|", "-", whitespace) count as blank, so a
// dateless "-" filler line never becomes a transaction.
func Clean(txs []core.Transaction) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		bare := strings.Map(func(r rune) rune {
			if r == '|' || r == '-' || unicode.IsSpace(r) {
				return -1
			}
			return r
		}, tx.Details)
		if tx.Date.IsZero() && bare == "" {
			continue
		}
		if tx.Amount.Cents == 0 && bare == "" {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// duesKeywords mark membership payments for auto-classification.
var duesKeywords = []string{"dues", "due", "membership fee", "membership payment", "membership"}

// DuesCommitteeID is the budget category membership dues are filed
// under.
const DuesCommitteeID = 1

// AutoClassify fills purpose and budget_category for rows whose details
// identify them as membership dues. Everything else is left for manual
// categorization.
func AutoClassify(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	for i, tx := range txs {
		lower := strings.ToLower(tx.Details)
		for _, kw := range duesKeywords {
			if strings.Contains(lower, kw) {
				tx.Purpose = "Dues"
				tx.BudgetCategory = DuesCommitteeID
				break
			}
		}
		out[i] = tx
	}
	return out
}

// parseStatementDate accepts the date formats the two exports use and
// returns a zero date for anything else. A zero date keeps the row but
// leaves it term-unresolved.
func parseStatementDate(s string) core.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}
	}
	// Venmo timestamps are ISO with a time suffix.
	if len(s) >= 10 {
		if d, err := core.ParseDate(s[:10]); err == nil {
			return d
		}
	}
	for _, layout := range []string{"01/02/2006", "1/2/2006", "01/02/06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Date{Time: t}
		}
	}
	return core.Date{}
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

func readAll(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}
