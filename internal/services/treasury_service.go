package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/store"
)

// ErrUnknownExport marks a CSV export request for a table that is not
// exported.
var ErrUnknownExport = errors.New("unknown export table")

// CategoryUpdate is one requested purpose/budget_category rewrite.
type CategoryUpdate struct {
	TransactionID  int64
	Purpose        string
	BudgetCategory int64
}

// CategoryUpdateError records one row that failed to update.
type CategoryUpdateError struct {
	TransactionID int64
	Err           error
}

// CategorizeResult reports a categorization pass. Rows whose stored
// values already match are skipped, and per-row failures never abort
// the rest of the batch.
type CategorizeResult struct {
	Updated   int
	Unchanged int
	Failed    []CategoryUpdateError
}

// BudgetLine is one committee's budget row for the editor, joined with
// the committee name.
type BudgetLine struct {
	CommitteeID   int64
	CommitteeName string
	Amount        core.Money
}

// IntegrityReport lists referential problems the store cannot prevent.
type IntegrityReport struct {
	OrphanedBudgets      []core.Budget      // committee FK broken
	OrphanedTransactions []core.Transaction // budget_category FK broken
	DuplicateBudgets     []DuplicateBudget  // same (term, committee) twice
	UnbudgetedSpend      []UnbudgetedSpend  // spend with no budget row
	OverlappingTerms     [][2]core.Term
}

// DuplicateBudget identifies a (term, committee) pair holding more than
// one budget row. A naive sum double-counts these.
type DuplicateBudget struct {
	TermID      string
	CommitteeID int64
	Rows        int
}

// UnbudgetedSpend identifies a committee with expense transactions
// resolved to a term that has no budget row for the pair. The budget
// summary only renders a term's budget rows, so without this warning
// the spend would be invisible everywhere.
type UnbudgetedSpend struct {
	TermID      string
	CommitteeID int64
	Spent       core.Money
}

// Overview is the treasury landing view: org-wide totals, the most
// recent transactions, and the integrity report.
type Overview struct {
	TotalIncome   core.Money
	TotalExpenses core.Money
	Net           core.Money
	Transactions  int
	Recent        []core.Transaction
	Integrity     IntegrityReport
}

const recentTransactionLimit = 10

// TreasuryService implements the restricted management surface:
// categorization, term and budget management, the data overview, and
// CSV exports. Reads go through the report service so they share the
// cached snapshot; writes go straight to the store and bump the
// generation.
type TreasuryService struct {
	store   store.TableStore
	reports *ReportService
	gen     *cache.Generation
}

func NewTreasuryService(st store.TableStore, reports *ReportService) *TreasuryService {
	return &TreasuryService{
		store:   st,
		reports: reports,
		gen:     reports.Generation(),
	}
}

// Categorize applies per-row purpose/budget_category updates. Rows
// already holding the requested values are not written.
func (s *TreasuryService) Categorize(ctx context.Context, updates []CategoryUpdate) (*CategorizeResult, error) {
	snap, err := s.reports.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	current := make(map[int64]core.Transaction, len(snap.Transactions))
	for _, tx := range snap.Transactions {
		current[tx.ID] = tx
	}

	result := &CategorizeResult{}
	for _, u := range updates {
		tx, ok := current[u.TransactionID]
		if ok && tx.Purpose == u.Purpose && tx.BudgetCategory == u.BudgetCategory {
			result.Unchanged++
			continue
		}
		if err := s.store.UpdateTransactionCategory(ctx, u.TransactionID, u.Purpose, u.BudgetCategory); err != nil {
			slog.WarnContext(ctx, "Failed to update transaction category",
				"transaction_id", u.TransactionID, "error", err)
			result.Failed = append(result.Failed, CategoryUpdateError{TransactionID: u.TransactionID, Err: err})
			continue
		}
		result.Updated++
	}

	if result.Updated > 0 {
		s.gen.Bump()
	}

	slog.InfoContext(ctx, "Categorization pass finished",
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"failed", len(result.Failed))

	return result, nil
}

// AddTerm validates and inserts a new term. The semester name must
// start with a season and carry a four-digit year; it is stored
// title-cased. Duplicate term ids surface as store.ErrDuplicateKey.
func (s *TreasuryService) AddTerm(ctx context.Context, term core.Term) error {
	term.ID = strings.ToUpper(strings.TrimSpace(term.ID))
	term.Semester = titleCase(term.Semester)

	if err := term.Validate(); err != nil {
		return err
	}

	if err := s.store.InsertTerm(ctx, term); err != nil {
		return fmt.Errorf("insert term %s: %w", term.ID, err)
	}
	s.gen.Bump()

	slog.InfoContext(ctx, "Added term",
		"term_id", term.ID,
		"semester", term.Semester)
	return nil
}

// TermBudgets lists a term's budget rows joined with committee names,
// restricted to committees of type "committee". Committees without a
// budget row appear with zero so the editor shows the full set.
func (s *TreasuryService) TermBudgets(ctx context.Context, termID string) ([]BudgetLine, error) {
	snap, err := s.reports.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.TermByID(termID) == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTerm, termID)
	}

	amounts := make(map[int64]core.Money)
	for _, b := range snap.Budgets {
		if b.TermID != termID {
			continue
		}
		amounts[b.CommitteeID] = amounts[b.CommitteeID].Add(b.Amount)
	}

	var lines []BudgetLine
	for _, c := range snap.Committees {
		if c.Type != core.CommitteeTypeCommittee {
			continue
		}
		lines = append(lines, BudgetLine{
			CommitteeID:   c.ID,
			CommitteeName: c.Name,
			Amount:        amounts[c.ID],
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].CommitteeName < lines[j].CommitteeName
	})
	return lines, nil
}

// SaveBudgets replaces a term's budget rows: delete by term, then
// insert one row per line. There is no transaction across the two
// steps, so a concurrent reader can observe the transient empty state.
func (s *TreasuryService) SaveBudgets(ctx context.Context, termID string, budgets []core.Budget) error {
	for i := range budgets {
		budgets[i].TermID = termID
		if err := budgets[i].Validate(); err != nil {
			return fmt.Errorf("budget for committee %d: %w", budgets[i].CommitteeID, err)
		}
	}

	if err := s.store.DeleteBudgetsForTerm(ctx, termID); err != nil {
		return fmt.Errorf("delete budgets for term %s: %w", termID, err)
	}
	defer s.gen.Bump()

	for _, b := range budgets {
		if err := s.store.InsertBudget(ctx, b); err != nil {
			return fmt.Errorf("insert budget for committee %d: %w", b.CommitteeID, err)
		}
	}

	slog.InfoContext(ctx, "Replaced term budgets",
		"term_id", termID,
		"rows", len(budgets))
	return nil
}

// DataOverview assembles the treasury landing view from one snapshot.
func (s *TreasuryService) DataOverview(ctx context.Context) (*Overview, error) {
	snap, err := s.reports.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	o := &Overview{Transactions: len(snap.Transactions)}
	for _, tx := range snap.Transactions {
		if tx.IsIncome() {
			o.TotalIncome = o.TotalIncome.Add(tx.Amount)
		} else if tx.IsExpense() {
			o.TotalExpenses = o.TotalExpenses.Add(tx.Amount.Abs())
		}
	}
	o.Net = o.TotalIncome.Sub(o.TotalExpenses)
	o.Recent = recentTransactions(snap.Transactions, recentTransactionLimit)
	o.Integrity = checkIntegrity(snap)
	return o, nil
}

// recentTransactions returns the newest rows, dated rows first in date
// descending order, id descending on ties.
func recentTransactions(txs []core.Transaction, limit int) []core.Transaction {
	sorted := append([]core.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date.Time) {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].ID > sorted[j].ID
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// checkIntegrity reports the referential problems the store schema does
// not enforce.
func checkIntegrity(snap core.Snapshot) IntegrityReport {
	var report IntegrityReport

	for _, b := range snap.Budgets {
		if snap.CommitteeByID(b.CommitteeID) == nil {
			report.OrphanedBudgets = append(report.OrphanedBudgets, b)
		}
	}

	for _, tx := range snap.Transactions {
		if tx.BudgetCategory != 0 && snap.CommitteeByID(tx.BudgetCategory) == nil {
			report.OrphanedTransactions = append(report.OrphanedTransactions, tx)
		}
	}

	type budgetKey struct {
		termID      string
		committeeID int64
	}
	counts := make(map[budgetKey]int)
	for _, b := range snap.Budgets {
		counts[budgetKey{b.TermID, b.CommitteeID}]++
	}
	for key, n := range counts {
		if n > 1 {
			report.DuplicateBudgets = append(report.DuplicateBudgets, DuplicateBudget{
				TermID:      key.termID,
				CommitteeID: key.committeeID,
				Rows:        n,
			})
		}
	}
	sort.SliceStable(report.DuplicateBudgets, func(i, j int) bool {
		if report.DuplicateBudgets[i].TermID != report.DuplicateBudgets[j].TermID {
			return report.DuplicateBudgets[i].TermID < report.DuplicateBudgets[j].TermID
		}
		return report.DuplicateBudgets[i].CommitteeID < report.DuplicateBudgets[j].CommitteeID
	})

	// Committee spend resolved to a term with no budget row for the
	// pair never reaches the budget summary; surface it here instead.
	// A zero-amount budget row keeps the committee visible, so only a
	// fully missing row counts.
	resolver := core.NewTermResolver(snap.Terms)
	spend := make(map[budgetKey]core.Money)
	for _, tx := range snap.Transactions {
		if !tx.IsExpense() || tx.BudgetCategory == 0 {
			continue
		}
		c := snap.CommitteeByID(tx.BudgetCategory)
		if c == nil || c.Type != core.CommitteeTypeCommittee {
			continue
		}
		term := resolver.Resolve(tx.Date)
		if term == nil {
			continue
		}
		key := budgetKey{term.ID, c.ID}
		if counts[key] > 0 {
			continue
		}
		spend[key] = spend[key].Add(tx.Amount.Abs())
	}
	for key, amount := range spend {
		report.UnbudgetedSpend = append(report.UnbudgetedSpend, UnbudgetedSpend{
			TermID:      key.termID,
			CommitteeID: key.committeeID,
			Spent:       amount,
		})
	}
	sort.SliceStable(report.UnbudgetedSpend, func(i, j int) bool {
		if report.UnbudgetedSpend[i].TermID != report.UnbudgetedSpend[j].TermID {
			return report.UnbudgetedSpend[i].TermID < report.UnbudgetedSpend[j].TermID
		}
		return report.UnbudgetedSpend[i].CommitteeID < report.UnbudgetedSpend[j].CommitteeID
	})

	report.OverlappingTerms = core.OverlappingTerms(snap.Terms)
	return report
}

// ExportCSV writes one table as CSV. Supported tables: transactions,
// budgets, terms.
func (s *TreasuryService) ExportCSV(ctx context.Context, table string, w io.Writer) error {
	snap, err := s.reports.Snapshot(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	switch table {
	case "transactions":
		if err := cw.Write([]string{"transactionid", "transaction_date", "amount", "details", "purpose", "budget_category", "account"}); err != nil {
			return err
		}
		for _, tx := range snap.Transactions {
			category := ""
			if tx.BudgetCategory != 0 {
				category = strconv.FormatInt(tx.BudgetCategory, 10)
			}
			record := []string{
				strconv.FormatInt(tx.ID, 10),
				tx.Date.String(),
				strconv.FormatFloat(tx.Amount.Dollars(), 'f', 2, 64),
				tx.Details,
				tx.Purpose,
				category,
				tx.Account,
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	case "budgets":
		if err := cw.Write([]string{"committeebudgetid", "termid", "committeeid", "budget_amount"}); err != nil {
			return err
		}
		for _, b := range snap.Budgets {
			record := []string{
				strconv.FormatInt(b.ID, 10),
				b.TermID,
				strconv.FormatInt(b.CommitteeID, 10),
				strconv.FormatFloat(b.Amount.Dollars(), 'f', 2, 64),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	case "terms":
		if err := cw.Write([]string{"TermID", "Semester", "start_date", "end_date"}); err != nil {
			return err
		}
		for _, t := range core.SortTermsByStart(snap.Terms) {
			record := []string{t.ID, t.Semester, t.StartDate.String(), t.EndDate.String()}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownExport, table)
	}

	cw.Flush()
	return cw.Error()
}

// titleCase uppercases the first rune of each word and lowercases the
// rest, so "fall 2024" stores as "Fall 2024".
func titleCase(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
