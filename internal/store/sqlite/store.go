// Package sqlite implements the table store on a local sqlite replica,
// used for offline development and as a standalone deployment mode.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"finboard/internal/core"
	"finboard/internal/store"
)

type Store struct {
	db *sql.DB
}

var _ store.TableStore = (*Store)(nil)

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Committees(ctx context.Context) ([]core.Committee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT CommitteeID, Committee_Name, Committee_Type FROM committees ORDER BY CommitteeID`)
	if err != nil {
		return nil, fmt.Errorf("load committees: %w", err)
	}
	defer rows.Close()

	var out []core.Committee
	for rows.Next() {
		var c core.Committee
		var ctype string
		if err := rows.Scan(&c.ID, &c.Name, &ctype); err != nil {
			return nil, fmt.Errorf("scan committee: %w", err)
		}
		c.Type = core.CommitteeType(strings.ToLower(strings.TrimSpace(ctype)))
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Terms(ctx context.Context) ([]core.Term, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT TermID, Semester, start_date, end_date FROM terms ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("load terms: %w", err)
	}
	defer rows.Close()

	var out []core.Term
	for rows.Next() {
		var t core.Term
		var start, end string
		if err := rows.Scan(&t.ID, &t.Semester, &start, &end); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		if d, err := core.ParseDate(start); err == nil {
			t.StartDate = d
		}
		if d, err := core.ParseDate(end); err == nil {
			t.EndDate = d
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) Budgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT committeebudgetid, termid, committeeid, budget_amount
		 FROM committeebudgets ORDER BY committeebudgetid`)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		var amount float64
		if err := rows.Scan(&b.ID, &b.TermID, &b.CommitteeID, &amount); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Amount = core.FromDollars(amount)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) TransactionPage(ctx context.Context, offset, limit int) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT transactionid, transaction_date, amount, details, purpose, budget_category, account
		 FROM transactions ORDER BY transactionid LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var tx core.Transaction
		var date, purpose sql.NullString
		var category sql.NullInt64
		var amount float64
		if err := rows.Scan(&tx.ID, &date, &amount, &tx.Details, &purpose, &category, &tx.Account); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Amount = core.FromDollars(amount)
		if date.Valid {
			if d, err := core.ParseDate(date.String); err == nil {
				tx.Date = d
			}
		}
		if purpose.Valid {
			tx.Purpose = purpose.String
		}
		if category.Valid {
			tx.BudgetCategory = category.Int64
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// InsertTransactions appends rows one at a time, deliberately without a
// wrapping transaction: a mid-batch failure keeps the rows already
// inserted, matching the remote store's at-least-once behavior.
func (s *Store) InsertTransactions(ctx context.Context, txs []core.Transaction) (int, error) {
	inserted := 0
	for _, tx := range txs {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO transactions (transaction_date, amount, details, purpose, budget_category, account)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			nullString(tx.Date.String()), tx.Amount.Dollars(), tx.Details,
			nullString(tx.Purpose), nullInt(tx.BudgetCategory), tx.Account)
		if err != nil {
			return inserted, fmt.Errorf("insert transaction %d of %d: %w", inserted+1, len(txs), err)
		}
		inserted++
	}
	return inserted, nil
}

func (s *Store) UpdateTransactionCategory(ctx context.Context, id int64, purpose string, budgetCategory int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET purpose = ?, budget_category = ? WHERE transactionid = ?`,
		nullString(purpose), nullInt(budgetCategory), id)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update transaction %d: no such row", id)
	}
	return nil
}

func (s *Store) InsertTerm(ctx context.Context, term core.Term) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO terms (TermID, Semester, start_date, end_date) VALUES (?, ?, ?, ?)`,
		term.ID, term.Semester, term.StartDate.String(), term.EndDate.String())
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return fmt.Errorf("%w: term %s", store.ErrDuplicateKey, term.ID)
		}
		return fmt.Errorf("insert term %s: %w", term.ID, err)
	}
	return nil
}

func (s *Store) DeleteBudgetsForTerm(ctx context.Context, termID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM committeebudgets WHERE termid = ?`, termID); err != nil {
		return fmt.Errorf("delete budgets for term %s: %w", termID, err)
	}
	return nil
}

func (s *Store) InsertBudget(ctx context.Context, b core.Budget) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO committeebudgets (termid, committeeid, budget_amount) VALUES (?, ?, ?)`,
		b.TermID, b.CommitteeID, b.Amount.Dollars())
	if err != nil {
		return fmt.Errorf("insert budget for committee %d: %w", b.CommitteeID, err)
	}
	return nil
}

func (s *Store) IsFileUploaded(ctx context.Context, fileName string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM uploaded_files WHERE file_name = ?`, fileName).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check uploaded file %s: %w", fileName, err)
	}
	return n > 0, nil
}

func (s *Store) MarkFileUploaded(ctx context.Context, fileName string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO uploaded_files (file_name) VALUES (?)`, fileName); err != nil {
		return fmt.Errorf("mark file uploaded %s: %w", fileName, err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}
