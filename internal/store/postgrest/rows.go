package postgrest

import (
	"strings"

	"finboard/internal/core"
)

// Wire rows mirror the store's column names exactly. The schema
// predates this service, hence the mixed naming conventions.
type (
	committeeRow struct {
		CommitteeID   int64  `json:"CommitteeID"`
		CommitteeName string `json:"Committee_Name"`
		CommitteeType string `json:"Committee_Type"`
	}

	termRow struct {
		TermID    string `json:"TermID"`
		Semester  string `json:"Semester"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}

	budgetRow struct {
		CommitteeBudgetID int64   `json:"committeebudgetid,omitempty"`
		TermID            string  `json:"termid"`
		CommitteeID       int64   `json:"committeeid"`
		BudgetAmount      float64 `json:"budget_amount"`
	}

	transactionRow struct {
		TransactionID   int64   `json:"transactionid,omitempty"`
		TransactionDate *string `json:"transaction_date"`
		Amount          float64 `json:"amount"`
		Details         string  `json:"details"`
		Purpose         *string `json:"purpose"`
		BudgetCategory  *int64  `json:"budget_category"`
		Account         string  `json:"account"`
	}

	uploadedFileRow struct {
		FileName string `json:"file_name"`
	}
)

func (r committeeRow) toDomain() core.Committee {
	return core.Committee{
		ID:   r.CommitteeID,
		Name: r.CommitteeName,
		Type: core.CommitteeType(strings.ToLower(strings.TrimSpace(r.CommitteeType))),
	}
}

func (r termRow) toDomain() core.Term {
	t := core.Term{ID: r.TermID, Semester: r.Semester}
	// Malformed dates leave the bound zero; term resolution then never
	// matches the row, same as the reference behavior.
	if d, err := core.ParseDate(r.StartDate); err == nil {
		t.StartDate = d
	}
	if d, err := core.ParseDate(r.EndDate); err == nil {
		t.EndDate = d
	}
	return t
}

func (r budgetRow) toDomain() core.Budget {
	return core.Budget{
		ID:          r.CommitteeBudgetID,
		TermID:      r.TermID,
		CommitteeID: r.CommitteeID,
		Amount:      core.FromDollars(r.BudgetAmount),
	}
}

func budgetToRow(b core.Budget) budgetRow {
	return budgetRow{
		TermID:       b.TermID,
		CommitteeID:  b.CommitteeID,
		BudgetAmount: b.Amount.Dollars(),
	}
}

func (r transactionRow) toDomain() core.Transaction {
	tx := core.Transaction{
		ID:      r.TransactionID,
		Amount:  core.FromDollars(r.Amount),
		Details: r.Details,
		Account: r.Account,
	}
	if r.TransactionDate != nil {
		if d, err := core.ParseDate(*r.TransactionDate); err == nil {
			tx.Date = d
		}
	}
	if r.Purpose != nil {
		tx.Purpose = *r.Purpose
	}
	if r.BudgetCategory != nil {
		tx.BudgetCategory = *r.BudgetCategory
	}
	return tx
}

func transactionToRow(tx core.Transaction) transactionRow {
	row := transactionRow{
		Amount:  tx.Amount.Dollars(),
		Details: tx.Details,
		Account: tx.Account,
	}
	if !tx.Date.IsZero() {
		s := tx.Date.String()
		row.TransactionDate = &s
	}
	if tx.Purpose != "" {
		p := tx.Purpose
		row.Purpose = &p
	}
	if tx.BudgetCategory != 0 {
		bc := tx.BudgetCategory
		row.BudgetCategory = &bc
	}
	return row
}

func termToRow(t core.Term) termRow {
	return termRow{
		TermID:    t.ID,
		Semester:  t.Semester,
		StartDate: t.StartDate.String(),
		EndDate:   t.EndDate.String(),
	}
}
