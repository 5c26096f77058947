package postgrest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"finboard/internal/core"
	"finboard/internal/store"
)

var _ store.TableStore = (*Client)(nil)

func (c *Client) Committees(ctx context.Context) ([]core.Committee, error) {
	q := url.Values{"select": {"*"}, "order": {"CommitteeID.asc"}}
	var rows []committeeRow
	if err := c.getInto(ctx, "committees", q, &rows); err != nil {
		return nil, fmt.Errorf("load committees: %w", err)
	}
	out := make([]core.Committee, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (c *Client) Terms(ctx context.Context) ([]core.Term, error) {
	q := url.Values{"select": {"*"}, "order": {"start_date.asc"}}
	var rows []termRow
	if err := c.getInto(ctx, "terms", q, &rows); err != nil {
		return nil, fmt.Errorf("load terms: %w", err)
	}
	out := make([]core.Term, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (c *Client) Budgets(ctx context.Context) ([]core.Budget, error) {
	q := url.Values{"select": {"*"}, "order": {"committeebudgetid.asc"}}
	var rows []budgetRow
	if err := c.getInto(ctx, "committeebudgets", q, &rows); err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	out := make([]core.Budget, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (c *Client) TransactionPage(ctx context.Context, offset, limit int) ([]core.Transaction, error) {
	q := url.Values{
		"select": {"*"},
		"order":  {"transactionid.asc"},
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
	}
	var rows []transactionRow
	if err := c.getInto(ctx, "transactions", q, &rows); err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	out := make([]core.Transaction, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// InsertTransactions appends the batch in one POST. PostgREST applies
// the rows in order and stops at the first failure, so the returned
// count is best effort: on error the caller only knows the batch was
// partially applied.
func (c *Client) InsertTransactions(ctx context.Context, txs []core.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	rows := make([]transactionRow, len(txs))
	for i, tx := range txs {
		rows[i] = transactionToRow(tx)
	}
	_, err := c.do(ctx, http.MethodPost, c.tableURL("transactions", nil), rows, "return=minimal")
	if err != nil {
		return 0, fmt.Errorf("insert %d transactions: %w", len(txs), err)
	}
	return len(txs), nil
}

func (c *Client) UpdateTransactionCategory(ctx context.Context, id int64, purpose string, budgetCategory int64) error {
	q := url.Values{"transactionid": {"eq." + strconv.FormatInt(id, 10)}}
	patch := map[string]any{"purpose": nullableString(purpose), "budget_category": nullableInt(budgetCategory)}
	if _, err := c.do(ctx, http.MethodPatch, c.tableURL("transactions", q), patch, "return=minimal"); err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	return nil
}

func (c *Client) InsertTerm(ctx context.Context, term core.Term) error {
	if _, err := c.do(ctx, http.MethodPost, c.tableURL("terms", nil), []termRow{termToRow(term)}, "return=minimal"); err != nil {
		return fmt.Errorf("insert term %s: %w", term.ID, err)
	}
	return nil
}

func (c *Client) DeleteBudgetsForTerm(ctx context.Context, termID string) error {
	q := url.Values{"termid": {"eq." + termID}}
	if _, err := c.do(ctx, http.MethodDelete, c.tableURL("committeebudgets", q), nil, "return=minimal"); err != nil {
		return fmt.Errorf("delete budgets for term %s: %w", termID, err)
	}
	return nil
}

func (c *Client) InsertBudget(ctx context.Context, b core.Budget) error {
	if _, err := c.do(ctx, http.MethodPost, c.tableURL("committeebudgets", nil), []budgetRow{budgetToRow(b)}, "return=minimal"); err != nil {
		return fmt.Errorf("insert budget for committee %d: %w", b.CommitteeID, err)
	}
	return nil
}

func (c *Client) IsFileUploaded(ctx context.Context, fileName string) (bool, error) {
	q := url.Values{"select": {"file_name"}, "file_name": {"eq." + fileName}}
	var rows []uploadedFileRow
	if err := c.getInto(ctx, "uploaded_files", q, &rows); err != nil {
		return false, fmt.Errorf("check uploaded file %s: %w", fileName, err)
	}
	return len(rows) > 0, nil
}

func (c *Client) MarkFileUploaded(ctx context.Context, fileName string) error {
	row := []uploadedFileRow{{FileName: fileName}}
	if _, err := c.do(ctx, http.MethodPost, c.tableURL("uploaded_files", nil), row, "return=minimal"); err != nil {
		return fmt.Errorf("mark file uploaded %s: %w", fileName, err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}
