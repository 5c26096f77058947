package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"finboard/internal/core"
)

// maxBodyBytes caps JSON request bodies. Statement uploads have their
// own multipart limit.
const maxBodyBytes = 1 << 20

// maxStatementBytes caps an uploaded statement CSV.
const maxStatementBytes = 8 << 20

// decodeJSON reads a JSON body into dst with a size cap and strict
// field checking.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// queryInt64 reads an optional integer query parameter, returning 0
// when absent.
func queryInt64(r *http.Request, name string) (int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %s must be an integer", name)
	}
	return n, nil
}

// queryFlow reads the income/expense selector. Defaults to expense.
func queryFlow(r *http.Request) (income bool, err error) {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("flow"))) {
	case "", "expense":
		return false, nil
	case "income":
		return true, nil
	}
	return false, errors.New("parameter flow must be income or expense")
}

// transactionPayload is the wire shape of one transaction row in
// treasury requests. Amounts travel as dollar floats, dates as
// YYYY-MM-DD strings, matching the store.
type transactionPayload struct {
	ID             int64   `json:"id,omitempty"`
	Date           string  `json:"date"`
	Amount         float64 `json:"amount"`
	Details        string  `json:"details"`
	Purpose        string  `json:"purpose,omitempty"`
	BudgetCategory int64   `json:"budget_category,omitempty"`
	Account        string  `json:"account"`
}

func (p transactionPayload) toDomain() core.Transaction {
	tx := core.Transaction{
		ID:             p.ID,
		Amount:         core.FromDollars(p.Amount),
		Details:        p.Details,
		Purpose:        p.Purpose,
		BudgetCategory: p.BudgetCategory,
		Account:        p.Account,
	}
	if d, err := core.ParseDate(p.Date); err == nil {
		tx.Date = d
	}
	return tx
}

func transactionToPayload(tx core.Transaction) transactionPayload {
	return transactionPayload{
		ID:             tx.ID,
		Date:           tx.Date.String(),
		Amount:         tx.Amount.Dollars(),
		Details:        tx.Details,
		Purpose:        tx.Purpose,
		BudgetCategory: tx.BudgetCategory,
		Account:        tx.Account,
	}
}

func transactionsToPayload(txs []core.Transaction) []transactionPayload {
	out := make([]transactionPayload, len(txs))
	for i, tx := range txs {
		out[i] = transactionToPayload(tx)
	}
	return out
}

func payloadToTransactions(payloads []transactionPayload) []core.Transaction {
	out := make([]core.Transaction, len(payloads))
	for i, p := range payloads {
		out[i] = p.toDomain()
	}
	return out
}

// statementFile extracts the uploaded statement from a multipart form.
// The caller must close the returned reader.
func statementFile(r *http.Request) (io.ReadCloser, string, error) {
	if err := r.ParseMultipartForm(maxStatementBytes); err != nil {
		return nil, "", fmt.Errorf("parse multipart form: %w", err)
	}
	file, header, err := r.FormFile("statement")
	if err != nil {
		return nil, "", errors.New(`missing "statement" file field`)
	}
	return file, header.Filename, nil
}
