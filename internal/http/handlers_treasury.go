package http

import (
	"fmt"
	"net/http"

	"finboard/internal/core"
	"finboard/internal/services"
)

type duplicatePayload struct {
	Row        transactionPayload `json:"row"`
	ExistingID int64              `json:"existing_id"`
}

type rowErrorPayload struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type uploadPayload struct {
	FileName   string               `json:"file_name"`
	Kind       string               `json:"kind"`
	Staged     []transactionPayload `json:"staged"`
	Duplicates []duplicatePayload   `json:"duplicates"`
	RowErrors  []rowErrorPayload    `json:"row_errors,omitempty"`
}

// handleUploadStatement stages a statement upload. Nothing is written;
// the response carries the staged rows for the confirm call.
func (s *Server) handleUploadStatement(w http.ResponseWriter, r *http.Request) {
	file, fileName, err := statementFile(r)
	if err != nil {
		BadRequest(err.Error()).Write(w, r)
		return
	}
	defer file.Close()

	result, err := s.ingest.Upload(r.Context(), fileName, file)
	if err != nil {
		ErrorResponse(err).Write(w, r)
		return
	}

	payload := uploadPayload{
		FileName:   result.FileName,
		Kind:       result.Kind,
		Staged:     transactionsToPayload(result.Staged),
		Duplicates: make([]duplicatePayload, len(result.Duplicates)),
	}
	for i, d := range result.Duplicates {
		payload.Duplicates[i] = duplicatePayload{
			Row:        transactionToPayload(d.Candidate),
			ExistingID: d.ExistingID,
		}
	}
	for _, re := range result.RowErrors {
		payload.RowErrors = append(payload.RowErrors, rowErrorPayload{Line: re.Line, Error: re.Err.Error()})
	}
	NewResponse().Data(payload).Write(w, r)
}

type confirmRequest struct {
	FileName     string               `json:"file_name"`
	Transactions []transactionPayload `json:"transactions"`
}

type confirmPayload struct {
	FileName string `json:"file_name"`
	Inserted int    `json:"inserted"`
	BatchID  string `json:"batch_id,omitempty"`
}

// handleConfirmStatement appends a reviewed batch to the store.
func (s *Server) handleConfirmStatement(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(err.Error()).Write(w, r)
		return
	}
	if req.FileName == "" {
		UnprocessableEntity("file_name is required").Write(w, r)
		return
	}
	if len(req.Transactions) == 0 {
		UnprocessableEntity("transactions must not be empty").Write(w, r)
		return
	}

	txs := payloadToTransactions(req.Transactions)
	for i := range txs {
		txs[i].Details = sanitizeInput(txs[i].Details)
		txs[i].Purpose = sanitizeInput(txs[i].Purpose)
	}

	result, err := s.ingest.Confirm(r.Context(), req.FileName, txs)
	if err != nil {
		ErrorResponse(err).
			Hint("The insert is not atomic: already inserted rows stay. Re-upload the statement and confirm only the rows still reported as new.").
			Write(w, r)
		return
	}

	NewResponse().Status(http.StatusCreated).Data(confirmPayload{
		FileName: result.FileName,
		Inserted: result.Inserted,
		BatchID:  result.BatchID,
	}).Write(w, r)
}

type categorizeRequest struct {
	Updates []struct {
		ID             int64  `json:"id"`
		Purpose        string `json:"purpose"`
		BudgetCategory int64  `json:"budget_category"`
	} `json:"updates"`
}

type categorizePayload struct {
	Updated   int               `json:"updated"`
	Unchanged int               `json:"unchanged"`
	Failed    []rowErrorPayload `json:"failed,omitempty"`
}

// handleCategorize applies per-row purpose and budget_category updates.
func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(err.Error()).Write(w, r)
		return
	}
	if len(req.Updates) == 0 {
		UnprocessableEntity("updates must not be empty").Write(w, r)
		return
	}

	updates := make([]services.CategoryUpdate, len(req.Updates))
	for i, u := range req.Updates {
		updates[i] = services.CategoryUpdate{
			TransactionID:  u.ID,
			Purpose:        sanitizeInput(u.Purpose),
			BudgetCategory: u.BudgetCategory,
		}
	}

	result, err := s.treasury.Categorize(r.Context(), updates)
	if err != nil {
		ErrorResponse(err).Write(w, r)
		return
	}

	payload := categorizePayload{Updated: result.Updated, Unchanged: result.Unchanged}
	for _, f := range result.Failed {
		payload.Failed = append(payload.Failed, rowErrorPayload{
			Line:  int(f.TransactionID),
			Error: f.Err.Error(),
		})
	}
	NewResponse().Data(payload).Write(w, r)
}

type addTermRequest struct {
	ID        string `json:"id"`
	Semester  string `json:"semester"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// handleAddTerm inserts a new academic term.
func (s *Server) handleAddTerm(w http.ResponseWriter, r *http.Request) {
	var req addTermRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(err.Error()).Write(w, r)
		return
	}

	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		UnprocessableEntity("start_date must be YYYY-MM-DD").Write(w, r)
		return
	}
	end, err := core.ParseDate(req.EndDate)
	if err != nil {
		UnprocessableEntity("end_date must be YYYY-MM-DD").Write(w, r)
		return
	}

	term := core.Term{
		ID:        req.ID,
		Semester:  sanitizeInput(req.Semester),
		StartDate: start,
		EndDate:   end,
	}
	if err := s.treasury.AddTerm(r.Context(), term); err != nil {
		ErrorResponse(err).Write(w, r)
		return
	}
	NewResponse().Status(http.StatusCreated).Data(termToPayload(term)).Write(w, r)
}

type budgetLinePayload struct {
	CommitteeID   int64   `json:"committee_id"`
	CommitteeName string  `json:"committee_name,omitempty"`
	Amount        float64 `json:"amount"`
}

// handleTermBudgets lists a term's budget lines for the editor.
func (s *Server) handleTermBudgets(w http.ResponseWriter, r *http.Request) {
	termID := r.PathValue("termID")

	lines, err := s.treasury.TermBudgets(r.Context(), termID)
	if err != nil {
		ErrorResponse(err).Write(w, r)
		return
	}
	payload := make([]budgetLinePayload, len(lines))
	for i, l := range lines {
		payload[i] = budgetLinePayload{
			CommitteeID:   l.CommitteeID,
			CommitteeName: l.CommitteeName,
			Amount:        l.Amount.Dollars(),
		}
	}
	NewResponse().Data(payload).Write(w, r)
}

type saveBudgetsRequest struct {
	Budgets []budgetLinePayload `json:"budgets"`
}

// handleSaveBudgets replaces a term's budget rows.
func (s *Server) handleSaveBudgets(w http.ResponseWriter, r *http.Request) {
	termID := r.PathValue("termID")

	var req saveBudgetsRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(err.Error()).Write(w, r)
		return
	}

	budgets := make([]core.Budget, len(req.Budgets))
	for i, b := range req.Budgets {
		budgets[i] = core.Budget{
			TermID:      termID,
			CommitteeID: b.CommitteeID,
			Amount:      core.FromDollars(b.Amount),
		}
	}

	if err := s.treasury.SaveBudgets(r.Context(), termID, budgets); err != nil {
		ErrorResponse(err).Write(w, r)
		return
	}
	NewResponse().Data(map[string]int{"saved": len(budgets)}).Write(w, r)
}

type overviewPayload struct {
	TotalIncome        float64              `json:"total_income"`
	TotalExpenses      float64              `json:"total_expenses"`
	Net                float64              `json:"net"`
	NetFormatted       string               `json:"net_formatted"`
	Transactions       int                  `json:"transactions"`
	Recent             []transactionPayload `json:"recent"`
	IntegrityWarnings  []string             `json:"integrity_warnings,omitempty"`
}

// handleOverview serves the treasury landing view.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	o, err := s.treasury.DataOverview(r.Context())
	if err != nil {
		ErrorResponse(err).Write(w, r)
		return
	}

	payload := overviewPayload{
		TotalIncome:   o.TotalIncome.Dollars(),
		TotalExpenses: o.TotalExpenses.Dollars(),
		Net:           o.Net.Dollars(),
		NetFormatted:  formatUSD(o.Net.Cents),
		Transactions:  o.Transactions,
		Recent:        transactionsToPayload(o.Recent),
	}
	payload.IntegrityWarnings = integrityWarnings(o.Integrity)
	NewResponse().Data(payload).Write(w, r)
}

// integrityWarnings flattens the integrity report into display
// strings.
func integrityWarnings(ir services.IntegrityReport) []string {
	var warnings []string
	for _, b := range ir.OrphanedBudgets {
		warnings = append(warnings, fmt.Sprintf(
			"budget row %d (term %s) references missing committee %d", b.ID, b.TermID, b.CommitteeID))
	}
	for _, tx := range ir.OrphanedTransactions {
		warnings = append(warnings, fmt.Sprintf(
			"transaction %d references missing committee %d", tx.ID, tx.BudgetCategory))
	}
	for _, d := range ir.DuplicateBudgets {
		warnings = append(warnings, fmt.Sprintf(
			"term %s committee %d has %d budget rows; sums double-count", d.TermID, d.CommitteeID, d.Rows))
	}
	for _, u := range ir.UnbudgetedSpend {
		warnings = append(warnings, fmt.Sprintf(
			"committee %d spent %s in term %s with no budget row; the budget summary omits it", u.CommitteeID, u.Spent, u.TermID))
	}
	for _, pair := range ir.OverlappingTerms {
		warnings = append(warnings, fmt.Sprintf(
			"terms %s and %s overlap; the earlier start wins during resolution", pair[0].ID, pair[1].ID))
	}
	return warnings
}

// handleExport streams one table as a CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+table+`.csv"`)
	if err := s.treasury.ExportCSV(r.Context(), table, w); err != nil {
		// Headers may already be out; log and surface what we can.
		w.Header().Del("Content-Disposition")
		ErrorResponse(err).Write(w, r)
	}
}
