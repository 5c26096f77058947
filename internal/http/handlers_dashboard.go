package http

import (
	"net/http"

	"finboard/internal/core"
)

type termPayload struct {
	ID        string `json:"id"`
	Semester  string `json:"semester"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func termToPayload(t core.Term) termPayload {
	return termPayload{
		ID:        t.ID,
		Semester:  t.Semester,
		StartDate: t.StartDate.String(),
		EndDate:   t.EndDate.String(),
	}
}

type committeePayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type summaryRowPayload struct {
	Committee    string  `json:"committee"`
	Budget       float64 `json:"budget"`
	Spent        float64 `json:"spent"`
	PercentSpent float64 `json:"percent_spent"`
	Unbudgeted   bool    `json:"unbudgeted,omitempty"`
}

type metricsPayload struct {
	Income       float64 `json:"income"`
	Expenses     float64 `json:"expenses"`
	Net          float64 `json:"net"`
	Transactions int     `json:"transactions"`
}

type dashboardPayload struct {
	Term     termPayload         `json:"term"`
	Summary  []summaryRowPayload `json:"summary"`
	Metrics  metricsPayload      `json:"metrics"`
	Previous *termPayload        `json:"previous_term,omitempty"`
	Delta    metricsPayload      `json:"delta"`
}

type categoryPayload struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type trendPayload struct {
	TermID   string  `json:"term_id"`
	Semester string  `json:"semester"`
	Budget   float64 `json:"budget"`
	Spent    float64 `json:"spent"`
}

func summaryToPayload(rows []core.BudgetSummaryRow) []summaryRowPayload {
	out := make([]summaryRowPayload, len(rows))
	for i, row := range rows {
		out[i] = summaryRowPayload{
			Committee:    row.CommitteeName,
			Budget:       row.Budget.Dollars(),
			Spent:        row.Spent.Dollars(),
			PercentSpent: row.PercentSpent,
			Unbudgeted:   row.Unbudgeted,
		}
	}
	return out
}

func (s *Server) handleListTerms(w http.ResponseWriter, r *http.Request) {
	terms, err := s.reports.Terms(r.Context())
	if err != nil {
		ErrorResponse(err).Write(w, r)
		return
	}
	payload := make([]termPayload, len(terms))
	for i, t := range terms {
		payload[i] = termToPayload(t)
	}
	NewResponse().Data(payload).Write(w, r)
}

func (s *Server) handleListCommittees(w http.ResponseWriter, r *http.Request) {
	committees, err := s.reports.Committees(r.Context())
	if err != nil {
		ErrorResponse(err).Write(w, r)
		return
	}
	payload := make([]committeePayload, len(committees))
	for i, c := range committees {
		payload[i] = committeePayload{ID: c.ID, Name: c.Name, Type: string(c.Type)}
	}
	NewResponse().Data(payload).Write(w, r)
}

func (s *Server) handleTermDashboard(w http.ResponseWriter, r *http.Request) {
	termID := r.PathValue("termID")

	d, err := s.reports.TermDashboard(r.Context(), termID)
	if err != nil {
		ErrorResponse(err).Write(w, r)
		return
	}

	summary := d.Summary
	if r.URL.Query().Get("order") == "asc" {
		summary = core.SortSummaryAscending(summary)
	}

	payload := dashboardPayload{
		Term:    termToPayload(d.Term),
		Summary: summaryToPayload(summary),
		Metrics: metricsFromTerm(d.Metrics),
		Delta: metricsPayload{
			Income:       d.Delta.Income.Dollars(),
			Expenses:     d.Delta.Expenses.Dollars(),
			Net:          d.Delta.Net.Dollars(),
			Transactions: d.Delta.Transactions,
		},
	}
	if d.Previous != nil {
		prev := termToPayload(*d.Previous)
		payload.Previous = &prev
	}
	NewResponse().Data(payload).Write(w, r)
}

func metricsFromTerm(m core.TermMetrics) metricsPayload {
	return metricsPayload{
		Income:       m.Income.Dollars(),
		Expenses:     m.Expenses.Dollars(),
		Net:          m.Net.Dollars(),
		Transactions: m.Transactions,
	}
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	termID := r.PathValue("termID")

	committeeID, err := queryInt64(r, "committee")
	if err != nil {
		BadRequest(err.Error()).Write(w, r)
		return
	}
	income, err := queryFlow(r)
	if err != nil {
		BadRequest(err.Error()).Write(w, r)
		return
	}

	cats, err := s.reports.CategoryBreakdown(r.Context(), termID, committeeID, income)
	if err != nil {
		ErrorResponse(err).Write(w, r)
		return
	}
	payload := make([]categoryPayload, len(cats))
	for i, c := range cats {
		payload[i] = categoryPayload{Name: c.Name, Amount: c.Amount.Dollars()}
	}
	NewResponse().Data(payload).Write(w, r)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	committeeID, err := queryInt64(r, "committee")
	if err != nil {
		BadRequest(err.Error()).Write(w, r)
		return
	}

	points, err := s.reports.HistoricalTrend(r.Context(), committeeID)
	if err != nil {
		ErrorResponse(err).Write(w, r)
		return
	}
	payload := make([]trendPayload, len(points))
	for i, p := range points {
		payload[i] = trendPayload{
			TermID:   p.TermID,
			Semester: p.Semester,
			Budget:   p.Budget.Dollars(),
			Spent:    p.Spent.Dollars(),
		}
	}
	NewResponse().Data(payload).Write(w, r)
}
