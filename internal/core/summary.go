package core

import "sort"

// BudgetSummaryRow is one committee's budget-vs-spend line for a term.
// Unbudgeted marks spend recorded against a zero budget; PercentSpent is
// left at 0 in that case instead of coercing a division by zero.
type BudgetSummaryRow struct {
	CommitteeName string
	Budget        Money
	Spent         Money
	PercentSpent  float64
	Unbudgeted    bool
}

// TermMetrics aggregates all term-resolved transactions, regardless of
// committee type or categorization.
type TermMetrics struct {
	Income       Money
	Expenses     Money // absolute value
	Net          Money
	Transactions int
}

// MetricsDelta is the change in metrics between two terms.
type MetricsDelta struct {
	Income       Money
	Expenses     Money
	Net          Money
	Transactions int
}

// CategoryAmount is an amount aggregated under a classifier category.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// TrendPoint is one term's budget and spend total for historical charts.
type TrendPoint struct {
	TermID   string
	Semester string
	Budget   Money
	Spent    Money
}

// Summarize builds the budget-vs-spend table for one term. Only
// committees of type "committee" participate. Spend counts expense
// transactions (negative amounts, absolute value) whose date resolves to
// the term and whose budget_category points at the committee. Rows come
// from the term's budget entries: a budgeted committee with no spend
// shows zero, while spend without a budget row does not appear here (the
// integrity report surfaces it). Rows are sorted by PercentSpent
// descending, committee name ascending on ties, so repeated calls over
// the same snapshot return identical output.
func Summarize(termID string, snap Snapshot) []BudgetSummaryRow {
	resolver := NewTermResolver(snap.Terms)

	spent := make(map[int64]Money)
	for _, tx := range snap.Transactions {
		if !tx.IsExpense() || tx.BudgetCategory == 0 {
			continue
		}
		term := resolver.Resolve(tx.Date)
		if term == nil || term.ID != termID {
			continue
		}
		c := snap.CommitteeByID(tx.BudgetCategory)
		if c == nil || c.Type != CommitteeTypeCommittee {
			continue
		}
		spent[c.ID] = spent[c.ID].Add(tx.Amount.Abs())
	}

	var rows []BudgetSummaryRow
	for _, b := range snap.Budgets {
		if b.TermID != termID {
			continue
		}
		c := snap.CommitteeByID(b.CommitteeID)
		if c == nil || c.Type != CommitteeTypeCommittee {
			continue
		}
		row := BudgetSummaryRow{
			CommitteeName: c.Name,
			Budget:        b.Amount,
			Spent:         spent[c.ID],
		}
		if b.Amount.Cents > 0 {
			row.PercentSpent = float64(row.Spent.Cents) / float64(b.Amount.Cents) * 100
		} else if row.Spent.Cents > 0 {
			row.Unbudgeted = true
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].PercentSpent != rows[j].PercentSpent {
			return rows[i].PercentSpent > rows[j].PercentSpent
		}
		return rows[i].CommitteeName < rows[j].CommitteeName
	})
	return rows
}

// SortSummaryAscending re-sorts summary rows by PercentSpent ascending
// for callers rendering least-spent-first.
func SortSummaryAscending(rows []BudgetSummaryRow) []BudgetSummaryRow {
	out := make([]BudgetSummaryRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PercentSpent != out[j].PercentSpent {
			return out[i].PercentSpent < out[j].PercentSpent
		}
		return out[i].CommitteeName < out[j].CommitteeName
	})
	return out
}

// MetricsForTerm totals income, expenses, net, and count over every
// transaction whose date resolves to the term.
func MetricsForTerm(termID string, snap Snapshot) TermMetrics {
	resolver := NewTermResolver(snap.Terms)
	var m TermMetrics
	for _, tx := range snap.Transactions {
		term := resolver.Resolve(tx.Date)
		if term == nil || term.ID != termID {
			continue
		}
		m.Transactions++
		if tx.IsIncome() {
			m.Income = m.Income.Add(tx.Amount)
		} else if tx.IsExpense() {
			m.Expenses = m.Expenses.Add(tx.Amount.Abs())
		}
	}
	m.Net = m.Income.Sub(m.Expenses)
	return m
}

// Delta computes current minus previous. Pass a zero TermMetrics when
// there is no previous term; the delta then equals the current totals.
func Delta(cur, prev TermMetrics) MetricsDelta {
	return MetricsDelta{
		Income:       cur.Income.Sub(prev.Income),
		Expenses:     cur.Expenses.Sub(prev.Expenses),
		Net:          cur.Net.Sub(prev.Net),
		Transactions: cur.Transactions - prev.Transactions,
	}
}

// CategoryBreakdown groups a term's income or expense transactions by
// classifier category. committeeID filters on budget_category when
// non-zero. Output is sorted by amount descending, name ascending on
// ties.
func CategoryBreakdown(termID string, committeeID int64, income bool, snap Snapshot) []CategoryAmount {
	resolver := NewTermResolver(snap.Terms)
	table := ExpenseCategories
	if income {
		table = IncomeCategories
	}

	totals := make(map[string]Money)
	for _, tx := range snap.Transactions {
		if income && !tx.IsIncome() {
			continue
		}
		if !income && !tx.IsExpense() {
			continue
		}
		if committeeID != 0 && tx.BudgetCategory != committeeID {
			continue
		}
		term := resolver.Resolve(tx.Date)
		if term == nil || term.ID != termID {
			continue
		}
		cat := Classify(tx.Purpose, table)
		totals[cat] = totals[cat].Add(tx.Amount.Abs())
	}

	out := make([]CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// HistoricalTrend returns per-term budget and spend totals in
// chronological order. Like the budget summary, only committees of type
// "committee" participate: executive budgets, uncategorized spend, and
// spend attributed outside the committee set stay out of the totals.
// committeeID zero means all committees; otherwise budgets and spend
// are restricted to that one. Terms with neither budget nor spend still
// appear with zeros so charts keep a continuous axis.
func HistoricalTrend(committeeID int64, snap Snapshot) []TrendPoint {
	sorted := SortTermsByStart(snap.Terms)
	resolver := NewTermResolver(snap.Terms)

	included := make(map[int64]bool)
	for _, c := range snap.Committees {
		if c.Type == CommitteeTypeCommittee {
			included[c.ID] = true
		}
	}

	budget := make(map[string]Money)
	for _, b := range snap.Budgets {
		if !included[b.CommitteeID] {
			continue
		}
		if committeeID != 0 && b.CommitteeID != committeeID {
			continue
		}
		budget[b.TermID] = budget[b.TermID].Add(b.Amount)
	}

	spent := make(map[string]Money)
	for _, tx := range snap.Transactions {
		if !tx.IsExpense() || !included[tx.BudgetCategory] {
			continue
		}
		if committeeID != 0 && tx.BudgetCategory != committeeID {
			continue
		}
		term := resolver.Resolve(tx.Date)
		if term == nil {
			continue
		}
		spent[term.ID] = spent[term.ID].Add(tx.Amount.Abs())
	}

	out := make([]TrendPoint, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, TrendPoint{
			TermID:   t.ID,
			Semester: t.Semester,
			Budget:   budget[t.ID],
			Spent:    spent[t.ID],
		})
	}
	return out
}
