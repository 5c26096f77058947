package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/store"
	"finboard/internal/store/memory"
)

func newTestTreasuryService(st *memory.Store) *TreasuryService {
	snapCache := cache.NewLRUCache[core.Snapshot](4, time.Minute)
	reports := NewReportService(st, snapCache, &cache.Generation{}, 1000)
	return NewTreasuryService(st, reports)
}

func TestCategorizeWritesChangedRowsOnly(t *testing.T) {
	st := memory.New()
	st.Seed(serviceSnapshot())
	svc := newTestTreasuryService(st)
	ctx := context.Background()

	result, err := svc.Categorize(ctx, []CategoryUpdate{
		{TransactionID: 1, Purpose: "Printing", BudgetCategory: 1}, // already these values
		{TransactionID: 2, Purpose: "Merch order", BudgetCategory: 2},
		{TransactionID: 99, Purpose: "Ghost", BudgetCategory: 1},
	})
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}

	if result.Unchanged != 1 {
		t.Fatalf("expected 1 unchanged row, got %d", result.Unchanged)
	}
	if result.Updated != 1 {
		t.Fatalf("expected 1 updated row, got %d", result.Updated)
	}
	if len(result.Failed) != 1 || result.Failed[0].TransactionID != 99 {
		t.Fatalf("expected row 99 to fail, got %+v", result.Failed)
	}

	// The write landed and the next snapshot sees it.
	snap, err := svc.reports.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, tx := range snap.Transactions {
		if tx.ID == 2 && tx.BudgetCategory != 2 {
			t.Fatalf("expected transaction 2 recategorized, got %+v", tx)
		}
	}
}

func TestAddTerm(t *testing.T) {
	st := memory.New()
	st.Seed(serviceSnapshot())
	svc := newTestTreasuryService(st)
	ctx := context.Background()

	term := core.Term{
		ID:        "sp25",
		Semester:  "spring 2025",
		StartDate: core.NewDate(2025, 1, 13),
		EndDate:   core.NewDate(2025, 5, 9),
	}
	if err := svc.AddTerm(ctx, term); err != nil {
		t.Fatalf("AddTerm: %v", err)
	}

	terms, err := st.Terms(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var added *core.Term
	for i := range terms {
		if terms[i].ID == "SP25" {
			added = &terms[i]
		}
	}
	if added == nil {
		t.Fatal("expected SP25 inserted with uppercased id")
	}
	if added.Semester != "Spring 2025" {
		t.Fatalf("expected title-cased semester, got %q", added.Semester)
	}
}

func TestAddTermValidation(t *testing.T) {
	st := memory.New()
	st.Seed(serviceSnapshot())
	svc := newTestTreasuryService(st)
	ctx := context.Background()

	cases := []struct {
		name string
		term core.Term
		want error
	}{
		{
			name: "bad semester name",
			term: core.Term{ID: "XX25", Semester: "Quarter 2025", StartDate: core.NewDate(2025, 1, 1), EndDate: core.NewDate(2025, 5, 1)},
			want: core.ErrInvalidSemester,
		},
		{
			name: "start after end",
			term: core.Term{ID: "SP25", Semester: "Spring 2025", StartDate: core.NewDate(2025, 5, 1), EndDate: core.NewDate(2025, 1, 1)},
			want: core.ErrInvalidTermRange,
		},
		{
			name: "duplicate id",
			term: core.Term{ID: "FA24", Semester: "Fall 2024", StartDate: core.NewDate(2024, 8, 26), EndDate: core.NewDate(2024, 12, 13)},
			want: store.ErrDuplicateKey,
		},
	}
	for i, tc := range cases {
		if err := svc.AddTerm(ctx, tc.term); !errors.Is(err, tc.want) {
			t.Fatalf("case %d (%s): got %v, want %v", i, tc.name, err, tc.want)
		}
	}
}

func TestTermBudgetsListsCommitteesOnly(t *testing.T) {
	st := memory.New()
	st.Seed(serviceSnapshot())
	svc := newTestTreasuryService(st)

	lines, err := svc.TermBudgets(context.Background(), "FA24")
	if err != nil {
		t.Fatalf("TermBudgets: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines (executive board excluded), got %d", len(lines))
	}
	if lines[0].CommitteeName != "Marketing" || lines[0].Amount.Cents != 50000 {
		t.Fatalf("unexpected first line: %+v", lines[0])
	}

	// SP24 has no budget rows; every committee still appears with zero.
	lines, err = svc.TermBudgets(context.Background(), "SP24")
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range lines {
		if l.Amount.Cents != 0 {
			t.Fatalf("expected zero budgets for SP24, got %+v", l)
		}
	}
}

func TestSaveBudgetsReplacesTermRows(t *testing.T) {
	st := memory.New()
	st.Seed(serviceSnapshot())
	svc := newTestTreasuryService(st)
	ctx := context.Background()

	err := svc.SaveBudgets(ctx, "FA24", []core.Budget{
		{CommitteeID: 1, Amount: core.Money{Cents: 60000}},
	})
	if err != nil {
		t.Fatalf("SaveBudgets: %v", err)
	}

	budgets, err := st.Budgets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var fa24 []core.Budget
	for _, b := range budgets {
		if b.TermID == "FA24" {
			fa24 = append(fa24, b)
		}
	}
	if len(fa24) != 1 {
		t.Fatalf("expected old FA24 rows replaced, got %d rows", len(fa24))
	}
	if fa24[0].CommitteeID != 1 || fa24[0].Amount.Cents != 60000 {
		t.Fatalf("unexpected replacement row: %+v", fa24[0])
	}
}

func TestSaveBudgetsRejectsNegativeAmount(t *testing.T) {
	st := memory.New()
	st.Seed(serviceSnapshot())
	svc := newTestTreasuryService(st)

	err := svc.SaveBudgets(context.Background(), "FA24", []core.Budget{
		{CommitteeID: 1, Amount: core.Money{Cents: -100}},
	})
	if !errors.Is(err, core.ErrNegativeBudget) {
		t.Fatalf("expected ErrNegativeBudget, got %v", err)
	}
}

func TestDataOverview(t *testing.T) {
	snap := serviceSnapshot()
	// An orphaned budget, an orphaned transaction, a duplicate budget
	// row, and an overlapping term.
	snap.Budgets = append(snap.Budgets,
		core.Budget{ID: 3, TermID: "FA24", CommitteeID: 42, Amount: core.Money{Cents: 1000}},
		core.Budget{ID: 4, TermID: "FA24", CommitteeID: 1, Amount: core.Money{Cents: 500}},
	)
	snap.Transactions = append(snap.Transactions,
		core.Transaction{ID: 5, Date: core.NewDate(2024, 9, 1), Amount: core.Money{Cents: -500}, Details: "mystery", BudgetCategory: 99, Account: "Wells"},
	)
	snap.Terms = append(snap.Terms,
		core.Term{ID: "FA24B", Semester: "Fall 2024", StartDate: core.NewDate(2024, 9, 1), EndDate: core.NewDate(2024, 12, 1)},
	)

	st := memory.New()
	st.Seed(snap)
	svc := newTestTreasuryService(st)

	o, err := svc.DataOverview(context.Background())
	if err != nil {
		t.Fatalf("DataOverview: %v", err)
	}

	if o.TotalIncome.Cents != 40000 {
		t.Fatalf("unexpected income: %d", o.TotalIncome.Cents)
	}
	if o.TotalExpenses.Cents != 26500 {
		t.Fatalf("unexpected expenses: %d", o.TotalExpenses.Cents)
	}
	if o.Transactions != 5 {
		t.Fatalf("unexpected count: %d", o.Transactions)
	}
	if len(o.Recent) != 5 {
		t.Fatalf("expected all 5 recent rows, got %d", len(o.Recent))
	}
	if o.Recent[0].ID != 2 {
		t.Fatalf("expected newest transaction first, got id %d", o.Recent[0].ID)
	}

	ir := o.Integrity
	if len(ir.OrphanedBudgets) != 1 || ir.OrphanedBudgets[0].CommitteeID != 42 {
		t.Fatalf("unexpected orphaned budgets: %+v", ir.OrphanedBudgets)
	}
	if len(ir.OrphanedTransactions) != 1 || ir.OrphanedTransactions[0].ID != 5 {
		t.Fatalf("unexpected orphaned transactions: %+v", ir.OrphanedTransactions)
	}
	if len(ir.DuplicateBudgets) != 1 || ir.DuplicateBudgets[0].Rows != 2 {
		t.Fatalf("unexpected duplicate budgets: %+v", ir.DuplicateBudgets)
	}
	// The spring social spend resolves to SP24, which has no budget rows.
	if len(ir.UnbudgetedSpend) != 1 {
		t.Fatalf("unexpected unbudgeted spend: %+v", ir.UnbudgetedSpend)
	}
	if u := ir.UnbudgetedSpend[0]; u.TermID != "SP24" || u.CommitteeID != 2 || u.Spent.Cents != 6000 {
		t.Fatalf("unexpected unbudgeted spend entry: %+v", u)
	}
	if len(ir.OverlappingTerms) != 1 {
		t.Fatalf("expected one overlapping pair, got %d", len(ir.OverlappingTerms))
	}
}

func TestDataOverviewReportsSpendWithoutBudgetRow(t *testing.T) {
	// A term with real spend and zero budget rows: the budget summary
	// shows nothing, so the integrity report must carry the spend.
	snap := core.Snapshot{
		Committees: []core.Committee{
			{ID: 1, Name: "Marketing", Type: core.CommitteeTypeCommittee},
		},
		Terms: []core.Term{
			{ID: "FA24", Semester: "Fall 2024", StartDate: core.NewDate(2024, 8, 26), EndDate: core.NewDate(2024, 12, 13)},
		},
		Transactions: []core.Transaction{
			{ID: 1, Date: core.NewDate(2024, 9, 10), Amount: core.Money{Cents: -12000}, Details: "Flyers", BudgetCategory: 1, Account: "Wells"},
		},
	}
	st := memory.New()
	st.Seed(snap)
	svc := newTestTreasuryService(st)
	ctx := context.Background()

	d, err := svc.reports.TermDashboard(ctx, "FA24")
	if err != nil {
		t.Fatalf("TermDashboard: %v", err)
	}
	if len(d.Summary) != 0 {
		t.Fatalf("summary renders only budget rows, got %+v", d.Summary)
	}

	o, err := svc.DataOverview(ctx)
	if err != nil {
		t.Fatalf("DataOverview: %v", err)
	}
	us := o.Integrity.UnbudgetedSpend
	if len(us) != 1 {
		t.Fatalf("expected 1 unbudgeted spend warning, got %+v", us)
	}
	if us[0].TermID != "FA24" || us[0].CommitteeID != 1 || us[0].Spent.Cents != 12000 {
		t.Fatalf("unexpected unbudgeted spend entry: %+v", us[0])
	}
}

func TestExportCSV(t *testing.T) {
	st := memory.New()
	st.Seed(serviceSnapshot())
	svc := newTestTreasuryService(st)
	ctx := context.Background()

	var buf bytes.Buffer
	if err := svc.ExportCSV(ctx, "transactions", &buf); err != nil {
		t.Fatalf("ExportCSV transactions: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header + 4 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "transactionid,") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "-120.00") {
		t.Fatalf("expected dollar-formatted amount, got %s", lines[1])
	}

	buf.Reset()
	if err := svc.ExportCSV(ctx, "terms", &buf); err != nil {
		t.Fatalf("ExportCSV terms: %v", err)
	}
	lines = strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 terms, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "SP24,") {
		t.Fatalf("expected chronological term order, got %s", lines[1])
	}

	if err := svc.ExportCSV(ctx, "nope", &buf); !errors.Is(err, ErrUnknownExport) {
		t.Fatalf("expected ErrUnknownExport, got %v", err)
	}
}
