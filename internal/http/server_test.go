package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/services"
	"finboard/internal/store/memory"
)

const testTreasuryToken = "test-token"

func testSnapshot() core.Snapshot {
	return core.Snapshot{
		Committees: []core.Committee{
			{ID: 1, Name: "Marketing", Type: core.CommitteeTypeCommittee},
			{ID: 2, Name: "Social", Type: core.CommitteeTypeCommittee},
		},
		Terms: []core.Term{
			{ID: "SP24", Semester: "Spring 2024", StartDate: core.NewDate(2024, 1, 8), EndDate: core.NewDate(2024, 5, 10)},
			{ID: "FA24", Semester: "Fall 2024", StartDate: core.NewDate(2024, 8, 26), EndDate: core.NewDate(2024, 12, 13)},
		},
		Budgets: []core.Budget{
			{ID: 1, TermID: "FA24", CommitteeID: 1, Amount: core.Money{Cents: 50000}},
		},
		Transactions: []core.Transaction{
			{ID: 1, Date: core.NewDate(2024, 9, 10), Amount: core.Money{Cents: -12000}, Details: "Flyers", Purpose: "Printing", BudgetCategory: 1, Account: "Wells"},
			{ID: 2, Date: core.NewDate(2024, 10, 2), Amount: core.Money{Cents: -8000}, Details: "Stickers", Purpose: "Merch order", BudgetCategory: 1, Account: "Venmo"},
		},
	}
}

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	st.Seed(testSnapshot())

	gen := &cache.Generation{}
	snapCache := cache.NewLRUCache[core.Snapshot](4, time.Minute)
	reports := services.NewReportService(st, snapCache, gen, 1000)
	ingestSvc := services.NewIngestService(st, gen, nil, 1000)
	treasurySvc := services.NewTreasuryService(st, reports)

	srv := NewServer(Config{Addr: ":0", TreasuryToken: testTreasuryToken}, reports, ingestSvc, treasurySvc)
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv, st
}

func doRequest(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if env.Error != "" {
		t.Fatalf("unexpected error in envelope: %s", env.Error)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestTermDashboardEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/terms/FA24/dashboard", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var payload dashboardPayload
	decodeData(t, rec, &payload)

	if payload.Term.ID != "FA24" {
		t.Fatalf("unexpected term: %+v", payload.Term)
	}
	if len(payload.Summary) != 1 {
		t.Fatalf("expected 1 summary row, got %d", len(payload.Summary))
	}
	if payload.Summary[0].PercentSpent != 40.0 {
		t.Fatalf("expected 40%% spent, got %v", payload.Summary[0].PercentSpent)
	}
	if payload.Previous == nil || payload.Previous.ID != "SP24" {
		t.Fatalf("expected previous term SP24, got %+v", payload.Previous)
	}
}

func TestTermDashboardUnknownTerm(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/terms/FA99/dashboard", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestTreasuryRequiresToken(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"not bearer", "Basic dXNlcg==", http.StatusUnauthorized},
		{"valid", "Bearer " + testTreasuryToken, http.StatusOK},
	}
	for i, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/treasury/overview", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := doRequest(srv, req)
		if rec.Code != tc.want {
			t.Fatalf("case %d (%s): status = %d, want %d", i, tc.name, rec.Code, tc.want)
		}
	}
}

func multipartStatement(t *testing.T, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("statement", fileName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

const venmoCSV = `Account Statement - @student-org
,ID,Datetime,Note,From,To,Amount (total)
,4001,2024-09-15T10:00:00,Fall membership dues,Jane Doe,Student Org,+ $50.00
`

func TestUploadAndConfirmFlow(t *testing.T) {
	srv, st := newTestServer(t)

	body, contentType := multipartStatement(t, "VenmoStatement_Sep_2024.csv", venmoCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/treasury/statements", body)
	req.Header.Set("Authorization", "Bearer "+testTreasuryToken)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(srv, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}

	var upload uploadPayload
	decodeData(t, rec, &upload)
	if len(upload.Staged) != 1 {
		t.Fatalf("expected 1 staged row, got %+v", upload)
	}
	if upload.Staged[0].Purpose != "Dues" {
		t.Fatalf("expected dues auto-classification, got %+v", upload.Staged[0])
	}

	confirm := confirmRequest{FileName: upload.FileName, Transactions: upload.Staged}
	confirmBody, err := json.Marshal(confirm)
	if err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest(http.MethodPost, "/api/treasury/statements/confirm", bytes.NewReader(confirmBody))
	req.Header.Set("Authorization", "Bearer "+testTreasuryToken)
	req.Header.Set("Content-Type", "application/json")

	rec = doRequest(srv, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("confirm status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result confirmPayload
	decodeData(t, rec, &result)
	if result.Inserted != 1 {
		t.Fatalf("expected 1 inserted, got %+v", result)
	}

	// A second upload of the same file short-circuits with 409.
	body, contentType = multipartStatement(t, "VenmoStatement_Sep_2024.csv", venmoCSV)
	req = httptest.NewRequest(http.MethodPost, "/api/treasury/statements", body)
	req.Header.Set("Authorization", "Bearer "+testTreasuryToken)
	req.Header.Set("Content-Type", contentType)
	rec = doRequest(srv, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate upload status = %d, want 409", rec.Code)
	}

	// The inserted row is visible through the read side.
	page, err := st.TransactionPage(req.Context(), 0, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 3 {
		t.Fatalf("expected 3 transactions after confirm, got %d", len(page))
	}
}

func TestAddTermEndpointValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"id":"XX25","semester":"Quarter 2025","start_date":"2025-01-01","end_date":"2025-05-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/treasury/terms", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testTreasuryToken)

	rec := doRequest(srv, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body %s", rec.Code, rec.Body.String())
	}
}

func TestExportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/treasury/export/terms", nil)
	req.Header.Set("Authorization", "Bearer "+testTreasuryToken)
	rec := doRequest(srv, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "FA24") {
		t.Fatalf("expected terms in CSV, got %s", rec.Body.String())
	}
}

func TestCategorizeEndpoint(t *testing.T) {
	srv, st := newTestServer(t)

	body := `{"updates":[{"id":2,"purpose":"Stickers","budget_category":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/treasury/transactions/categorize", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testTreasuryToken)

	rec := doRequest(srv, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var payload categorizePayload
	decodeData(t, rec, &payload)
	if payload.Updated != 1 {
		t.Fatalf("expected 1 updated, got %+v", payload)
	}

	page, err := st.TransactionPage(req.Context(), 0, 1000)
	if err != nil {
		t.Fatal(err)
	}
	for _, tx := range page {
		if tx.ID == 2 && tx.BudgetCategory != 2 {
			t.Fatalf("expected transaction 2 recategorized, got %+v", tx)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}

	rec = doRequest(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "finboard_http_requests_total") {
		t.Fatalf("expected request counter in metrics, got %s", rec.Body.String())
	}
}
