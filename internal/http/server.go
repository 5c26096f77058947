package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"finboard/internal/middleware/ratelimit"
	"finboard/internal/middleware/security"
	"finboard/internal/middleware/trace"
	"finboard/internal/services"
)

// Server wires the JSON API routes and middleware chain around the
// three services.
type Server struct {
	http.Server

	reports  *services.ReportService
	ingest   *services.IngestService
	treasury *services.TreasuryService

	treasuryToken string

	tracer   *trace.Middleware
	limiter  *ratelimit.Limiter
	headers  *security.HeadersMiddleware
	detector *security.Detector

	shutdownOnce sync.Once
}

// Config carries the listen address and the treasury bearer token.
type Config struct {
	Addr          string
	TreasuryToken string
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(cfg Config, reports *services.ReportService, ingestSvc *services.IngestService, treasurySvc *services.TreasuryService) *Server {
	detector := security.NewDetector()

	s := &Server{
		reports:       reports,
		ingest:        ingestSvc,
		treasury:      treasurySvc,
		treasuryToken: cfg.TreasuryToken,
		tracer:        trace.NewMiddleware(detector.ExtractClientIP),
		limiter:       ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		headers:       security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		detector:      detector,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/terms", s.handleListTerms)
	mux.HandleFunc("GET /api/committees", s.handleListCommittees)
	mux.HandleFunc("GET /api/terms/{termID}/dashboard", s.handleTermDashboard)
	mux.HandleFunc("GET /api/terms/{termID}/categories", s.handleCategoryBreakdown)
	mux.HandleFunc("GET /api/trend", s.handleTrend)

	treasuryMux := http.NewServeMux()
	treasuryMux.HandleFunc("POST /api/treasury/statements", s.handleUploadStatement)
	treasuryMux.HandleFunc("POST /api/treasury/statements/confirm", s.handleConfirmStatement)
	treasuryMux.HandleFunc("POST /api/treasury/transactions/categorize", s.handleCategorize)
	treasuryMux.HandleFunc("POST /api/treasury/terms", s.handleAddTerm)
	treasuryMux.HandleFunc("GET /api/treasury/terms/{termID}/budgets", s.handleTermBudgets)
	treasuryMux.HandleFunc("PUT /api/treasury/terms/{termID}/budgets", s.handleSaveBudgets)
	treasuryMux.HandleFunc("GET /api/treasury/overview", s.handleOverview)
	treasuryMux.HandleFunc("GET /api/treasury/export/{table}", s.handleExport)
	mux.Handle("/api/treasury/", s.requireTreasuryToken(treasuryMux))

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// middleware builds the chain: security headers, then tracing, then
// rate limiting on mutating methods. Suspicious requests are logged,
// not blocked.
func (s *Server) middleware(next http.Handler) http.Handler {
	limited := s.limitMutations(next)
	traced := s.tracer.Middleware(limited)
	detected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request pattern",
				"path", r.URL.Path,
				"client_ip", s.detector.ExtractClientIP(r))
		}
		traced.ServeHTTP(w, r)
	})
	return s.headers.Middleware(detected)
}

// limitMutations applies the per-client rate limit to writes only;
// dashboard reads are served from cache and stay unthrottled.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodDelete {
			clientIP := s.detector.ExtractClientIP(r)
			if !s.limiter.Allow(clientIP) {
				slog.WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", clientIP,
					"method", r.Method,
					"path", r.URL.Path)
				NewResponse().
					Status(http.StatusTooManyRequests).
					Error("rate limit exceeded, try again later").
					Header("Retry-After", "60").
					Write(w, r)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the middleware housekeeping goroutines and drains the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Readiness means the store answers; the cheapest probe is the
	// committees table.
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if _, err := s.reports.Committees(ctx); err != nil {
		slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics exposes plaintext counters in Prometheus exposition
// format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	tm := s.tracer.GetMetrics()
	dm := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	fmt.Fprintf(w, "# TYPE finboard_http_requests_total counter\n")
	fmt.Fprintf(w, "finboard_http_requests_total %d\n", tm.TotalRequests)
	fmt.Fprintf(w, "# TYPE finboard_http_response_time_microseconds gauge\n")
	fmt.Fprintf(w, "finboard_http_response_time_microseconds %d\n", tm.AverageResponseTime)
	fmt.Fprintf(w, "# TYPE finboard_ratelimit_clients gauge\n")
	fmt.Fprintf(w, "finboard_ratelimit_clients %d\n", s.limiter.ActiveClients())
	fmt.Fprintf(w, "# TYPE finboard_suspicious_requests_total counter\n")
	fmt.Fprintf(w, "finboard_suspicious_requests_total %d\n", dm.SuspiciousRequests)
}
