// Package services orchestrates the store, cache, and messaging layers
// behind the HTTP handlers: report assembly for the member dashboard,
// statement ingestion, and treasury management.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/store"
)

// ErrUnknownTerm marks a dashboard request for a term id the terms
// table does not contain.
var ErrUnknownTerm = errors.New("unknown term")

const snapshotKey = "snapshot"

// Dashboard is the assembled view for one term: budget-vs-spend rows,
// term totals, and the change against the previous term.
type Dashboard struct {
	Term     core.Term
	Summary  []core.BudgetSummaryRow
	Metrics  core.TermMetrics
	Previous *core.Term
	Delta    core.MetricsDelta
}

// ReportService serves read-side views over a cached four-table
// snapshot. One snapshot is immutable for the duration of a request, so
// every number on a dashboard comes from the same read.
type ReportService struct {
	store    store.TableStore
	cache    cache.Cache[core.Snapshot]
	gen      *cache.Generation
	pageSize int
}

func NewReportService(st store.TableStore, snapCache cache.Cache[core.Snapshot], gen *cache.Generation, pageSize int) *ReportService {
	if pageSize <= 0 {
		pageSize = store.DefaultPageSize
	}
	return &ReportService{
		store:    st,
		cache:    snapCache,
		gen:      gen,
		pageSize: pageSize,
	}
}

// Generation exposes the shared counter so mutating services can
// invalidate cached snapshots.
func (s *ReportService) Generation() *cache.Generation {
	return s.gen
}

// Snapshot returns the current four-table snapshot, served from cache
// when the generation has not moved since the last load. The four reads
// run concurrently; any failure aborts the whole load.
func (s *ReportService) Snapshot(ctx context.Context) (core.Snapshot, error) {
	key := s.gen.Key(snapshotKey)
	if snap, ok := s.cache.Get(key); ok {
		return snap, nil
	}

	start := time.Now()
	var snap core.Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		committees, err := s.store.Committees(gctx)
		if err != nil {
			return fmt.Errorf("load committees: %w", err)
		}
		snap.Committees = committees
		return nil
	})
	g.Go(func() error {
		terms, err := s.store.Terms(gctx)
		if err != nil {
			return fmt.Errorf("load terms: %w", err)
		}
		snap.Terms = terms
		return nil
	})
	g.Go(func() error {
		budgets, err := s.store.Budgets(gctx)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		snap.Budgets = budgets
		return nil
	})
	g.Go(func() error {
		txs, err := store.AllTransactions(gctx, s.store, s.pageSize)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		snap.Transactions = txs
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Snapshot{}, err
	}

	s.cache.Set(key, snap)

	slog.DebugContext(ctx, "Loaded snapshot",
		"committees", len(snap.Committees),
		"terms", len(snap.Terms),
		"budgets", len(snap.Budgets),
		"transactions", len(snap.Transactions),
		"duration_ms", time.Since(start).Milliseconds())

	return snap, nil
}

// TermDashboard assembles the full dashboard for one term.
func (s *ReportService) TermDashboard(ctx context.Context, termID string) (*Dashboard, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	term := snap.TermByID(termID)
	if term == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTerm, termID)
	}

	d := &Dashboard{
		Term:    *term,
		Summary: core.Summarize(termID, snap),
		Metrics: core.MetricsForTerm(termID, snap),
	}

	d.Previous = core.PreviousTerm(termID, snap.Terms)
	var prev core.TermMetrics
	if d.Previous != nil {
		prev = core.MetricsForTerm(d.Previous.ID, snap)
	}
	d.Delta = core.Delta(d.Metrics, prev)

	return d, nil
}

// Terms lists the terms table in chronological order.
func (s *ReportService) Terms(ctx context.Context) ([]core.Term, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.SortTermsByStart(snap.Terms), nil
}

// Committees lists the committees table.
func (s *ReportService) Committees(ctx context.Context) ([]core.Committee, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Committees, nil
}

// CategoryBreakdown groups a term's income or expense transactions by
// classifier category, optionally filtered to one committee.
func (s *ReportService) CategoryBreakdown(ctx context.Context, termID string, committeeID int64, income bool) ([]core.CategoryAmount, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.TermByID(termID) == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTerm, termID)
	}
	return core.CategoryBreakdown(termID, committeeID, income, snap), nil
}

// HistoricalTrend returns per-term budget and spend totals for the whole
// organization, or for one committee when committeeID is non-zero.
func (s *ReportService) HistoricalTrend(ctx context.Context, committeeID int64) ([]core.TrendPoint, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.HistoricalTrend(committeeID, snap), nil
}
