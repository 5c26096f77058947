package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"finboard/internal/amqp"
	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/ingest"
	"finboard/internal/store"
)

// ErrFileAlreadyUploaded short-circuits a statement upload whose file
// name is already recorded, before any parsing happens.
var ErrFileAlreadyUploaded = errors.New("statement file already uploaded")

// UploadResult is the staged outcome of parsing a statement. Nothing is
// inserted yet; the treasurer reviews the staged rows and confirms.
type UploadResult struct {
	FileName   string
	Kind       string
	Staged     []core.Transaction
	Duplicates []core.DuplicateMatch
	RowErrors  []ingest.RowError
}

// ConfirmResult reports a confirmed batch insert.
type ConfirmResult struct {
	FileName string
	Inserted int
	BatchID  string
}

// MirrorPublisher publishes confirmed batches for the ledger worker.
type MirrorPublisher interface {
	PublishLedgerMirror(ctx context.Context, msg *amqp.LedgerMirrorMessage) error
}

// IngestService runs the statement upload path: idempotency check,
// parse, clean, auto-classify, dedup against the store, then a separate
// confirm step that appends the batch and mirrors it to the ledger.
type IngestService struct {
	store     store.TableStore
	gen       *cache.Generation
	publisher MirrorPublisher
	pageSize  int
}

func NewIngestService(st store.TableStore, gen *cache.Generation, publisher MirrorPublisher, pageSize int) *IngestService {
	if pageSize <= 0 {
		pageSize = store.DefaultPageSize
	}
	return &IngestService{
		store:     st,
		gen:       gen,
		publisher: publisher,
		pageSize:  pageSize,
	}
}

// Upload parses a statement and stages its rows. Rows that collide with
// an existing transaction on (trimmed details, date) are reported as
// duplicates and never staged. A file name already present in
// uploaded_files aborts before parsing.
func (s *IngestService) Upload(ctx context.Context, fileName string, r io.Reader) (*UploadResult, error) {
	uploaded, err := s.store.IsFileUploaded(ctx, fileName)
	if err != nil {
		return nil, fmt.Errorf("check uploaded files: %w", err)
	}
	if uploaded {
		slog.WarnContext(ctx, "Statement file already uploaded, skipping",
			"file_name", fileName)
		return nil, fmt.Errorf("%w: %s", ErrFileAlreadyUploaded, fileName)
	}

	kind, err := ingest.DetectKind(fileName)
	if err != nil {
		return nil, err
	}

	parsed, rowErrs, err := ingest.Parse(kind, r)
	if err != nil {
		return nil, fmt.Errorf("parse %s statement: %w", kind, err)
	}
	parsed = ingest.AutoClassify(parsed)

	existing, err := store.AllTransactions(ctx, s.store, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("load existing transactions: %w", err)
	}

	fresh, dups := core.Dedupe(parsed, existing)

	slog.InfoContext(ctx, "Staged statement upload",
		"file_name", fileName,
		"kind", kind,
		"staged", len(fresh),
		"duplicates", len(dups),
		"row_errors", len(rowErrs))

	return &UploadResult{
		FileName:   fileName,
		Kind:       kind,
		Staged:     fresh,
		Duplicates: dups,
		RowErrors:  rowErrs,
	}, nil
}

// Confirm appends a staged batch to the store. The insert is
// at-least-once and non-atomic: on partial failure the error surfaces
// with the rows already inserted left in place, and the file is not
// marked uploaded so the treasurer can retry. On success the snapshot
// generation bumps and the batch is mirrored to the ledger,
// fire-and-forget.
func (s *IngestService) Confirm(ctx context.Context, fileName string, txs []core.Transaction) (*ConfirmResult, error) {
	inserted, err := s.store.InsertTransactions(ctx, txs)
	if inserted > 0 {
		s.gen.Bump()
	}
	if err != nil {
		return &ConfirmResult{FileName: fileName, Inserted: inserted},
			fmt.Errorf("insert batch (%d of %d rows landed): %w", inserted, len(txs), err)
	}

	if err := s.store.MarkFileUploaded(ctx, fileName); err != nil {
		// The rows are in; a lost marker only weakens idempotency.
		slog.ErrorContext(ctx, "Failed to record uploaded file",
			"file_name", fileName, "error", err)
	}

	result := &ConfirmResult{FileName: fileName, Inserted: inserted}
	if s.publisher != nil && len(txs) > 0 {
		msg := amqp.NewLedgerMirrorMessage(fileName, txs)
		result.BatchID = msg.BatchID
		if err := s.publisher.PublishLedgerMirror(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish ledger mirror message",
				"file_name", fileName,
				"batch_id", msg.BatchID,
				"error", err)
		}
	}

	slog.InfoContext(ctx, "Confirmed statement batch",
		"file_name", fileName,
		"inserted", inserted,
		"batch_id", result.BatchID)

	return result, nil
}
