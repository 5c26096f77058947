// Package worker appends confirmed statement batches to the Google
// Sheets ledger copy.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/internal/amqp"
	"finboard/internal/sheets"
)

// MirrorWorker consumes ledger mirror messages and appends their rows
// to the ledger sheet. The rows ride in the message, so a failed append
// requeues the whole batch without any store round trip.
type MirrorWorker struct {
	ledger sheets.LedgerWriter
}

func NewMirrorWorker(ledger sheets.LedgerWriter) *MirrorWorker {
	return &MirrorWorker{ledger: ledger}
}

// HandleMirrorMessage processes a single mirror message from AMQP.
func (w *MirrorWorker) HandleMirrorMessage(ctx context.Context, msg *amqp.LedgerMirrorMessage) error {
	slog.InfoContext(ctx, "Processing ledger mirror message",
		"batch_id", msg.BatchID,
		"file_name", msg.FileName,
		"rows", len(msg.Rows))

	if len(msg.Rows) == 0 {
		slog.WarnContext(ctx, "Mirror message carries no rows, nothing to append",
			"batch_id", msg.BatchID)
		return nil
	}

	entries := entriesFromRows(msg.Rows)

	if err := w.ledger.AppendEntries(ctx, entries); err != nil {
		return fmt.Errorf("append batch %s to ledger: %w", msg.BatchID, err)
	}

	slog.InfoContext(ctx, "Appended batch to ledger",
		"batch_id", msg.BatchID,
		"rows", len(entries))

	return nil
}

// Run consumes mirror messages until the context is cancelled.
func (w *MirrorWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeLedgerMirror(ctx, func(msg *amqp.LedgerMirrorMessage) error {
		return w.HandleMirrorMessage(ctx, msg)
	})
}

func entriesFromRows(rows []amqp.LedgerRow) []sheets.LedgerEntry {
	entries := make([]sheets.LedgerEntry, len(rows))
	for i, row := range rows {
		entries[i] = sheets.LedgerEntry{
			Date:     row.Date,
			Amount:   row.Amount,
			Details:  row.Details,
			Purpose:  row.Purpose,
			Category: row.Category,
			Account:  row.Account,
		}
	}
	return entries
}
