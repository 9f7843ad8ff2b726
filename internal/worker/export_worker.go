package worker

import (
	"context"
	"fmt"
	"log/slog"

	"billed/internal/amqp"
	"billed/internal/core"
	"billed/internal/metrics"
	"billed/internal/sheets"
	"billed/internal/store"
)

// ExportWorker writes submitted bills to the ledger and records the row
// reference in the store.
type ExportWorker struct {
	ledger    sheets.LedgerWriter
	tracker   store.ExportTracker
	batchSize int
}

// NewExportWorker builds a worker. tracker may be nil when the store does
// not remember exports; ledger idempotency then prevents duplicate rows.
func NewExportWorker(ledger sheets.LedgerWriter, tracker store.ExportTracker, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &ExportWorker{
		ledger:    ledger,
		tracker:   tracker,
		batchSize: batchSize,
	}
}

// HandleBillSubmitted processes a single bill submitted message from AMQP.
func (w *ExportWorker) HandleBillSubmitted(ctx context.Context, msg *amqp.BillSubmittedMessage) error {
	slog.InfoContext(ctx, "Processing bill submitted message",
		"bill_id", msg.BillID,
		"timestamp", msg.Timestamp)

	bill, err := msg.ToBill()
	if err != nil {
		return fmt.Errorf("decode bill: %w", err)
	}
	return w.export(ctx, bill)
}

// ExportPending exports bills the store still reports as pending. It is the
// backup path for lost messages and for deployments without a broker.
func (w *ExportWorker) ExportPending(ctx context.Context) (int, error) {
	if w.tracker == nil {
		return 0, nil
	}
	pending, err := w.tracker.PendingExports(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending exports: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Exporting pending bills", "count", len(pending))

	exported := 0
	for _, b := range pending {
		if ctx.Err() != nil {
			return exported, ctx.Err()
		}
		if err := w.export(ctx, b); err != nil {
			slog.ErrorContext(ctx, "Failed to export bill", "bill_id", b.ID, "error", err)
			continue
		}
		exported++
	}
	return exported, nil
}

func (w *ExportWorker) export(ctx context.Context, b core.Bill) error {
	ref, err := w.ledger.AppendBill(ctx, b)
	metrics.ObserveExport(err)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	if w.tracker != nil {
		if err := w.tracker.MarkExported(ctx, b.ID, ref); err != nil {
			// The row exists; the next catch-up pass finds it again by ID.
			slog.WarnContext(ctx, "Failed to mark bill as exported", "bill_id", b.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Exported bill to ledger",
		"bill_id", b.ID,
		"row_ref", ref,
		"type", b.Type,
		"amount", b.Amount)
	return nil
}
