package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"billed/internal/amqp"
	"billed/internal/core"
	sheetsmem "billed/internal/sheets/memory"
	"billed/internal/store/memory"
)

func submittedBill() core.Bill {
	return core.Bill{
		Email:    "a@a",
		Type:     "Transports",
		Name:     "Vol Paris Londres",
		Date:     core.NewDate(2024, 6, 27),
		Amount:   348,
		VAT:      70,
		Pct:      20,
		FileURL:  "http://localhost/files/a/test.jpg",
		FileName: "test.jpg",
	}
}

type failingLedger struct{ calls int }

func (l *failingLedger) AppendBill(context.Context, core.Bill) (string, error) {
	l.calls++
	return "", errors.New("sheets unavailable")
}

func TestHandleBillSubmittedExportsAndMarks(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	created, err := st.Create(ctx, submittedBill().Draft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	full := submittedBill()
	full.ID = created.ID
	if _, err := st.Update(ctx, full); err != nil {
		t.Fatalf("update: %v", err)
	}

	ledger := sheetsmem.New()
	w := NewExportWorker(ledger, st, 10)

	if err := w.HandleBillSubmitted(ctx, amqp.NewBillSubmittedMessage(full)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(ledger.Rows()) != 1 {
		t.Fatalf("expected one ledger row, got %d", len(ledger.Rows()))
	}
	pending, _ := st.PendingExports(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected bill to be marked exported, %d pending", len(pending))
	}

	// Redelivery must not add a second row.
	if err := w.HandleBillSubmitted(ctx, amqp.NewBillSubmittedMessage(full)); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(ledger.Rows()) != 1 {
		t.Fatalf("expected idempotent export, got %d rows", len(ledger.Rows()))
	}
}

func TestHandleBillSubmittedLedgerError(t *testing.T) {
	ledger := &failingLedger{}
	w := NewExportWorker(ledger, nil, 10)
	b := submittedBill()
	b.ID = "b1"
	if err := w.HandleBillSubmitted(context.Background(), amqp.NewBillSubmittedMessage(b)); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
}

func TestHandleBillSubmittedBadDate(t *testing.T) {
	w := NewExportWorker(sheetsmem.New(), nil, 10)
	msg := &amqp.BillSubmittedMessage{BillID: "b1", Bill: amqp.BillPayload{ID: "b1", Date: "27 Juin. 24"}}
	if err := w.HandleBillSubmitted(context.Background(), msg); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestExportPending(t *testing.T) {
	ctx := context.Background()
	withFile := submittedBill()
	draft := submittedBill().Draft()
	st := memory.New(withFile, draft)
	ledger := sheetsmem.New()
	w := NewExportWorker(ledger, st, 10)

	n, err := w.ExportPending(ctx)
	if err != nil {
		t.Fatalf("export pending: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 export, got %d", n)
	}
	if n, _ = w.ExportPending(ctx); n != 0 {
		t.Fatalf("expected nothing left to export, got %d", n)
	}
}

func TestExportPendingContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	st := memory.New(submittedBill(), submittedBill())
	ledger := &failingLedger{}
	w := NewExportWorker(ledger, st, 10)

	n, err := w.ExportPending(ctx)
	if err != nil {
		t.Fatalf("export pending: %v", err)
	}
	if n != 0 || ledger.calls != 2 {
		t.Fatalf("expected 2 failed attempts and 0 exports, got calls=%d n=%d", ledger.calls, n)
	}
}

func TestExportPendingWithoutTracker(t *testing.T) {
	w := NewExportWorker(sheetsmem.New(), nil, 0)
	if n, err := w.ExportPending(context.Background()); n != 0 || err != nil {
		t.Fatalf("expected no-op, got %d, %v", n, err)
	}
}

type countingExporter struct{ passes atomic.Int32 }

func (c *countingExporter) ExportPending(context.Context) (int, error) {
	c.passes.Add(1)
	return 0, nil
}

func TestExportProcessorLifecycle(t *testing.T) {
	exp := &countingExporter{}
	p := NewExportProcessor(exp, ProcessorConfig{PollInterval: 10 * time.Millisecond})

	if p.IsRunning() {
		t.Fatal("processor should not be running initially")
	}
	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Fatal("expected error when starting twice")
	}
	if !p.IsRunning() {
		t.Fatal("processor should be running")
	}

	deadline := time.Now().Add(time.Second)
	for exp.passes.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if exp.passes.Load() < 2 {
		t.Fatalf("expected at least 2 passes, got %d", exp.passes.Load())
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if p.IsRunning() {
		t.Fatal("processor should be stopped")
	}
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestExportProcessorRunStopsWithContext(t *testing.T) {
	exp := &countingExporter{}
	p := NewExportProcessor(exp, ProcessorConfig{PollInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if exp.passes.Load() != 1 {
		t.Fatalf("expected the startup pass only, got %d", exp.passes.Load())
	}
}
