package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"billed/internal/core"
	"billed/internal/store"
)

func draft() core.Bill {
	return core.Bill{
		Email:  "test@test.com",
		Type:   "Transports",
		Name:   "Flight Paris London",
		Date:   core.NewDate(2024, 6, 27),
		Amount: 348,
		VAT:    70,
		Pct:    20,
	}
}

func TestCreateAssignsIDAndPending(t *testing.T) {
	s := New()
	ctx := context.Background()
	b, err := s.Bills().Create(ctx, draft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID == "" || b.Status != core.StatusPending {
		t.Fatalf("unexpected created bill: %+v", b)
	}
	list, _ := s.Bills().List(ctx)
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	b := draft()
	b.Name = ""
	if _, err := New().Create(context.Background(), b); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestUpdateKeepsOwner(t *testing.T) {
	s := New()
	ctx := context.Background()
	created, _ := s.Create(ctx, draft())

	upd := created
	upd.Email = "other@test.com"
	upd.FileURL = "http://example.com/test.jpg"
	upd.FileName = "test.jpg"
	got, err := s.Update(ctx, upd)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Email != "test@test.com" {
		t.Fatalf("owner changed to %q", got.Email)
	}
	if got.FileName != "test.jpg" || got.ID != created.ID {
		t.Fatalf("unexpected updated bill: %+v", got)
	}
}

func TestUpdateErrors(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.Update(ctx, draft()); !errors.Is(err, store.ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
	b := draft()
	b.ID = "nope"
	if _, err := s.Update(ctx, b); !errors.Is(err, store.ErrBillNotFound) {
		t.Fatalf("expected ErrBillNotFound, got %v", err)
	}
}

func TestPendingExports(t *testing.T) {
	s := New()
	ctx := context.Background()
	noFile, _ := s.Create(ctx, draft())
	withFile, _ := s.Create(ctx, draft())
	withFile.FileURL = "http://example.com/a.png"
	withFile.FileName = "a.png"
	if _, err := s.Update(ctx, withFile); err != nil {
		t.Fatalf("update: %v", err)
	}

	pending, _ := s.PendingExports(ctx, 10)
	if len(pending) != 1 || pending[0].ID != withFile.ID {
		t.Fatalf("expected only the bill with a file, got %+v (draft id %s)", pending, noFile.ID)
	}
	if err := s.MarkExported(ctx, withFile.ID, "Bills!A2"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	pending, _ = s.PendingExports(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected no pending exports, got %+v", pending)
	}
	if err := s.MarkExported(ctx, "missing", "x"); !errors.Is(err, store.ErrBillNotFound) {
		t.Fatalf("expected ErrBillNotFound, got %v", err)
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("missing seed file should not fail: %v", err)
	}
	if list, _ := s.List(context.Background()); len(list) != 0 {
		t.Fatalf("expected empty store, got %d bills", len(list))
	}

	seed := `[
	  {"id":"47qAXb6fIm2zOKkLzMro","email":"a@a","type":"Hôtel et logement","name":"encore","date":"2004-04-04","amount":400,"vat":"80","pct":20,"status":"pending"}
	]`
	if err := os.WriteFile(filepath.Join(dir, seedFile), []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFiles(dir); err == nil {
		t.Fatalf("expected decode error for string vat")
	}

	seed = `[
	  {"id":"47qAXb6fIm2zOKkLzMro","email":"a@a","type":"Hôtel et logement","name":"encore","date":"2004-04-04","amount":400,"vat":80,"pct":20,"status":"pending"},
	  {"email":"a@a","type":"Transports","name":"test1","date":"2001-01-01","amount":100}
	]`
	if err := os.WriteFile(filepath.Join(dir, seedFile), []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFiles(dir)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	list, _ := s.List(context.Background())
	if len(list) != 2 || list[0].ID != "47qAXb6fIm2zOKkLzMro" || list[1].ID == "" {
		t.Fatalf("unexpected seeded bills: %+v", list)
	}
	if list[1].Status != core.StatusPending {
		t.Fatalf("expected default status pending, got %q", list[1].Status)
	}
}
