package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"billed/internal/attachments"
	"billed/internal/cache"
	"billed/internal/config"
	"billed/internal/core"
	sheetsmem "billed/internal/sheets/memory"
	"billed/internal/storage"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		Type:          MemoryBackend,
		DataDir:       dir,
		SQLiteDBPath:  filepath.Join(dir, "billed.db"),
		Attachments:   LocalAttachments,
		AttachmentDir: filepath.Join(dir, "files"),
		AttachmentURL: "/files",
		ListCacheTTL:  time.Minute,
	}
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:         "sqlite",
		SQLiteDBPath:        "./data/billed.db",
		AttachmentBackend:   "local",
		AttachmentDir:       "./data/files",
		AttachmentBaseURL:   "/files",
		GoogleSpreadsheetID: "sheet-id",
		GoogleSheetName:     "Notes de frais",
		S3Region:            "auto",
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.Attachments != LocalAttachments {
		t.Fatalf("unexpected backend selection %+v", cfg)
	}
	if cfg.Ledger.SpreadsheetID != "sheet-id" || cfg.Ledger.SheetName != "Notes de frais" {
		t.Fatalf("ledger config not mapped: %+v", cfg.Ledger)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	app.DataBackend = "sheets"
	if _, err := FromAppConfig(app); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{name: "memory with local attachments", modify: func(c *Config) {}},
		{name: "sqlite without path", modify: func(c *Config) { c.Type = SQLiteBackend; c.SQLiteDBPath = "" }, wantErr: true},
		{name: "postgres without url", modify: func(c *Config) { c.Type = PostgresBackend }, wantErr: true},
		{name: "s3 without bucket", modify: func(c *Config) { c.Attachments = S3Attachments }, wantErr: true},
		{name: "unknown attachments", modify: func(c *Config) { c.Attachments = "ftp" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.modify(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryStore(t *testing.T) {
	cfg := testConfig(t)
	seed := `[{"id":"b1","email":"a@a","type":"Transports","name":"Train","date":"2024-06-27","amount":100,"vat":20,"pct":20,"status":"pending"}]`
	if err := os.WriteFile(filepath.Join(cfg.DataDir, "seed_bills.json"), []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	res, err := NewFactory(nil).CreateStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	bills, err := res.Store.Bills().List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bills) != 1 || bills[0].ID != "b1" {
		t.Fatalf("expected seeded bill, got %+v", bills)
	}
	if res.Tracker == nil {
		t.Fatal("memory store tracks exports")
	}
	if err := res.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestCreateSQLiteStoreIsCached(t *testing.T) {
	cfg := testConfig(t)
	cfg.Type = SQLiteBackend
	res, err := NewFactory(nil).CreateStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	t.Cleanup(func() { res.Cleanup() })

	if _, ok := res.Store.(*cache.CachedStore); !ok {
		t.Fatalf("expected cached store, got %T", res.Store)
	}
	if _, ok := res.Tracker.(*storage.Repository); !ok {
		t.Fatalf("expected repository tracker, got %T", res.Tracker)
	}

	created, err := res.Store.Bills().Create(context.Background(), core.Bill{
		Email: "a@a", Type: "Transports", Name: "Taxi", Date: core.NewDate(2024, 1, 5), Amount: 30, Pct: 20,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	bills, _ := res.Store.Bills().List(context.Background())
	if len(bills) != 1 || bills[0].ID != created.ID {
		t.Fatalf("expected created bill in listing, got %+v", bills)
	}
}

func TestCreateUploaderAndLedger(t *testing.T) {
	cfg := testConfig(t)
	f := NewFactory(nil)

	u, err := f.CreateUploader(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateUploader: %v", err)
	}
	if _, ok := u.(*attachments.LocalUploader); !ok {
		t.Fatalf("expected local uploader, got %T", u)
	}

	l, err := f.CreateLedger(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateLedger: %v", err)
	}
	if _, ok := l.(*sheetsmem.Ledger); !ok {
		t.Fatalf("expected in-memory ledger without spreadsheet, got %T", l)
	}
}

func TestCreateNotifierWithoutBroker(t *testing.T) {
	res, err := NewFactory(nil).CreateNotifier(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("CreateNotifier: %v", err)
	}
	if res.Publishing || res.Cleanup != nil {
		t.Fatal("expected no broker without AMQP_URL")
	}
	if err := res.Notifier.BillSubmitted(context.Background(), core.Bill{Type: "Transports"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
}
