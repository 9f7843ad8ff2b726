package backend

import (
	"context"
	"fmt"
	"log/slog"

	"billed/internal/adapters"
	"billed/internal/amqp"
	"billed/internal/attachments"
	"billed/internal/cache"
	"billed/internal/metrics"
	"billed/internal/sheets"
	gsheet "billed/internal/sheets/google"
	sheetsmem "billed/internal/sheets/memory"
	"billed/internal/storage"
	"billed/internal/store"
	"billed/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	switch config.Type {
	case MemoryBackend:
		return f.createMemoryStore(config)
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return f.repositoryResult(repo, config), nil
	case PostgresBackend:
		repo, err := storage.NewPostgresRepository(config.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return f.repositoryResult(repo, config), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryStore(config Config) (*StoreResult, error) {
	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	st, err := memory.NewFromFiles(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory store: %w", err)
	}

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &StoreResult{
		Store:   st,
		Tracker: st,
		Ping:    func(context.Context) error { return nil },
	}, nil
}

func (f *DefaultFactory) repositoryResult(repo *storage.Repository, config Config) *StoreResult {
	var st store.Store = repo
	if config.ListCacheTTL > 0 {
		st = cache.NewCachedStore(repo, config.ListCacheTTL)
		f.logger.Info("Bill listing cache enabled", "ttl", config.ListCacheTTL)
	}
	return &StoreResult{
		Store:   st,
		Tracker: repo,
		Ping:    repo.Ping,
		Cleanup: repo.Close,
	}
}

// CreateUploader implements Factory.CreateUploader
func (f *DefaultFactory) CreateUploader(ctx context.Context, config Config) (attachments.Uploader, error) {
	switch config.Attachments {
	case S3Attachments:
		u, err := attachments.NewS3Uploader(ctx, config.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 uploader: %w", err)
		}
		f.logger.Info("Initialized S3 attachments", "bucket", config.S3.Bucket)
		return u, nil
	case LocalAttachments, "":
		u, err := attachments.NewLocalUploader(config.AttachmentDir, config.AttachmentURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local uploader: %w", err)
		}
		f.logger.Info("Initialized local attachments", "dir", config.AttachmentDir)
		return u, nil
	default:
		return nil, fmt.Errorf("unsupported attachment backend: %s", config.Attachments)
	}
}

// CreateLedger implements Factory.CreateLedger. Without a spreadsheet the
// ledger is kept in memory.
func (f *DefaultFactory) CreateLedger(ctx context.Context, config Config) (sheets.LedgerWriter, error) {
	if config.Ledger.SpreadsheetID == "" {
		f.logger.Warn("No spreadsheet configured, exporting to in-memory ledger")
		return sheetsmem.New(), nil
	}
	cli, err := gsheet.New(ctx, config.Ledger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets ledger", "sheet", config.Ledger.SheetName)
	return cli, nil
}

// CreateNotifier implements Factory.CreateNotifier. A broker that cannot be
// reached is logged and skipped; the export catch-up pass covers it.
func (f *DefaultFactory) CreateNotifier(ctx context.Context, config Config) (*NotifierResult, error) {
	notifiers := adapters.Notifiers{metrics.SubmissionCounter{}}
	result := &NotifierResult{Notifier: notifiers}

	if config.AMQPURL == "" {
		return result, nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without publishing", "error", err)
		return result, nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	result.Notifier = append(notifiers, adapters.NewAMQPNotifier(client))
	result.Publishing = true
	result.Cleanup = client.Close
	return result, nil
}
