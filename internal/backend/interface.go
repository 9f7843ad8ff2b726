package backend

import (
	"context"

	"billed/internal/attachments"
	"billed/internal/services"
	"billed/internal/sheets"
	"billed/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// StoreResult contains the bill store and what the process needs around it.
type StoreResult struct {
	Store store.Store
	// Tracker is nil when the backend does not remember ledger exports.
	Tracker store.ExportTracker
	// Ping reports backend reachability for /readyz.
	Ping    func(ctx context.Context) error
	Cleanup CleanupFunc
}

// NotifierResult contains the submission notifier and its cleanup.
type NotifierResult struct {
	Notifier services.Notifier
	// Publishing reports whether submissions are sent to a broker.
	Publishing bool
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	CreateUploader(ctx context.Context, config Config) (attachments.Uploader, error)
	CreateLedger(ctx context.Context, config Config) (sheets.LedgerWriter, error)
	CreateNotifier(ctx context.Context, config Config) (*NotifierResult, error)
}

// BackendType represents the type of bill store
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// AttachmentType selects where uploaded proofs are stored.
type AttachmentType string

const (
	LocalAttachments AttachmentType = "local"
	S3Attachments    AttachmentType = "s3"
)
