// Package store declares the persistence boundary used by the bill services.
//
// Backends live in internal/store/memory (in-process) and internal/storage
// (sqlite and postgres). Errors are returned with their message intact so the
// web layer can show them verbatim.
package store

import (
	"context"
	"errors"

	"billed/internal/core"
)

var (
	ErrBillNotFound = errors.New("bill not found")
	ErrMissingID    = errors.New("bill id is required")
)

type (
	// Store is the root accessor; Bills returns the bill collection handle.
	Store interface {
		Bills() BillStore
	}

	// BillStore lists, creates and updates bills. Implementations must be
	// safe for concurrent use.
	BillStore interface {
		// List returns every stored bill in storage order.
		List(ctx context.Context) ([]core.Bill, error)
		// Create persists a draft bill and returns it with its assigned ID.
		// Status defaults to pending when empty.
		Create(ctx context.Context, b core.Bill) (core.Bill, error)
		// Update replaces the mutable fields of the bill identified by b.ID.
		// The owner email is never changed.
		Update(ctx context.Context, b core.Bill) (core.Bill, error)
	}

	// ExportTracker is implemented by backends that remember which bills
	// were written to the ledger.
	ExportTracker interface {
		PendingExports(ctx context.Context, limit int) ([]core.Bill, error)
		MarkExported(ctx context.Context, id string, rowRef string) error
	}
)
