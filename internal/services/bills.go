package services

import (
	"context"
	"log/slog"
	"sort"

	"billed/internal/core"
	"billed/internal/session"
	"billed/internal/store"
)

// Bills reads the bills visible to the session owner.
type Bills struct {
	store   store.Store
	session session.Context
	logger  *slog.Logger
}

// Row is a bill prepared for the listing table.
type Row struct {
	Bill    core.Bill
	Date    string // display form, or the ISO date when it cannot be formatted
	ISODate string
	Status  string
	Amount  string
}

// Listing is the render-ready bills table.
type Listing struct {
	Rows  []Row
	Empty bool
}

func NewBills(s store.Store, sess session.Context, logger *slog.Logger) *Bills {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bills{store: s, session: sess, logger: logger}
}

// List returns the owner's bills in ascending date order. Administrators see
// every bill. Store errors are returned as is.
func (b *Bills) List(ctx context.Context) ([]core.Bill, error) {
	all, err := b.store.Bills().List(ctx)
	if err != nil {
		return nil, err
	}
	owned := all
	if !b.session.IsAdmin() {
		owned = make([]core.Bill, 0, len(all))
		for _, bill := range all {
			if bill.Email == b.session.Email() {
				owned = append(owned, bill)
			}
		}
	}
	return SortByDate(owned), nil
}

// SortByDate returns a copy of bills sorted by ascending date. Bills on the
// same day keep their relative order.
func SortByDate(bills []core.Bill) []core.Bill {
	out := make([]core.Bill, len(bills))
	copy(out, bills)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

func (b *Bills) Listing(ctx context.Context) (Listing, error) {
	bills, err := b.List(ctx)
	if err != nil {
		return Listing{}, err
	}
	rows := make([]Row, 0, len(bills))
	for _, bill := range bills {
		iso := bill.Date.ISO()
		display, err := core.FormatDate(iso)
		if err != nil {
			b.logger.WarnContext(ctx, "Keeping unformatted bill date",
				"bill_id", bill.ID, "date", iso, "error", err)
			display = iso
		}
		rows = append(rows, Row{
			Bill:    bill,
			Date:    display,
			ISODate: iso,
			Status:  core.StatusLabel(bill.Status),
			Amount:  core.FormatAmount(bill.Amount),
		})
	}
	return Listing{Rows: rows, Empty: len(rows) == 0}, nil
}
