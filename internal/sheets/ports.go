package sheets

import (
	"context"

	"billed/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerWriter appends submitted bills to the accounting ledger.
	// Appending a bill already present returns its existing row reference.
	LedgerWriter interface {
		AppendBill(ctx context.Context, b core.Bill) (rowRef string, err error)
	}
)

// Header is the first row of every ledger sheet.
var Header = []string{
	"ID", "Email", "Date", "Date affichée", "Type", "Nom",
	"Montant", "TVA", "Pct", "Statut", "Justificatif", "Commentaire",
}

// Row renders a bill in ledger column order.
func Row(b core.Bill) []any {
	return []any{
		b.ID,
		b.Email,
		b.Date.ISO(),
		b.Date.Display(),
		b.Type,
		b.Name,
		b.Amount,
		b.VAT,
		b.Pct,
		core.StatusLabel(b.Status),
		b.FileURL,
		b.Commentary,
	}
}
