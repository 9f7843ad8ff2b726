package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"billed/internal/core"
	ports "billed/internal/sheets"
)

// Ledger keeps exported rows in memory. Used when no spreadsheet is configured.
type Ledger struct {
	mu   sync.Mutex
	rows [][]any
	refs map[string]string
}

var _ ports.LedgerWriter = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{refs: map[string]string{}}
}

// AppendBill stores the row and returns a synthetic row reference.
func (l *Ledger) AppendBill(_ context.Context, b core.Bill) (string, error) {
	if b.ID == "" {
		return "", errors.New("bill id is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if ref, ok := l.refs[b.ID]; ok {
		return ref, nil
	}
	l.rows = append(l.rows, ports.Row(b))
	ref := fmt.Sprintf("mem:%d", len(l.rows))
	l.refs[b.ID] = ref
	return ref, nil
}

// Rows returns a copy of the written rows.
func (l *Ledger) Rows() [][]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]any(nil), l.rows...)
}
