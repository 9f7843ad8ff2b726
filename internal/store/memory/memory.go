package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"billed/internal/core"
	"billed/internal/store"

	"github.com/google/uuid"
)

// seedFile is the optional fixture file read by NewFromFiles.
const seedFile = "seed_bills.json"

type entry struct {
	bill   core.Bill
	rowRef string
}

// Store keeps bills in process memory, in insertion order.
type Store struct {
	mu    sync.Mutex
	items []entry
	index map[string]int
}

var (
	_ store.Store         = (*Store)(nil)
	_ store.BillStore     = (*Store)(nil)
	_ store.ExportTracker = (*Store)(nil)
)

func New(seed ...core.Bill) *Store {
	s := &Store{index: map[string]int{}}
	for _, b := range seed {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if b.Status == "" {
			b.Status = core.StatusPending
		}
		s.index[b.ID] = len(s.items)
		s.items = append(s.items, entry{bill: b})
	}
	return s
}

// NewFromFiles seeds the store from base/seed_bills.json when present.
func NewFromFiles(base string) (*Store, error) {
	seed, err := readSeed(filepath.Join(base, seedFile))
	if err != nil {
		return nil, err
	}
	return New(seed...), nil
}

func (s *Store) Bills() store.BillStore { return s }

func (s *Store) List(_ context.Context) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Bill, 0, len(s.items))
	for _, e := range s.items {
		out = append(out, e.bill)
	}
	return out, nil
}

func (s *Store) Create(_ context.Context, b core.Bill) (core.Bill, error) {
	if b.Status == "" {
		b.Status = core.StatusPending
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	b.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[b.ID] = len(s.items)
	s.items = append(s.items, entry{bill: b})
	return b, nil
}

func (s *Store) Update(_ context.Context, b core.Bill) (core.Bill, error) {
	if strings.TrimSpace(b.ID) == "" {
		return core.Bill{}, store.ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[b.ID]
	if !ok {
		return core.Bill{}, store.ErrBillNotFound
	}
	b.Email = s.items[i].bill.Email
	if b.Status == "" {
		b.Status = s.items[i].bill.Status
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	s.items[i].bill = b
	return b, nil
}

// PendingExports returns bills with an attached file that have not been
// written to the ledger yet.
func (s *Store) PendingExports(_ context.Context, limit int) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Bill
	for _, e := range s.items {
		if e.rowRef != "" || !e.bill.HasFile() {
			continue
		}
		out = append(out, e.bill)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkExported(_ context.Context, id string, rowRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return store.ErrBillNotFound
	}
	s.items[i].rowRef = rowRef
	return nil
}

type seedBill struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	Amount     int64  `json:"amount"`
	VAT        int64  `json:"vat"`
	Pct        int    `json:"pct"`
	Commentary string `json:"commentary"`
	FileURL    string `json:"fileUrl"`
	FileName   string `json:"fileName"`
	Status     string `json:"status"`
}

func readSeed(path string) ([]core.Bill, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed bills: %w", err)
	}
	var rows []seedBill
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode seed bills: %w", err)
	}
	out := make([]core.Bill, 0, len(rows))
	for _, r := range rows {
		d, err := core.ParseISODate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("seed bill %q: %w", r.Name, err)
		}
		out = append(out, core.Bill{
			ID:         r.ID,
			Email:      r.Email,
			Type:       r.Type,
			Name:       r.Name,
			Date:       d,
			Amount:     r.Amount,
			VAT:        r.VAT,
			Pct:        r.Pct,
			Commentary: r.Commentary,
			FileURL:    r.FileURL,
			FileName:   r.FileName,
			Status:     core.Status(r.Status),
		})
	}
	return out, nil
}
