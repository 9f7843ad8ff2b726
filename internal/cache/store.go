// Package cache memoizes the bill listing of a store.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"billed/internal/core"
	"billed/internal/metrics"
	"billed/internal/store"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// listingsKept bounds the cached listings: the current generation and the
// one a write has just superseded.
const listingsKept = 2

// CachedStore wraps a store.Store and memoizes List until the next write.
//
// Every successful write moves the store to a new generation and listings
// are cached under their generation, so a listing read before a write can
// never be served after it.
type CachedStore struct {
	next  store.Store
	bills *cachedBills
}

var (
	_ store.Store         = (*CachedStore)(nil)
	_ store.ExportTracker = (*CachedStore)(nil)
)

// NewCachedStore caches listings of next for ttl.
func NewCachedStore(next store.Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next: next,
		bills: &cachedBills{
			next:     next.Bills(),
			listings: expirable.NewLRU[string, []core.Bill](listingsKept, nil, ttl),
		},
	}
}

func (s *CachedStore) Bills() store.BillStore { return s.bills }

// Len reports how many listings are held.
func (s *CachedStore) Len() int { return s.bills.listings.Len() }

// PendingExports forwards to the wrapped store when it tracks exports.
func (s *CachedStore) PendingExports(ctx context.Context, limit int) ([]core.Bill, error) {
	t, ok := s.next.(store.ExportTracker)
	if !ok {
		return nil, nil
	}
	return t.PendingExports(ctx, limit)
}

// MarkExported forwards to the wrapped store when it tracks exports.
func (s *CachedStore) MarkExported(ctx context.Context, id string, rowRef string) error {
	t, ok := s.next.(store.ExportTracker)
	if !ok {
		return nil
	}
	return t.MarkExported(ctx, id, rowRef)
}

type cachedBills struct {
	next       store.BillStore
	listings   *expirable.LRU[string, []core.Bill]
	fills      singleflight.Group
	generation atomic.Uint64
}

func listKey(gen uint64) string {
	return "bills:" + strconv.FormatUint(gen, 10)
}

func (b *cachedBills) List(ctx context.Context) ([]core.Bill, error) {
	key := listKey(b.generation.Load())
	if bills, ok := b.listings.Get(key); ok {
		metrics.ObserveListCache(true)
		slog.DebugContext(ctx, "Bill listing served from cache", "count", len(bills))
		return clone(bills), nil
	}
	metrics.ObserveListCache(false)

	// Concurrent misses of one generation share a single backend read.
	v, err, _ := b.fills.Do(key, func() (any, error) {
		bills, err := b.next.List(ctx)
		if err != nil {
			return nil, err
		}
		// Stored under the generation read before the fill: if a write
		// landed meanwhile, readers already look up the next key.
		b.listings.Add(key, clone(bills))
		return bills, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(v.([]core.Bill)), nil
}

func (b *cachedBills) Create(ctx context.Context, bill core.Bill) (core.Bill, error) {
	created, err := b.next.Create(ctx, bill)
	if err == nil {
		b.generation.Add(1)
	}
	return created, err
}

func (b *cachedBills) Update(ctx context.Context, bill core.Bill) (core.Bill, error) {
	updated, err := b.next.Update(ctx, bill)
	if err == nil {
		b.generation.Add(1)
	}
	return updated, err
}

func clone(bills []core.Bill) []core.Bill {
	if bills == nil {
		return nil
	}
	out := make([]core.Bill, len(bills))
	copy(out, bills)
	return out
}
