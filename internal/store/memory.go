package store

import (
	"context"
	"sync"
	"time"

	"github.com/fibersift/fibersift/internal/catalog"
)

// Memory is an in-process Catalog with the same observable semantics as
// the MongoDB backend. It backs tests and the store.backend=memory demo
// mode; it is never a silent fallback for a failed database connection.
type Memory struct {
	mu       sync.RWMutex
	products map[string]catalog.Product
	now      func() time.Time
}

// NewMemory creates an empty in-memory catalog.
func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock creates an in-memory catalog with an injected clock,
// letting tests assert timestamp ownership deterministically.
func NewMemoryWithClock(clock func() time.Time) *Memory {
	return &Memory{
		products: make(map[string]catalog.Product),
		now:      clock,
	}
}

// UpsertBatch stores each product keyed by URL. Existing records keep
// their CreatedAt; duplicates within one batch resolve last-write-wins.
func (m *Memory) UpsertBatch(ctx context.Context, products []catalog.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	for _, p := range products {
		if p.URL == "" {
			continue
		}
		if existing, ok := m.products[p.URL]; ok {
			p.CreatedAt = existing.CreatedAt
		} else {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		m.products[p.URL] = p
	}
	return nil
}

// Query filters the stored products and applies the shared
// renormalization and price-sort pass.
func (m *Memory) Query(ctx context.Context, f Filter) ([]catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var hits []catalog.Product
	for _, p := range m.products {
		if matches(p, f) {
			hits = append(hits, p)
		}
	}
	m.mu.RUnlock()

	return finalize(hits, f), nil
}

// ListCategories returns the distinct normalized categories on record.
func (m *Memory) ListCategories(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	raw := make([]string, 0, len(m.products))
	for _, p := range m.products {
		raw = append(raw, p.Category)
	}
	m.mu.RUnlock()

	return normalizeCategories(raw), nil
}

// Len reports the number of stored products.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.products)
}

func (m *Memory) Close(ctx context.Context) error { return nil }
