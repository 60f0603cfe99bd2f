package store

import (
	"context"
	"fmt"

	"github.com/fibersift/fibersift/internal/catalog"
)

// Filter selects products from the catalog. Zero values mean "no
// constraint", except MinCotton: nil applies the default cotton threshold
// together with the zero-reading carve-out for curated and
// taxonomy-matched products.
type Filter struct {
	Category  string
	Search    string
	MinCotton *int
	MaxPrice  float64
}

// Catalog is the persistence boundary. The only write primitive is an
// idempotent upsert keyed by canonical product URL.
type Catalog interface {
	// UpsertBatch persists each product keyed by URL. UpdatedAt is set on
	// every call; CreatedAt only on first insert. Duplicate URLs within one
	// batch resolve last-write-wins in batch order.
	UpsertBatch(ctx context.Context, products []catalog.Product) error

	// Query returns matching products sorted ascending by price, with
	// category fields renormalized to canonical form.
	Query(ctx context.Context, f Filter) ([]catalog.Product, error)

	// ListCategories returns the distinct normalized categories on record.
	ListCategories(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// StoreError wraps backend failures. It is fatal to the current operation
// but never masked with fabricated data; callers surface it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error (%s): %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
