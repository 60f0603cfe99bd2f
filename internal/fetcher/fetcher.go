package fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/fibersift/fibersift/internal/catalog"
)

// Sentinel errors for fetch failure modes.
var (
	ErrSessionClosed = errors.New("fetch session is closed")
	ErrNoListing     = errors.New("listing page yielded no product links")
)

// FetchError wraps errors that occur while fetching a single URL. The
// ingestion pipeline logs it, counts it, and moves on; it never aborts a
// batch.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PageFetcher is the entry point to the scraping collaborator. A Session is
// an expensive resource (a live browser); callers open one per ingestion
// batch and must close it on every exit path.
type PageFetcher interface {
	OpenSession(ctx context.Context) (Session, error)
}

// Session is a batch-scoped fetch resource. Implementations may return
// partial or empty data; per-URL failures surface as errors, never panics.
type Session interface {
	// DiscoverProductURLs returns up to limit candidate product URLs for a
	// category/gender listing.
	DiscoverProductURLs(ctx context.Context, category, gender string, limit int) ([]string, error)

	// ExtractRawProduct renders a product page and extracts its raw fields.
	ExtractRawProduct(ctx context.Context, url string) (*catalog.RawProduct, error)

	// Close releases the underlying resource.
	Close() error
}
