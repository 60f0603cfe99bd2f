package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for per-product failure modes.
var (
	ErrNoName       = errors.New("product has no usable name")
	ErrEmptyPage    = errors.New("page yielded no product data")
	ErrNoExtraction = errors.New("no products extracted from batch")
)

// ExtractionError wraps a per-URL build failure. Callers skip the URL and
// continue the batch; it never aborts ingestion.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
