package driven

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// PageFetcher retrieves raw pages over the network.
// Implementations retry transient failures and throttle requests so the
// crawl keeps a single predictable load profile on origin sites.
type PageFetcher interface {
	// Fetch downloads the page at url. A nil error guarantees a non-nil
	// page with the response body.
	Fetch(ctx context.Context, url string) (*domain.RawPage, error)
}

// Extractor turns raw pages into extraction results.
// May return empty text; the caller falls back to URL-based fingerprinting
// rather than aborting.
type Extractor interface {
	// Extract parses a fetched page into title, body text and attachment
	// texts.
	Extract(ctx context.Context, page *domain.RawPage) (*domain.Extraction, error)

	// Links returns the absolute document URLs referenced by an index
	// page, in page order.
	Links(ctx context.Context, page *domain.RawPage) ([]string, error)
}
