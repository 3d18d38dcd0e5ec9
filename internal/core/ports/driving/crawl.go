package driving

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// CrawlOrchestrator coordinates document ingestion from sources.
type CrawlOrchestrator interface {
	// Crawl ingests a single source. Returns domain.ErrUnknownSource for
	// unregistered ids. Partial page failures do not fail the crawl.
	Crawl(ctx context.Context, sourceID string) (*domain.CrawlResult, error)

	// CrawlAll ingests every registered source in registration order,
	// one at a time.
	CrawlAll(ctx context.Context) ([]domain.CrawlResult, error)

	// Ingest records a document directly, bypassing crawling but subject
	// to the same fingerprint, dedup and chunk pipeline. Returns the
	// number of chunks indexed.
	Ingest(ctx context.Context, content string, meta IngestMetadata) (int, error)

	// Status returns the crawl status for a source.
	Status(ctx context.Context, sourceID string) (*domain.CrawlStatus, error)
}

// IngestMetadata carries provenance for directly ingested documents.
type IngestMetadata struct {
	// SourceID identifies the producer; defaults to "manual".
	SourceID string

	// Title is an optional document title.
	Title string

	// URL is an optional document location.
	URL string
}
