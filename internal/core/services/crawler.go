package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// SourceIDManual marks documents ingested directly through the API.
const SourceIDManual = "manual"

// Ensure CrawlOrchestrator implements the interface.
var _ driving.CrawlOrchestrator = (*CrawlOrchestrator)(nil)

// CrawlOrchestrator coordinates document ingestion: fetch, extract,
// fingerprint, dedup-gated persistence and the vector index push.
type CrawlOrchestrator struct {
	registry  driven.SourceRegistry
	dedup     driven.DedupStore
	vectors   driven.VectorStore
	fetcher   driven.PageFetcher
	extractor driven.Extractor

	// vectorSync gates the index push after a successful ledger insert.
	vectorSync bool

	// Status tracking
	mu           sync.RWMutex
	activeCrawls map[string]*domain.CrawlStatus
}

// NewCrawlOrchestrator creates a new crawl orchestrator.
// The vectors store is only consulted when vectorSync is true.
func NewCrawlOrchestrator(
	registry driven.SourceRegistry,
	dedup driven.DedupStore,
	vectors driven.VectorStore,
	fetcher driven.PageFetcher,
	extractor driven.Extractor,
	vectorSync bool,
) *CrawlOrchestrator {
	return &CrawlOrchestrator{
		registry:     registry,
		dedup:        dedup,
		vectors:      vectors,
		fetcher:      fetcher,
		extractor:    extractor,
		vectorSync:   vectorSync,
		activeCrawls: make(map[string]*domain.CrawlStatus),
	}
}

// Crawl ingests a single source. Pages are processed strictly in list
// order, sequentially, to bound load on the origin site. A page-level
// failure skips that page and never aborts the batch.
func (o *CrawlOrchestrator) Crawl(ctx context.Context, sourceID string) (*domain.CrawlResult, error) {
	source, err := o.registry.Get(sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}

	status := &domain.CrawlStatus{
		SourceID: sourceID,
		Running:  true,
	}
	if err := o.beginCrawl(sourceID, status); err != nil {
		return nil, err
	}
	defer o.clearStatus(sourceID)

	logger.Info("Starting crawl for source %s", sourceID)

	result := &domain.CrawlResult{SourceID: sourceID}

	pages := o.discoverPages(ctx, source, result, status)
	result.Found = len(pages)

	for _, pageURL := range pages {
		// Let the in-flight page drain on shutdown, but start no new one.
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		o.processPage(ctx, source, pageURL, result, status)
		status.PagesProcessed++
	}

	logger.Info("Crawl complete for %s: %d found, %d inserted, %d vectorized, %d skipped, %d errors",
		sourceID, result.Found, result.Inserted, result.Vectorized, result.Skipped, result.Errors)
	status.Running = false
	return result, nil
}

// CrawlAll ingests every registered source in registration order, one at a
// time. A failing source does not stop the pass over the remaining ones.
func (o *CrawlOrchestrator) CrawlAll(ctx context.Context) ([]domain.CrawlResult, error) {
	sources := o.registry.List()

	results := make([]domain.CrawlResult, 0, len(sources))
	var errs []error
	for _, source := range sources {
		result, err := o.Crawl(ctx, source.ID)
		if result != nil {
			results = append(results, *result)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return results, err
			}
			errs = append(errs, fmt.Errorf("crawl %s: %w", source.ID, err))
		}
	}

	if len(errs) > 0 {
		return results, errors.Join(errs...)
	}
	return results, nil
}

// Ingest records a document directly, bypassing crawling but subject to
// the same fingerprint, dedup and chunk pipeline.
func (o *CrawlOrchestrator) Ingest(ctx context.Context, content string, meta driving.IngestMetadata) (int, error) {
	if strings.TrimSpace(content) == "" && meta.URL == "" {
		return 0, fmt.Errorf("ingest: %w", domain.ErrInvalidInput)
	}

	sourceID := meta.SourceID
	if sourceID == "" {
		sourceID = SourceIDManual
	}

	doc := &domain.Document{
		Fingerprint: domain.Fingerprint(content, meta.URL),
		SourceID:    sourceID,
		URL:         meta.URL,
		Title:       meta.Title,
		Content:     content,
		CrawledAt:   time.Now().UTC(),
	}

	inserted, err := o.dedup.InsertIfAbsent(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	if !inserted {
		logger.Debug("Ingest: fingerprint %s already recorded", doc.Fingerprint)
		return 0, nil
	}

	if !o.vectorSync || o.vectors == nil {
		return 0, nil
	}

	chunks, err := o.vectors.Store(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("store in vector index: %w", err)
	}
	o.markSynced(ctx, doc.Fingerprint)
	return chunks, nil
}

// Status returns the crawl status for a source.
func (o *CrawlOrchestrator) Status(_ context.Context, sourceID string) (*domain.CrawlStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if status, ok := o.activeCrawls[sourceID]; ok {
		// Return a copy to avoid race conditions
		return &domain.CrawlStatus{
			SourceID:       status.SourceID,
			Running:        status.Running,
			PagesProcessed: status.PagesProcessed,
			ErrorCount:     status.ErrorCount,
		}, nil
	}

	// Not running - return idle status
	return &domain.CrawlStatus{
		SourceID: sourceID,
		Running:  false,
	}, nil
}

// discoverPages resolves a source to its ordered document page list.
// Sources with an explicit page list use it verbatim; list-page sources
// follow links from each paginated index page. A failing list page is
// skipped, not fatal.
func (o *CrawlOrchestrator) discoverPages(
	ctx context.Context,
	source *domain.Source,
	result *domain.CrawlResult,
	status *domain.CrawlStatus,
) []string {
	if len(source.Pages) > 0 {
		return source.Pages
	}
	if source.ListURL == "" {
		return nil
	}

	var pages []string
	seen := make(map[string]bool)
	for _, listURL := range paginatedListURLs(source.ListURL, source.MaxPages) {
		page, err := o.fetcher.Fetch(ctx, listURL)
		if err != nil {
			logger.Warn("Skipping list page %s: %v", listURL, err)
			result.Errors++
			status.ErrorCount++
			continue
		}

		links, err := o.extractor.Links(ctx, page)
		if err != nil {
			logger.Warn("No links extracted from %s: %v", listURL, err)
			continue
		}
		for _, link := range links {
			if seen[link] {
				continue
			}
			seen[link] = true
			pages = append(pages, link)
		}
	}
	return pages
}

// processPage runs the per-page pipeline: fetch, extract, fingerprint,
// dedup gate, ledger insert, vector push.
func (o *CrawlOrchestrator) processPage(
	ctx context.Context,
	source *domain.Source,
	pageURL string,
	result *domain.CrawlResult,
	status *domain.CrawlStatus,
) {
	logger.Debug("Processing: %s", pageURL)

	page, err := o.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		// Fetch failure is recovered locally; the crawl continues.
		logger.Warn("Skipping page %s: %v", pageURL, err)
		result.Errors++
		status.ErrorCount++
		return
	}

	extraction, err := o.extractor.Extract(ctx, page)
	if err != nil {
		// Extraction failure is treated as empty content so the page
		// still deduplicates by URL.
		logger.Debug("Extraction failed for %s: %v", pageURL, err)
		extraction = &domain.Extraction{}
	}

	content := aggregateContent(extraction)
	fingerprint := domain.Fingerprint(content, pageURL)

	// Dedup gate, checked before any index write so re-crawls of
	// unchanged content never touch the vector index.
	exists, err := o.dedup.Exists(ctx, fingerprint)
	if err != nil {
		logger.Warn("Dedup lookup failed for %s: %v", pageURL, err)
		result.Errors++
		status.ErrorCount++
		return
	}
	if exists {
		logger.Debug("Already recorded: %s", pageURL)
		result.Skipped++
		return
	}

	doc := &domain.Document{
		Fingerprint: fingerprint,
		SourceID:    source.ID,
		SourceName:  source.Name,
		URL:         pageURL,
		Title:       extraction.Title,
		Content:     content,
		Attachments: extraction.Attachments,
		PublishedAt: domain.ParsePublishTime(extraction.Published),
		CrawledAt:   time.Now().UTC(),
	}

	inserted, err := o.dedup.InsertIfAbsent(ctx, doc)
	if err != nil {
		// Fatal for this document only; the batch continues.
		logger.Warn("Ledger write failed for %s: %v", pageURL, err)
		result.Errors++
		status.ErrorCount++
		return
	}
	if !inserted {
		// Lost the race against a concurrent identical insert; the
		// winning writer is responsible for indexing.
		logger.Debug("Lost insert race for %s", pageURL)
		result.Skipped++
		return
	}
	result.Inserted++

	if !o.vectorSync || o.vectors == nil {
		return
	}

	if _, err := o.vectors.Store(ctx, doc); err != nil {
		// The document stays recorded without an index entry. It is not
		// retried this cycle; the unsynced flag is the re-sync handle.
		logger.Warn("Vector push failed for %s (fingerprint %s): %v", pageURL, fingerprint, err)
		return
	}
	result.Vectorized++
	o.markSynced(ctx, fingerprint)
}

// aggregateContent merges body text and attachment texts into one blob,
// prefixing each attachment with a filename marker.
func aggregateContent(extraction *domain.Extraction) string {
	parts := make([]string, 0, 1+len(extraction.Attachments))
	if extraction.Text != "" {
		parts = append(parts, extraction.Text)
	}
	for _, att := range extraction.Attachments {
		if att.Text == "" {
			continue
		}
		name := att.Filename
		if name == "" {
			name = att.URL
		}
		parts = append(parts, fmt.Sprintf("[attachment: %s]\n%s", name, att.Text))
	}
	return strings.Join(parts, "\n\n")
}

// markSynced is best-effort bookkeeping; a failure only costs the
// operator re-sync hint.
func (o *CrawlOrchestrator) markSynced(ctx context.Context, fingerprint string) {
	if err := o.dedup.MarkSynced(ctx, fingerprint); err != nil {
		logger.Debug("Failed to mark %s synced: %v", fingerprint, err)
	}
}

// beginCrawl registers the crawl status for a source, rejecting a second
// concurrent crawl of the same source.
func (o *CrawlOrchestrator) beginCrawl(sourceID string, status *domain.CrawlStatus) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if existing, ok := o.activeCrawls[sourceID]; ok && existing.Running {
		return fmt.Errorf("source %s: %w", sourceID, domain.ErrCrawlInProgress)
	}
	o.activeCrawls[sourceID] = status
	return nil
}

// clearStatus removes the crawl status for a source.
func (o *CrawlOrchestrator) clearStatus(sourceID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeCrawls, sourceID)
}
