package domain

// VectorMatch is a read-only projection of an indexed chunk returned by
// similarity search.
type VectorMatch struct {
	// DocumentID is the index-internal identifier of the matched chunk's
	// document.
	DocumentID string

	// Text is the matched chunk content.
	Text string

	// Title is the source document title, if known.
	Title string

	// URL is the source document location, if known.
	URL string

	// Score is the similarity in the embedding space. Higher is more
	// relevant.
	Score float64

	// Metadata carries the full chunk metadata.
	Metadata map[string]string
}

// Answer is the result of a retrieval-augmented generation round.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources are the matches embedded into the grounding prompt, in the
	// descending-similarity order they were presented to the model.
	// Empty when no match cleared the similarity threshold.
	Sources []VectorMatch
}

// CrawlResult reports the outcome of crawling one source.
type CrawlResult struct {
	// SourceID identifies the crawled source.
	SourceID string

	// Found is the number of document pages discovered.
	Found int

	// Inserted is the number of documents newly recorded in the ledger.
	Inserted int

	// Vectorized is the number of inserted documents successfully pushed
	// into the vector index.
	Vectorized int

	// Skipped is the number of pages dropped by the dedup gate.
	Skipped int

	// Errors is the number of pages that failed to fetch or persist.
	Errors int
}

// CrawlStatus describes an in-flight or idle crawl for a source.
type CrawlStatus struct {
	// SourceID identifies the source.
	SourceID string

	// Running is true while a crawl is in progress.
	Running bool

	// PagesProcessed counts pages handled so far.
	PagesProcessed int

	// ErrorCount counts pages that failed so far.
	ErrorCount int
}

// IndexedDocument is a document as stored in the vector index, reassembled
// from its chunks.
type IndexedDocument struct {
	// ID is the index-internal document identifier.
	ID string

	// Text is the chunk texts joined in chunk order.
	Text string

	// ChunkCount is the number of chunks the document was split into.
	ChunkCount int

	// Metadata is the provenance metadata shared by the chunks.
	Metadata map[string]string
}
