package domain

import "time"

// Document is a single crawled or ingested unit.
// Documents are immutable once persisted: a re-crawl of the same URL that
// yields different content produces a new Document with a new fingerprint,
// never a mutation of the old record.
type Document struct {
	// Fingerprint is the SHA-256 hash of Content, or of URL when the
	// content is empty. It is the global deduplication key.
	Fingerprint string

	// SourceID identifies the registry entry that produced this document,
	// or "manual" for direct API ingestion.
	SourceID string

	// SourceName is the human-readable name of the source.
	SourceName string

	// URL is the page the document was crawled from. May be empty for
	// manually ingested text.
	URL string

	// Title is the extracted page title. May be empty.
	Title string

	// Content is the full extracted text: page body plus any attachment
	// text, concatenated.
	Content string

	// Attachments holds files (PDFs) linked from the page whose text was
	// folded into Content.
	Attachments []Attachment

	// PublishedAt is the best-effort parsed publication date.
	PublishedAt time.Time

	// CrawledAt is when the document was ingested.
	CrawledAt time.Time
}

// Attachment is a file linked from a crawled page.
type Attachment struct {
	// URL is the attachment location.
	URL string

	// Filename is the display name taken from the link text.
	Filename string

	// MIMEType is the detected content type.
	MIMEType string

	// Text is the extracted text content.
	Text string
}

// Chunk is a bounded-length slice of a document's content, the unit of
// embedding and indexing. Chunks are regenerated whenever a document is
// indexed, never diffed.
type Chunk struct {
	// ID is the chunk identifier assigned at chunking time.
	ID string

	// DocumentID links to the index-internal document identifier.
	DocumentID string

	// Index is the ordinal position within the document.
	Index int

	// Text is the chunk content.
	Text string

	// Embedding is the vector representation for similarity search.
	Embedding []float32

	// Metadata carries provenance: source_id, title, url and the original
	// document fingerprint under "original_id".
	Metadata map[string]string
}

// RawPage is a fetched page before extraction.
type RawPage struct {
	// URL is where the page was fetched from.
	URL string

	// Body is the raw response payload.
	Body []byte
}

// Extraction is the result of running the extractor over a raw page.
type Extraction struct {
	// Title is the extracted document title, if any.
	Title string

	// Text is the extracted body text. May be empty when the page has no
	// extractable content.
	Text string

	// Attachments are linked files whose text was extracted.
	Attachments []Attachment

	// Published is the raw publication date string found on the page, if
	// any. Parsed by ParsePublishTime.
	Published string
}
