package driven

import (
	"github.com/quarry-labs/quarry/internal/core/domain"
)

// SourceRegistry provides lookup of configured crawl targets.
// The registry is pure data: no behaviour beyond lookup, read-only at
// runtime (implementations may reload from configuration between crawls).
type SourceRegistry interface {
	// Get returns the source with the given id, or domain.ErrUnknownSource.
	Get(id string) (*domain.Source, error)

	// List returns all sources in registration order.
	List() []domain.Source
}

// Chunker splits document content into bounded-length chunks with
// configurable overlap.
type Chunker interface {
	// Split produces the chunks for a document's content. Chunk IDs are
	// assigned here; index-internal document IDs are not.
	Split(content string) []domain.Chunk
}
