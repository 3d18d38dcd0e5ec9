package driven

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// VectorStore is the bridge between ingestion/retrieval and the vector
// index. Two implementations satisfy it: an in-process index holding the
// embedding service and index state directly, and a remote client speaking
// the same two operations over HTTP. Callers are written against this
// contract only; the active implementation is selected once at startup.
type VectorStore interface {
	// Store splits the document content into chunks, embeds each and
	// upserts them under an index-assigned document identifier. The
	// caller's fingerprint survives only as chunk metadata ("original_id").
	// Returns the number of chunks indexed.
	Store(ctx context.Context, doc *domain.Document) (int, error)

	// Search embeds the query, runs a nearest-neighbour lookup for topK
	// candidates and drops any candidate scoring below minScore. Results
	// are ordered by descending similarity; ties keep insertion order.
	Search(ctx context.Context, query string, topK int, minScore float64) ([]domain.VectorMatch, error)

	// Get reassembles an indexed document from its chunks.
	Get(ctx context.Context, documentID string) (*domain.IndexedDocument, error)

	// Clear irreversibly drops all indexed chunks. The dedup ledger is
	// not touched; ledger entries may legitimately outlive index contents.
	Clear(ctx context.Context) error
}
