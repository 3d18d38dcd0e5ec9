package driven

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// DedupStore is the durable fingerprint ledger. It enforces at-most-once
// persistence per fingerprint and is the sole concurrency-safety contract
// of the ingestion pipeline: everything downstream (chunking, vector push)
// is only ever triggered on a successful insert.
type DedupStore interface {
	// Exists reports whether a fingerprint has been recorded.
	Exists(ctx context.Context, fingerprint string) (bool, error)

	// InsertIfAbsent records a document under its fingerprint. It is
	// atomic with respect to the existence check: concurrent callers
	// racing on the same fingerprint see exactly one true result.
	InsertIfAbsent(ctx context.Context, doc *domain.Document) (bool, error)

	// MarkSynced flags a recorded fingerprint as having a corresponding
	// vector index entry. Best-effort bookkeeping for operator re-sync.
	MarkSynced(ctx context.Context, fingerprint string) error

	// Count returns the number of recorded documents.
	Count(ctx context.Context) (int, error)

	// Clear removes every ledger entry. Used for full-corpus resets only;
	// there is no per-document delete.
	Clear(ctx context.Context) error
}
