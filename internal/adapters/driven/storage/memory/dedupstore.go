// Package memory provides in-memory storage adapters, used as test
// fixtures and for ephemeral deployments.
package memory

import (
	"context"
	"sync"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Ensure DedupStore implements the interface.
var _ driven.DedupStore = (*DedupStore)(nil)

// record is a ledger entry. Content is not retained; the ledger is a
// fingerprint index, not a document store.
type record struct {
	doc    domain.Document
	synced bool
}

// DedupStore is an in-memory implementation of driven.DedupStore.
type DedupStore struct {
	mu      sync.Mutex
	records map[string]*record
}

// NewDedupStore creates a new in-memory dedup store.
func NewDedupStore() *DedupStore {
	return &DedupStore{
		records: make(map[string]*record),
	}
}

// Exists reports whether a fingerprint has been recorded.
func (s *DedupStore) Exists(_ context.Context, fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[fingerprint]
	return ok, nil
}

// InsertIfAbsent records a document under its fingerprint. The mutex makes
// the check-and-insert atomic: racing callers see exactly one true result.
func (s *DedupStore) InsertIfAbsent(_ context.Context, doc *domain.Document) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[doc.Fingerprint]; ok {
		return false, nil
	}
	stored := *doc
	stored.Content = ""
	s.records[doc.Fingerprint] = &record{doc: stored}
	return true, nil
}

// MarkSynced flags a recorded fingerprint as indexed.
func (s *DedupStore) MarkSynced(_ context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[fingerprint]
	if !ok {
		return domain.ErrNotFound
	}
	rec.synced = true
	return nil
}

// Count returns the number of recorded documents.
func (s *DedupStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), nil
}

// Clear removes every ledger entry.
func (s *DedupStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*record)
	return nil
}
