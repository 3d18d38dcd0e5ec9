// Package local provides the in-process vector index implementation of the
// bridge. It holds the embedding service and index state directly, avoiding
// a network hop on the ingestion and retrieval paths.
package local

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorStore = (*Index)(nil)

// entry is one indexed chunk with its embedding.
type entry struct {
	chunk  domain.Chunk
	vector []float32
	norm   float64
}

// Index is a brute-force cosine-similarity vector index guarded by a
// read-write mutex: writes are serialized, reads run concurrently.
type Index struct {
	embedder driven.EmbeddingService
	chunker  driven.Chunker

	mu      sync.RWMutex
	entries []entry
	// nextID assigns index-internal document identifiers. Monotonic for
	// the process lifetime so retries never collide, even across Clear.
	nextID int64
}

// New creates a new in-process index.
func New(embedder driven.EmbeddingService, chunker driven.Chunker) *Index {
	return &Index{
		embedder: embedder,
		chunker:  chunker,
	}
}

// Store splits the document into chunks, embeds them and appends them to
// the index under a freshly assigned document identifier. The caller's
// fingerprint is preserved as chunk metadata only.
func (x *Index) Store(ctx context.Context, doc *domain.Document) (int, error) {
	if x.embedder == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}

	chunks := x.chunker.Split(doc.Content)
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := x.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	x.nextID++
	docID := strconv.FormatInt(x.nextID, 10)

	for i := range chunks {
		chunks[i].DocumentID = docID
		chunks[i].Embedding = vectors[i]
		meta := chunks[i].Metadata
		if meta == nil {
			meta = make(map[string]string)
			chunks[i].Metadata = meta
		}
		meta["original_id"] = doc.Fingerprint
		meta["source_id"] = doc.SourceID
		if doc.SourceName != "" {
			meta["source_name"] = doc.SourceName
		}
		if doc.Title != "" {
			meta["title"] = doc.Title
		}
		if doc.URL != "" {
			meta["url"] = doc.URL
		}
		meta["chunk_index"] = strconv.Itoa(chunks[i].Index)

		x.entries = append(x.entries, entry{
			chunk:  chunks[i],
			vector: vectors[i],
			norm:   vectorNorm(vectors[i]),
		})
	}

	logger.Debug("Indexed document %s as %d chunks (id %s)", doc.Fingerprint, len(chunks), docID)
	return len(chunks), nil
}

// Search embeds the query, ranks all entries by cosine similarity, keeps
// the topK nearest and drops candidates below minScore. The stable sort
// preserves insertion order for equal scores.
func (x *Index) Search(ctx context.Context, query string, topK int, minScore float64) ([]domain.VectorMatch, error) {
	if x.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if topK <= 0 {
		topK = 5
	}

	queryVector, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryNorm := vectorNorm(queryVector)

	x.mu.RLock()
	defer x.mu.RUnlock()

	type scored struct {
		pos   int
		score float64
	}
	candidates := make([]scored, 0, len(x.entries))
	for i := range x.entries {
		candidates = append(candidates, scored{
			pos:   i,
			score: cosine(queryVector, queryNorm, x.entries[i].vector, x.entries[i].norm),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	matches := make([]domain.VectorMatch, 0, len(candidates))
	for _, c := range candidates {
		if c.score < minScore {
			continue
		}
		chunk := x.entries[c.pos].chunk
		matches = append(matches, domain.VectorMatch{
			DocumentID: chunk.DocumentID,
			Text:       chunk.Text,
			Title:      chunk.Metadata["title"],
			URL:        chunk.Metadata["url"],
			Score:      c.score,
			Metadata:   chunk.Metadata,
		})
	}
	return matches, nil
}

// Get reassembles an indexed document from its chunks, in chunk order.
// Accepts either the index-internal identifier or the original document
// fingerprint.
func (x *Index) Get(_ context.Context, documentID string) (*domain.IndexedDocument, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var chunks []domain.Chunk
	for i := range x.entries {
		if x.entries[i].chunk.DocumentID == documentID {
			chunks = append(chunks, x.entries[i].chunk)
		}
	}
	if len(chunks) == 0 {
		for i := range x.entries {
			if x.entries[i].chunk.Metadata["original_id"] == documentID {
				chunks = append(chunks, x.entries[i].chunk)
			}
		}
	}
	if len(chunks) == 0 {
		return nil, domain.ErrNotFound
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Index < chunks[j].Index
	})

	var text string
	for _, chunk := range chunks {
		text += chunk.Text
	}

	metadata := make(map[string]string, len(chunks[0].Metadata))
	for k, v := range chunks[0].Metadata {
		if k == "chunk_index" {
			continue
		}
		metadata[k] = v
	}

	return &domain.IndexedDocument{
		ID:         documentID,
		Text:       text,
		ChunkCount: len(chunks),
		Metadata:   metadata,
	}, nil
}

// Clear irreversibly drops all indexed chunks. Identifier assignment stays
// monotonic so post-clear inserts cannot collide with stale references.
func (x *Index) Clear(_ context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = nil
	return nil
}

// vectorNorm returns the Euclidean norm.
func vectorNorm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

// cosine computes cosine similarity given precomputed norms.
func cosine(a []float32, normA float64, b []float32, normB float64) float64 {
	if normA == 0 || normB == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}
