package local

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/chunker"
	"github.com/quarry-labs/quarry/internal/core/domain"
)

// fakeEmbedder returns fixed vectors per text, defaulting to a unit vector
// orthogonal to everything interesting.
type fakeEmbedder struct {
	vectors  map[string][]float32
	embedErr error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int              { return 3 }
func (f *fakeEmbedder) ModelName() string            { return "fake" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }

func doc(fingerprint, content string) *domain.Document {
	return &domain.Document{
		Fingerprint: fingerprint,
		SourceID:    "test",
		Title:       "Title " + fingerprint,
		URL:         "http://example.com/" + fingerprint,
		Content:     content,
	}
}

func TestStore_AssignsMonotonicIDs(t *testing.T) {
	index := New(&fakeEmbedder{}, chunker.New())
	ctx := context.Background()

	chunks, err := index.Store(ctx, doc("fp-a", "alpha"))
	require.NoError(t, err)
	assert.Equal(t, 1, chunks)

	_, err = index.Store(ctx, doc("fp-b", "beta"))
	require.NoError(t, err)

	first, err := index.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "fp-a", first.Metadata["original_id"])

	second, err := index.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "fp-b", second.Metadata["original_id"])
}

func TestStore_EmptyContentYieldsNoChunks(t *testing.T) {
	index := New(&fakeEmbedder{}, chunker.New())

	chunks, err := index.Store(context.Background(), doc("fp", ""))
	require.NoError(t, err)
	assert.Equal(t, 0, chunks)
}

func TestSearch_MinScoreFilter(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"close":    {1, 0, 0},
		"sideways": {0.5, 0.5, 0},
		"query":    {1, 0, 0},
	}}
	index := New(embedder, chunker.New())
	ctx := context.Background()

	_, err := index.Store(ctx, doc("a", "close"))
	require.NoError(t, err)
	_, err = index.Store(ctx, doc("b", "sideways"))
	require.NoError(t, err)

	matches, err := index.Search(ctx, "query", 10, 0.9)
	require.NoError(t, err)

	// "sideways" scores ~0.707, below the threshold.
	require.Len(t, matches, 1)
	assert.Equal(t, "close", matches[0].Text)
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Score, 0.9)
	}
}

func TestSearch_TopKAndOrdering(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"best":  {1, 0, 0},
		"good":  {0.9, 0.1, 0},
		"poor":  {0, 1, 0},
		"query": {1, 0, 0},
	}}
	index := New(embedder, chunker.New())
	ctx := context.Background()

	for _, text := range []string{"poor", "good", "best"} {
		_, err := index.Store(ctx, doc("fp-"+text, text))
		require.NoError(t, err)
	}

	matches, err := index.Search(ctx, "query", 2, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "best", matches[0].Text)
	assert.Equal(t, "good", matches[1].Text)
}

func TestSearch_StableOrderForEqualScores(t *testing.T) {
	// Identical vectors produce identical scores; insertion order must be
	// preserved.
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"twin one": {1, 0, 0},
		"twin two": {1, 0, 0},
		"query":    {1, 0, 0},
	}}
	index := New(embedder, chunker.New())
	ctx := context.Background()

	_, err := index.Store(ctx, doc("a", "twin one"))
	require.NoError(t, err)
	_, err = index.Store(ctx, doc("b", "twin two"))
	require.NoError(t, err)

	matches, err := index.Search(ctx, "query", 10, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "twin one", matches[0].Text)
	assert.Equal(t, "twin two", matches[1].Text)
}

func TestSearch_EmbedFailure(t *testing.T) {
	index := New(&fakeEmbedder{embedErr: errors.New("model offline")}, chunker.New())

	_, err := index.Search(context.Background(), "query", 3, 0)
	assert.Error(t, err)
}

func TestGet_ReassemblesChunksInOrder(t *testing.T) {
	// Force multiple chunks with a tiny chunk size and no overlap.
	index := New(&fakeEmbedder{}, chunker.New(chunker.WithChunkSize(4), chunker.WithOverlap(0)))
	ctx := context.Background()

	chunks, err := index.Store(ctx, doc("fp", "abcdefgh"))
	require.NoError(t, err)
	assert.Equal(t, 2, chunks)

	got, err := index.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh", got.Text)
	assert.Equal(t, 2, got.ChunkCount)
	assert.NotContains(t, got.Metadata, "chunk_index")
}

func TestGet_ByFingerprint(t *testing.T) {
	index := New(&fakeEmbedder{}, chunker.New())
	ctx := context.Background()

	_, err := index.Store(ctx, doc("fp-x", "some text"))
	require.NoError(t, err)

	got, err := index.Get(ctx, "fp-x")
	require.NoError(t, err)
	assert.Equal(t, "some text", got.Text)
}

func TestGet_NotFound(t *testing.T) {
	index := New(&fakeEmbedder{}, chunker.New())

	_, err := index.Get(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClear_EmptiesIndexKeepsIDsMonotonic(t *testing.T) {
	index := New(&fakeEmbedder{}, chunker.New())
	ctx := context.Background()

	_, err := index.Store(ctx, doc("fp-a", "alpha"))
	require.NoError(t, err)
	require.NoError(t, index.Clear(ctx))

	matches, err := index.Search(ctx, "alpha", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)

	// Post-clear inserts continue the identifier sequence.
	_, err = index.Store(ctx, doc("fp-b", "beta"))
	require.NoError(t, err)
	got, err := index.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "fp-b", got.Metadata["original_id"])
}
