package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func testDoc(content, url string) *domain.Document {
	return &domain.Document{
		Fingerprint: domain.Fingerprint(content, url),
		SourceID:    "test",
		SourceName:  "Test Source",
		URL:         url,
		Title:       "A Page",
		Content:     content,
		PublishedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CrawledAt:   time.Now().UTC(),
	}
}

func TestInsertIfAbsent_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := testDoc("page content", "http://example.com/a")

	inserted, err := store.InsertIfAbsent(ctx, doc)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same fingerprint again: silently dropped, ledger unchanged.
	inserted, err = store.InsertIfAbsent(ctx, doc)
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInsertIfAbsent_DistinctContentSameURL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testDoc("old revision", "http://example.com/a")
	second := testDoc("new revision", "http://example.com/a")

	inserted, err := store.InsertIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.InsertIfAbsent(ctx, second)
	require.NoError(t, err)
	assert.True(t, inserted)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInsertIfAbsent_ConcurrentSingleWinner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := testDoc("racy content", "http://example.com/a")

	const goroutines = 16
	var wg sync.WaitGroup
	wins := make(chan bool, goroutines)
	errs := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := store.InsertIfAbsent(ctx, doc)
			if err != nil {
				errs <- err
				return
			}
			wins <- inserted
		}()
	}
	wg.Wait()
	close(wins)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	winners := 0
	for win := range wins {
		if win {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestExists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	doc := testDoc("content", "http://example.com/a")
	_, err = store.InsertIfAbsent(ctx, doc)
	require.NoError(t, err)

	exists, err = store.Exists(ctx, doc.Fingerprint)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMarkSynced(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.MarkSynced(ctx, "missing"), domain.ErrNotFound)

	doc := testDoc("content", "http://example.com/a")
	_, err := store.InsertIfAbsent(ctx, doc)
	require.NoError(t, err)
	assert.NoError(t, store.MarkSynced(ctx, doc.Fingerprint))
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		doc := testDoc(fmt.Sprintf("content %d", i), "")
		_, err := store.InsertIfAbsent(ctx, doc)
		require.NoError(t, err)
	}

	require.NoError(t, store.Clear(ctx))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestReopen_LedgerSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	doc := testDoc("durable content", "http://example.com/a")
	_, err = store.InsertIfAbsent(ctx, doc)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	exists, err := reopened.Exists(ctx, doc.Fingerprint)
	require.NoError(t, err)
	assert.True(t, exists)
}
