package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

func testDoc(content string) *domain.Document {
	return &domain.Document{
		Fingerprint: domain.Fingerprint(content, ""),
		SourceID:    "test",
		Content:     content,
	}
}

func TestInsertIfAbsent_FirstInsertWins(t *testing.T) {
	store := NewDedupStore()
	ctx := context.Background()

	inserted, err := store.InsertIfAbsent(ctx, testDoc("content"))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.InsertIfAbsent(ctx, testDoc("content"))
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInsertIfAbsent_ConcurrentSingleWinner(t *testing.T) {
	store := NewDedupStore()
	ctx := context.Background()
	doc := testDoc("racy content")

	const goroutines = 32
	var wg sync.WaitGroup
	wins := make(chan bool, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := store.InsertIfAbsent(ctx, doc)
			require.NoError(t, err)
			wins <- inserted
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for win := range wins {
		if win {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestExists(t *testing.T) {
	store := NewDedupStore()
	ctx := context.Background()

	exists, err := store.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	doc := testDoc("content")
	_, err = store.InsertIfAbsent(ctx, doc)
	require.NoError(t, err)

	exists, err = store.Exists(ctx, doc.Fingerprint)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMarkSynced(t *testing.T) {
	store := NewDedupStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.MarkSynced(ctx, "missing"), domain.ErrNotFound)

	doc := testDoc("content")
	_, err := store.InsertIfAbsent(ctx, doc)
	require.NoError(t, err)
	assert.NoError(t, store.MarkSynced(ctx, doc.Fingerprint))
}

func TestClear(t *testing.T) {
	store := NewDedupStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.InsertIfAbsent(ctx, testDoc(fmt.Sprintf("content %d", i)))
		require.NoError(t, err)
	}

	require.NoError(t, store.Clear(ctx))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
