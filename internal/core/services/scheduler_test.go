package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
)

// countingCrawler implements driving.CrawlOrchestrator and counts CrawlAll
// passes.
type countingCrawler struct {
	mu     sync.Mutex
	passes int
	block  chan struct{}
}

func (c *countingCrawler) Crawl(_ context.Context, sourceID string) (*domain.CrawlResult, error) {
	return &domain.CrawlResult{SourceID: sourceID}, nil
}

func (c *countingCrawler) CrawlAll(_ context.Context) ([]domain.CrawlResult, error) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passes++
	return nil, nil
}

func (c *countingCrawler) Ingest(_ context.Context, _ string, _ driving.IngestMetadata) (int, error) {
	return 0, nil
}

func (c *countingCrawler) Status(_ context.Context, sourceID string) (*domain.CrawlStatus, error) {
	return &domain.CrawlStatus{SourceID: sourceID}, nil
}

func (c *countingCrawler) passCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.passes
}

func TestScheduler_DisabledReturnsImmediately(t *testing.T) {
	crawler := &countingCrawler{}
	scheduler := NewScheduler(SchedulerConfig{Enabled: false}, crawler)

	err := scheduler.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, crawler.passCount())
}

func TestScheduler_RunsImmediateCycle(t *testing.T) {
	crawler := &countingCrawler{}
	scheduler := NewScheduler(SchedulerConfig{Enabled: true, Interval: time.Hour}, crawler)

	done := make(chan error, 1)
	go func() {
		done <- scheduler.Start(context.Background())
	}()

	// The first pass runs without waiting for the interval.
	assert.Eventually(t, func() bool {
		return crawler.passCount() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, scheduler.Stop())
	require.NoError(t, <-done)
}

func TestScheduler_StopDrainsInFlightCycle(t *testing.T) {
	crawler := &countingCrawler{block: make(chan struct{})}
	scheduler := NewScheduler(SchedulerConfig{Enabled: true, Interval: time.Hour}, crawler)

	go func() {
		_ = scheduler.Start(context.Background())
	}()

	// Wait until the cycle is in flight, then release it mid-Stop.
	time.Sleep(50 * time.Millisecond)
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(crawler.block)
	}()

	require.NoError(t, scheduler.Stop())
	assert.Equal(t, 1, crawler.passCount())
}

func TestScheduler_StopIdempotent(t *testing.T) {
	scheduler := NewScheduler(SchedulerConfig{Enabled: true, Interval: time.Hour}, &countingCrawler{})
	require.NoError(t, scheduler.Stop())
	require.NoError(t, scheduler.Stop())
}
