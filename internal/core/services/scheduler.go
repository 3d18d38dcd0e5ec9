package services

import (
	"context"
	"sync"
	"time"

	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for periodic crawling.
	Enabled bool

	// Interval is the pause between full passes over the registry.
	Interval time.Duration
}

// DefaultCrawlInterval is used when no interval is configured.
const DefaultCrawlInterval = time.Hour

// Scheduler runs the periodic crawl loop.
// It crawls every registered source in registration order, one at a time,
// then sleeps for the configured interval. On-demand triggers through the
// crawl orchestrator may interleave freely; correctness under interleaving
// rests on the dedup store's atomic insert, not on the scheduler.
type Scheduler struct {
	config  SchedulerConfig
	crawler driving.CrawlOrchestrator

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(config SchedulerConfig, crawler driving.CrawlOrchestrator) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultCrawlInterval
	}
	return &Scheduler{
		config:  config,
		crawler: crawler,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or the context is cancelled. When the scheduler is disabled it returns
// immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logger.Info("Periodic crawl disabled")
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	logger.Info("Periodic crawl started, interval %s", s.config.Interval)
	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler, letting any in-flight crawl
// cycle drain before returning.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for the running cycle to complete
	s.wg.Wait()

	return nil
}

// run is the main scheduler loop. A full pass runs immediately on start,
// then once per interval.
func (s *Scheduler) run(ctx context.Context) error {
	s.runCycle(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle crawls all sources once, sequentially.
func (s *Scheduler) runCycle(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	results, err := s.crawler.CrawlAll(ctx)
	if err != nil {
		logger.Warn("Periodic crawl pass finished with errors: %v", err)
	}
	var inserted int
	for _, result := range results {
		inserted += result.Inserted
	}
	logger.Info("Periodic crawl pass complete: %d sources, %d new documents", len(results), inserted)
}
