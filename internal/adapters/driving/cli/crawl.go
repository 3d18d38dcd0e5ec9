package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [source-id]",
	Short: "Crawl documents from sources",
	Long: `Triggers a crawl of configured sources.
If a source ID is provided, only that source is crawled.
Otherwise, all sources are crawled.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	if crawlOrchestrator == nil {
		return errors.New("crawl service not configured")
	}

	ctx := context.Background()

	if len(args) > 0 {
		sourceID := args[0]
		cmd.Printf("Crawling source: %s...\n", sourceID)

		result, err := crawlWithProgress(ctx, cmd, crawlOrchestrator, sourceID)
		if err != nil {
			return fmt.Errorf("crawl failed: %w", err)
		}
		printResult(cmd, result)
		return nil
	}

	cmd.Println("Crawling all sources...")
	results, err := crawlOrchestrator.CrawlAll(ctx)
	for i := range results {
		printResult(cmd, &results[i])
	}
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}
	return nil
}

// crawlWithProgress runs the crawl while displaying progress updates.
func crawlWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	crawler driving.CrawlOrchestrator,
	sourceID string,
) (*domain.CrawlResult, error) {
	type outcome struct {
		result *domain.CrawlResult
		err    error
	}
	resCh := make(chan outcome, 1)
	go func() {
		result, err := crawler.Crawl(ctx, sourceID)
		resCh <- outcome{result, err}
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case out := <-resCh:
			if lastCount > 0 {
				cmd.Println()
			}
			return out.result, out.err
		case <-ticker.C:
			// Check progress (ignore status error - best effort)
			status, err := crawler.Status(ctx, sourceID)
			if err == nil && status != nil && status.PagesProcessed > lastCount {
				cmd.Printf("\rProcessing... %d pages", status.PagesProcessed)
				lastCount = status.PagesProcessed
			}
		}
	}
}

func printResult(cmd *cobra.Command, result *domain.CrawlResult) {
	cmd.Printf("%s: %d found, %d inserted, %d vectorized, %d skipped, %d errors\n",
		result.SourceID, result.Found, result.Inserted, result.Vectorized,
		result.Skipped, result.Errors)
}
