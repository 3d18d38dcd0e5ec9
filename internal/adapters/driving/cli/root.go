// Package cli provides the command-line interface for Quarry.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/adapters/driving/httpapi"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/core/services"
	"github.com/quarry-labs/quarry/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services wired in by the composition root before Execute runs.
var (
	crawlOrchestrator driving.CrawlOrchestrator
	answerService     driving.AnswerService
	scheduler         *services.Scheduler
	apiServer         *httpapi.Server
	sourceRegistry    driven.SourceRegistry
	serverAddr        string
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Crawl sources into a deduplicated, searchable knowledge base",
	Long: `Quarry periodically crawls configured sources, deduplicates pages by
content fingerprint, pushes new documents into a vector index and answers
questions against the indexed corpus.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	version = v
}

// Wiring holds the services the commands depend on.
type Wiring struct {
	Crawler    driving.CrawlOrchestrator
	Answerer   driving.AnswerService
	Scheduler  *services.Scheduler
	API        *httpapi.Server
	Registry   driven.SourceRegistry
	ServerAddr string
}

// SetServices installs the wired services. Must be called before Execute.
func SetServices(w Wiring) {
	crawlOrchestrator = w.Crawler
	answerService = w.Answerer
	scheduler = w.Scheduler
	apiServer = w.API
	sourceRegistry = w.Registry
	serverAddr = w.ServerAddr
}
