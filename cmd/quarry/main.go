// Command quarry is the entry point: it loads configuration, wires the
// adapters to the core services and hands control to the CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/quarry-labs/quarry/internal/adapters/driven/config/file"
	embollama "github.com/quarry-labs/quarry/internal/adapters/driven/embedding/ollama"
	embopenai "github.com/quarry-labs/quarry/internal/adapters/driven/embedding/openai"
	"github.com/quarry-labs/quarry/internal/adapters/driven/extract"
	"github.com/quarry-labs/quarry/internal/adapters/driven/fetch"
	llmollama "github.com/quarry-labs/quarry/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/quarry-labs/quarry/internal/adapters/driven/llm/openai"
	"github.com/quarry-labs/quarry/internal/adapters/driven/storage/sqlite"
	"github.com/quarry-labs/quarry/internal/adapters/driven/vector/local"
	"github.com/quarry-labs/quarry/internal/adapters/driven/vector/remote"
	"github.com/quarry-labs/quarry/internal/adapters/driving/cli"
	"github.com/quarry-labs/quarry/internal/adapters/driving/httpapi"
	"github.com/quarry-labs/quarry/internal/chunker"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/services"
	"github.com/quarry-labs/quarry/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "quarry: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for API keys; a missing file is fine.
	_ = godotenv.Load()

	store, err := file.NewStore(os.Getenv("QUARRY_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	defer store.Close()
	if err := store.Watch(); err != nil {
		logger.Warn("Config hot reload unavailable: %v", err)
	}
	cfg := store.Config()

	embedder, err := buildEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}
	defer embedder.Close()

	llm, err := buildLLM(cfg.LLM)
	if err != nil {
		return err
	}
	defer llm.Close()

	var chunkOpts []chunker.Option
	if cfg.Vector.ChunkSize > 0 {
		chunkOpts = append(chunkOpts, chunker.WithChunkSize(cfg.Vector.ChunkSize))
	}
	if cfg.Vector.ChunkOverlap > 0 {
		chunkOpts = append(chunkOpts, chunker.WithOverlap(cfg.Vector.ChunkOverlap))
	}
	splitter := chunker.New(chunkOpts...)

	var vectors driven.VectorStore
	switch cfg.Vector.Mode {
	case "remote":
		if cfg.Vector.RemoteURL == "" {
			return fmt.Errorf("vector.remote_url is required in remote mode")
		}
		vectors = remote.New(cfg.Vector.RemoteURL)
	default:
		vectors = local.New(embedder, splitter)
	}

	dedup, err := sqlite.NewStore(os.Getenv("QUARRY_DATA_DIR"))
	if err != nil {
		return fmt.Errorf("open dedup ledger: %w", err)
	}
	defer dedup.Close()

	fetcher := fetch.New(fetch.Config{
		UserAgent:         cfg.Crawl.UserAgent,
		RequestsPerSecond: cfg.Crawl.RequestsPerSecond,
	})
	extractor := extract.New(extract.WithAttachmentFetcher(fetcher))

	crawler := services.NewCrawlOrchestrator(
		store, dedup, vectors, fetcher, extractor, cfg.Crawl.VectorSync,
	)
	answerer := services.NewAnswerOrchestrator(vectors, llm, services.RAGConfig{
		TopK:                cfg.RAG.TopK,
		SimilarityThreshold: cfg.RAG.SimilarityThreshold,
		PromptTemplate:      cfg.RAG.PromptTemplate,
		MaxTokens:           cfg.RAG.MaxTokens,
		Temperature:         cfg.RAG.Temperature,
	})
	scheduler := services.NewScheduler(services.SchedulerConfig{
		Enabled:  cfg.Crawl.Enabled,
		Interval: time.Duration(cfg.Crawl.IntervalMinutes) * time.Minute,
	}, crawler)

	api := httpapi.New(crawler, answerer, vectors, embedder, llm)

	cli.SetServices(cli.Wiring{
		Crawler:    crawler,
		Answerer:   answerer,
		Scheduler:  scheduler,
		API:        api,
		Registry:   store,
		ServerAddr: cfg.Server.Addr,
	})
	return cli.Execute()
}

func buildEmbedder(cfg file.ProviderConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "openai":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return embopenai.NewEmbeddingService(embopenai.Config{
			APIKey:  apiKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	default:
		return embollama.NewEmbeddingService(embollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	}
}

func buildLLM(cfg file.ProviderConfig) (driven.LLMService, error) {
	switch cfg.Provider {
	case "openai":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return llmopenai.NewLLMService(llmopenai.Config{
			APIKey:  apiKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	default:
		return llmollama.NewLLMService(llmollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	}
}
