// Package file provides the TOML-backed configuration store, including the
// crawl source registry and hot reload via filesystem notifications.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Ensure Store implements the registry interface.
var _ driven.SourceRegistry = (*Store)(nil)

// Config is the full on-disk configuration.
type Config struct {
	Server    ServerConfig   `toml:"server"`
	Crawl     CrawlConfig    `toml:"crawl"`
	Vector    VectorConfig   `toml:"vector"`
	RAG       RAGConfig      `toml:"rag"`
	Embedding ProviderConfig `toml:"embedding"`
	LLM       ProviderConfig `toml:"llm"`
	Sources   []SourceConfig `toml:"sources"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CrawlConfig configures the crawl scheduler and fetcher.
type CrawlConfig struct {
	Enabled           bool    `toml:"enabled"`
	IntervalMinutes   int     `toml:"interval_minutes"`
	UserAgent         string  `toml:"user_agent"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	VectorSync        bool    `toml:"vector_sync"`
}

// VectorConfig selects and configures the vector index bridge.
type VectorConfig struct {
	// Mode is "local" for the in-process index or "remote" for an HTTP
	// index service.
	Mode string `toml:"mode"`

	// RemoteURL is the base URL of the remote index service.
	RemoteURL string `toml:"remote_url"`

	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
}

// RAGConfig configures retrieval-augmented answering.
type RAGConfig struct {
	TopK                int     `toml:"top_k"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	MaxTokens           int     `toml:"max_tokens"`
	Temperature         float64 `toml:"temperature"`
	PromptTemplate      string  `toml:"prompt_template"`
}

// ProviderConfig configures a model provider (embedding or LLM).
type ProviderConfig struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
}

// SourceConfig is one crawl target in the registry.
type SourceConfig struct {
	ID       string   `toml:"id"`
	Name     string   `toml:"name"`
	BaseURL  string   `toml:"base_url"`
	ListURL  string   `toml:"list_url"`
	Pages    []string `toml:"pages"`
	MaxPages int      `toml:"max_pages"`
}

// Defaults applied when the file omits a value.
const (
	DefaultServerAddr      = ":8080"
	DefaultIntervalMinutes = 60
)

// Store loads configuration from a TOML file and serves the source
// registry from it. Watch keeps the registry current when the file
// changes on disk.
type Store struct {
	mu       sync.RWMutex
	filePath string
	cfg      Config

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStore creates a store reading configDir/config.toml.
// If configDir is empty, defaults to ~/.quarry.
func NewStore(configDir string) (*Store, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".quarry")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &Store{
		filePath: filepath.Join(configDir, "config.toml"),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the configuration file. A missing file yields defaults.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load reads and applies defaults (caller must hold lock).
func (s *Store) load() error {
	var cfg Config

	data, err := os.ReadFile(s.filePath)
	switch {
	case os.IsNotExist(err):
		// No config file yet - start with defaults
	case err != nil:
		return err
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse %s: %w", s.filePath, err)
		}
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.Crawl.IntervalMinutes <= 0 {
		cfg.Crawl.IntervalMinutes = DefaultIntervalMinutes
	}
	if cfg.Vector.Mode == "" {
		cfg.Vector.Mode = "local"
	}

	s.cfg = cfg
	return nil
}

// Config returns a copy of the current configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// CrawlInterval returns the configured crawl period.
func (s *Store) CrawlInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.cfg.Crawl.IntervalMinutes) * time.Minute
}

// Get returns the source with the given id.
func (s *Store) Get(id string) (*domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sc := range s.cfg.Sources {
		if sc.ID == id {
			source := sourceFromConfig(sc, s.cfg.Crawl.UserAgent)
			return &source, nil
		}
	}
	return nil, fmt.Errorf("source %q: %w", id, domain.ErrUnknownSource)
}

// List returns all registered sources in file order.
func (s *Store) List() []domain.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources := make([]domain.Source, 0, len(s.cfg.Sources))
	for _, sc := range s.cfg.Sources {
		sources = append(sources, sourceFromConfig(sc, s.cfg.Crawl.UserAgent))
	}
	return sources
}

// Watch reloads the configuration whenever the file changes on disk.
// Reload failures keep the previous configuration.
func (s *Store) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors replace the file, which would drop a
	// watch on the file itself.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	s.watcher = watcher
	s.done = make(chan struct{})

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.filePath {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := s.Load(); err != nil {
					logger.Warn("Config reload failed, keeping previous: %v", err)
					continue
				}
				logger.Info("Config reloaded from %s", s.filePath)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Config watcher error: %v", err)
			case <-s.done:
				return
			}
		}
	}()
	return nil
}

// Close stops the watcher, if running.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	return s.watcher.Close()
}

// Path returns the configuration file path.
func (s *Store) Path() string {
	return s.filePath
}

func sourceFromConfig(sc SourceConfig, userAgent string) domain.Source {
	return domain.Source{
		ID:        sc.ID,
		Name:      sc.Name,
		BaseURL:   sc.BaseURL,
		ListURL:   sc.ListURL,
		Pages:     append([]string(nil), sc.Pages...),
		MaxPages:  sc.MaxPages,
		UserAgent: userAgent,
	}
}
