package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/tobilabs/salesbot/internal/catalog"
	"github.com/tobilabs/salesbot/internal/config"
	"github.com/tobilabs/salesbot/internal/embeddings"
	"github.com/tobilabs/salesbot/internal/llm"
	"github.com/tobilabs/salesbot/internal/search"
	"github.com/tobilabs/salesbot/internal/upsell"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `salesbot init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// buildProvider creates the configured LLM provider wrapped with per-call
// timeouts and retries.
func buildProvider(cfg *config.Config) (llm.Provider, error) {
	base, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	return llm.NewRetryProvider(base, timeout, cfg.LLM.MaxRetries, time.Second), nil
}

// buildEmbedder creates the configured embedder, defaulting to the LLM
// provider when no dedicated embedding provider is set.
func buildEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	embedder, err := embeddings.NewEmbedder(string(provider), cfg.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return embedder, nil
}

// buildSearcher loads the catalog with its precomputed vectors and
// indexes it. Without a vector sidecar the engine still works, on
// constraint filtering and keyword matching.
func buildSearcher(cfg *config.Config, embedder embeddings.Embedder) (*search.Engine, error) {
	products, err := catalog.LoadWithEmbeddings(cfg.CatalogPath, cfg.EmbeddingsPath)
	if err != nil {
		products, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Warning: no embeddings at %s; run `salesbot index` to enable semantic search\n", cfg.EmbeddingsPath)
	}
	return search.NewEngine(products, embedder, cfg.Search.RelaxOrder)
}

// buildSequencer loads the offer catalog, falling back to the built-in
// offers when no file exists.
func buildSequencer(cfg *config.Config) (*upsell.Sequencer, error) {
	offers, err := upsell.LoadCatalog(cfg.OffersPath)
	if err != nil {
		return nil, fmt.Errorf("loading offers: %w", err)
	}
	return upsell.NewSequencer(offers), nil
}
