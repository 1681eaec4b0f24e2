package config

// DefaultConfig returns the configuration used when no file or overrides
// are present.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o-mini",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		CatalogPath:       "data/products.json",
		EmbeddingsPath:    "data/product_embeddings.json",
		OffersPath:        "data/offers.yml",
		Server: ServerConfig{
			Port: 8080,
		},
		Search: SearchConfig{
			TopK:       5,
			RelaxOrder: []string{"contract", "data", "budget"},
		},
		Conversation: ConversationConfig{
			RequiredAny: []string{"budget", "data", "brand"},
			AskOrder:    []string{"budget", "data", "brand", "storage", "features"},
		},
		LLM: LLMConfig{
			TimeoutSeconds: 30,
			MaxRetries:     2,
		},
		Session: SessionConfig{
			Driver:     SessionMemory,
			SQLitePath: "data/sessions.db",
			RedisAddr:  "localhost:6379",
		},
	}
}
