package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOllama    ProviderType = "ollama"
)

// SessionDriver selects the session store backend.
type SessionDriver string

const (
	SessionMemory SessionDriver = "memory"
	SessionSQLite SessionDriver = "sqlite"
	SessionRedis  SessionDriver = "redis"
)

// Config is the top-level salesbot configuration, corresponding to salesbot.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`

	CatalogPath    string `yaml:"catalog_path" koanf:"catalog_path"`
	EmbeddingsPath string `yaml:"embeddings_path" koanf:"embeddings_path"`
	OffersPath     string `yaml:"offers_path" koanf:"offers_path"`

	Server       ServerConfig       `yaml:"server" koanf:"server"`
	Search       SearchConfig       `yaml:"search" koanf:"search"`
	Conversation ConversationConfig `yaml:"conversation" koanf:"conversation"`
	LLM          LLMConfig          `yaml:"llm" koanf:"llm"`
	Session      SessionConfig      `yaml:"session" koanf:"session"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// SearchConfig holds product search tunables.
type SearchConfig struct {
	TopK int `yaml:"top_k" koanf:"top_k"`
	// RelaxOrder names the hard filters dropped one at a time when fewer
	// than TopK products survive. Budget must come last.
	RelaxOrder []string `yaml:"relax_order" koanf:"relax_order"`
}

// ConversationConfig holds the dialogue-flow tunables. The completeness
// predicate and clarifying-question order are deployment policy, not code.
type ConversationConfig struct {
	// RequiredAny lists the preference attributes of which at least one
	// must be set before the engine searches.
	RequiredAny []string `yaml:"required_any" koanf:"required_any"`
	// AskOrder is the priority order of clarifying questions for missing
	// attributes.
	AskOrder []string `yaml:"ask_order" koanf:"ask_order"`
}

// LLMConfig holds the collaborator call policy.
type LLMConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	MaxRetries     int `yaml:"max_retries" koanf:"max_retries"`
}

// SessionConfig selects and parameterizes the session store driver.
type SessionConfig struct {
	Driver     SessionDriver `yaml:"driver" koanf:"driver"`
	SQLitePath string        `yaml:"sqlite_path" koanf:"sqlite_path"`
	RedisAddr  string        `yaml:"redis_addr" koanf:"redis_addr"`
	RedisDB    int           `yaml:"redis_db" koanf:"redis_db"`
}
