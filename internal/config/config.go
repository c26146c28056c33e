package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// GroqConfig holds credentials and model selection for the hosted LLM.
type GroqConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// EmbeddingConfig configures the embedding backend and its fallback chain.
type EmbeddingConfig struct {
	Model         string `yaml:"model"`
	FallbackModel string `yaml:"fallback_model"`
	OllamaBaseURL string `yaml:"ollama_base_url"`
	OpenAIKey     string `yaml:"openai_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
}

// StoreConfig selects the vector store backend.
type StoreConfig struct {
	Backend     string `yaml:"backend"` // "chromem" (default) or "postgres"
	Path        string `yaml:"path"`
	Collection  string `yaml:"collection"`
	PostgresDSN string `yaml:"postgres_dsn"`
	PostgresKey string `yaml:"postgres_key"`
}

// RAGConfig holds the retrieval and chunking tunables.
type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	BatchSize    int `yaml:"batch_size"`
	TopK         int `yaml:"top_k"`
	MemoryWindow int `yaml:"memory_window"`
}

type Config struct {
	DataDirectory string          `yaml:"data_directory"`
	Groq          GroqConfig      `yaml:"groq"`
	Embedding     EmbeddingConfig `yaml:"embedding"`
	Store         StoreConfig     `yaml:"store"`
	RAG           RAGConfig       `yaml:"rag"`
}

const (
	DefaultDataDirectory   = "./data"
	DefaultVectorStorePath = "my_vector_store"
	DefaultCollection      = "leximini"
	DefaultEmbeddingModel  = "all-minilm"
	DefaultFallbackModel   = "nomic-embed-text"
	DefaultOllamaBaseURL   = "http://localhost:11434"
	DefaultGroqModel       = "llama-3.1-8b-instant"
	DefaultGroqBaseURL     = "https://api.groq.com/openai/v1"
	DefaultOpenAIBaseURL   = "https://api.openai.com/v1"

	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultBatchSize    = 100
	DefaultTopK         = 4
	DefaultMemoryWindow = 2
)

// Load reads the optional YAML config at path, then applies environment
// overrides and defaults. A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	overrideString(&cfg.DataDirectory, "DATA_DIRECTORY")
	overrideString(&cfg.Groq.APIKey, "GROQ_API_KEY")
	overrideString(&cfg.Groq.Model, "GROQ_MODEL")
	overrideString(&cfg.Groq.BaseURL, "GROQ_BASE_URL")
	overrideString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	overrideString(&cfg.Embedding.FallbackModel, "FALLBACK_EMBEDDING_MODEL")
	overrideString(&cfg.Embedding.OllamaBaseURL, "OLLAMA_BASE_URL")
	overrideString(&cfg.Embedding.OpenAIKey, "OPENAI_API_KEY")
	overrideString(&cfg.Store.Path, "VECTOR_STORE_PATH")
	overrideString(&cfg.Store.Backend, "VECTOR_STORE_BACKEND")
	overrideString(&cfg.Store.PostgresDSN, "POSTGRES_DSN")
	overrideInt(&cfg.RAG.ChunkSize, "CHUNK_SIZE")
	overrideInt(&cfg.RAG.ChunkOverlap, "CHUNK_OVERLAP")
}

func applyDefaults(cfg *Config) {
	if cfg.DataDirectory == "" {
		cfg.DataDirectory = DefaultDataDirectory
	}
	if cfg.Groq.Model == "" {
		cfg.Groq.Model = DefaultGroqModel
	}
	if cfg.Groq.BaseURL == "" {
		cfg.Groq.BaseURL = DefaultGroqBaseURL
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = DefaultEmbeddingModel
	}
	if cfg.Embedding.FallbackModel == "" {
		cfg.Embedding.FallbackModel = DefaultFallbackModel
	}
	if cfg.Embedding.OllamaBaseURL == "" {
		cfg.Embedding.OllamaBaseURL = DefaultOllamaBaseURL
	}
	if cfg.Embedding.OpenAIBaseURL == "" {
		cfg.Embedding.OpenAIBaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "chromem"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultVectorStorePath
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = DefaultCollection
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = DefaultChunkSize
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = DefaultChunkOverlap
	}
	if cfg.RAG.BatchSize == 0 {
		cfg.RAG.BatchSize = DefaultBatchSize
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = DefaultTopK
	}
	if cfg.RAG.MemoryWindow == 0 {
		cfg.RAG.MemoryWindow = DefaultMemoryWindow
	}
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
