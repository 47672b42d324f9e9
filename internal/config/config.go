package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Режимы эмбеддингов
const (
	EmbeddingLocal  = "LOCAL"
	EmbeddingOpenAI = "OPENAI"
	EmbeddingOllama = "OLLAMA"
)

// Бэкенды векторного индекса
const (
	BackendChromem = "chromem"
	BackendQdrant  = "qdrant"
)

// Провайдеры LLM
const (
	ProviderOpenAI = "openai"
	ProviderCompat = "compat"
)

type Config struct {
	DatasetDir     string `env:"DATASET_DIR" envDefault:"./dataset"`
	PersistDir     string `env:"PERSIST_DIR" envDefault:"./data/chroma"`
	CollectionName string `env:"COLLECTION_NAME" envDefault:"juridico"`

	Embedding Embedding
	Index     Index
	LlmMain   LLM `envPrefix:"LLM_"`
	S3        S3  `envPrefix:"S3_"`

	ChunkSize     int    `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap  int    `env:"CHUNK_OVERLAP" envDefault:"200"`
	ChunkMethod   string `env:"CHUNK_METHOD" envDefault:"recursive"`
	IngestWorkers int    `env:"INGEST_WORKERS" envDefault:"4"`

	TopK              int           `env:"TOP_K" envDefault:"3"`
	RetrievalTimeout  time.Duration `env:"RETRIEVAL_TIMEOUT" envDefault:"15s"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"60s"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8000"`
	APIURL   string `env:"API_URL" envDefault:"http://localhost:8000"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

type Embedding struct {
	Mode         string  `env:"EMBEDDING_MODE" envDefault:"LOCAL"`
	Dimensions   int     `env:"EMBEDDING_DIM" envDefault:"384"`
	OpenAIModel  string  `env:"OPENAI_EMBED_MODEL" envDefault:"text-embedding-3-small"`
	OpenAIKey    string  `env:"OPENAI_API_KEY"`
	OllamaURL    string  `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaModel  string  `env:"OLLAMA_EMBED_MODEL" envDefault:"nomic-embed-text"`
	BatchSize    int     `env:"EMBED_BATCH_SIZE" envDefault:"100"`
	RequestsPerS float64 `env:"EMBED_RPS" envDefault:"5"`
}

type Index struct {
	Backend      string `env:"INDEX_BACKEND" envDefault:"chromem"`
	QdrantHost   string `env:"QDRANT_HOST" envDefault:"localhost"`
	QdrantPort   int    `env:"QDRANT_PORT" envDefault:"6334"`
	QdrantAPIKey string `env:"QDRANT_API_KEY"`
	QdrantTLS    bool   `env:"QDRANT_TLS" envDefault:"false"`
}

type LLM struct {
	Provider    string  `env:"PROVIDER" envDefault:"openai"`
	URL         string  `env:"URL" envDefault:"http://localhost:11434/v1"`
	Model       string  `env:"MODEL" envDefault:"gpt-4o-mini"`
	Key         string  `env:"API_KEY"`
	MaxTokens   int     `env:"MAX_TOKENS" envDefault:"8192"`
	Temperature float64 `env:"TEMPERATURE" envDefault:"0"`
	TopP        float64 `env:"TOP_P" envDefault:"1"`
}

type S3 struct {
	Endpoint     string `env:"ENDPOINT"`
	AccessKey    string `env:"ACCESS_KEY"`
	SecretKey    string `env:"SECRET_KEY"`
	UseSSL       bool   `env:"USE_SSL" envDefault:"false"`
	Bucket       string `env:"BUCKET"`
	SourcePrefix string `env:"SOURCE_PREFIX" envDefault:"dataset/"`
	DestPrefix   string `env:"DEST_PREFIX" envDefault:"extraidos/"`
}

func Init(cfg interface{}) error {
	return env.Parse(cfg)
}

// Load читает окружение и проверяет значения
func Load() (*Config, error) {
	cfg := &Config{}
	if err := Init(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.LlmMain.Key == "" {
		cfg.LlmMain.Key = cfg.Embedding.OpenAIKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize))
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap))
	}
	if c.TopK <= 0 {
		errs = append(errs, fmt.Errorf("TOP_K must be positive, got %d", c.TopK))
	}

	switch strings.ToUpper(c.Embedding.Mode) {
	case EmbeddingLocal, EmbeddingOpenAI, EmbeddingOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown EMBEDDING_MODE %q", c.Embedding.Mode))
	}
	switch strings.ToLower(c.Index.Backend) {
	case BackendChromem, BackendQdrant:
	default:
		errs = append(errs, fmt.Errorf("unknown INDEX_BACKEND %q", c.Index.Backend))
	}
	switch strings.ToLower(c.LlmMain.Provider) {
	case ProviderOpenAI, ProviderCompat:
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LlmMain.Provider))
	}

	return errors.Join(errs...)
}
