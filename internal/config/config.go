// Package config provides configuration loading for knowledged.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables. See LoadWithFile for precedence rules.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete knowledged configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Ingest      IngestConfig      `koanf:"ingest"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// DuplicatePolicy controls what the ingestion pipeline does when a document's
// first chunk id is already present in the vector store.
type DuplicatePolicy string

const (
	// DuplicateBlock rejects the upload with an already-ingested error.
	DuplicateBlock DuplicatePolicy = "block"
	// DuplicateReplace re-ingests and overwrites the existing entries.
	DuplicateReplace DuplicatePolicy = "replace"
)

// IngestConfig holds ingestion pipeline configuration.
type IngestConfig struct {
	// ChunkSize is the chunk window size in characters.
	ChunkSize int `koanf:"chunk_size"`
	// Overlap is the number of characters shared by adjacent chunks.
	Overlap int `koanf:"overlap"`
	// RateLimitDelay is the pause between chunk uploads. Cooperative pacing
	// for rate-limited embedding backends, not a retry policy.
	RateLimitDelay Duration `koanf:"rate_limit_delay"`
	// OnDuplicate selects the duplicate-detection policy: block or replace.
	OnDuplicate DuplicatePolicy `koanf:"on_duplicate"`
}

// EmbeddingsConfig holds embedding provider configuration.
type EmbeddingsConfig struct {
	// Provider is the embedding provider: "tei" or "openai".
	Provider string `koanf:"provider"`
	// BaseURL is the embedding API base URL.
	BaseURL string `koanf:"base_url"`
	// Model is the embedding model name.
	Model string `koanf:"model"`
	// APIKey is the API key (optional for TEI).
	APIKey Secret `koanf:"api_key"`
}

// VectorStoreConfig holds vector store configuration.
type VectorStoreConfig struct {
	// Provider is the store backend: "chromem" (embedded, default) or "qdrant".
	Provider string `koanf:"provider"`
	// Collection is the collection name holding document chunks.
	Collection string `koanf:"collection"`
	// VectorSize is the embedding dimension. Must match the embedder.
	VectorSize int `koanf:"vector_size"`

	Chromem ChromemConfig `koanf:"chromem"`
	Qdrant  QdrantConfig  `koanf:"qdrant"`
}

// ChromemConfig holds embedded chromem-go store configuration.
type ChromemConfig struct {
	// Path is the directory for persistent storage. Empty means in-memory.
	Path string `koanf:"path"`
	// Compress enables gzip compression for stored data.
	Compress bool `koanf:"compress"`
}

// QdrantConfig holds Qdrant gRPC client configuration.
type QdrantConfig struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	UseTLS bool   `koanf:"use_tls"`
	APIKey Secret `koanf:"api_key"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is the encoder: "json" or "console".
	Format string `koanf:"format"`
}

// Default returns a Config populated with production-ready defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            9620,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Ingest: IngestConfig{
			ChunkSize:      1000,
			Overlap:        200,
			RateLimitDelay: Duration(200 * time.Millisecond),
			OnDuplicate:    DuplicateBlock,
		},
		Embeddings: EmbeddingsConfig{
			Provider: "tei",
			BaseURL:  "http://localhost:8080",
			Model:    "BAAI/bge-small-en-v1.5",
		},
		VectorStore: VectorStoreConfig{
			Provider:   "chromem",
			Collection: "legal_chunks",
			VectorSize: 384,
			Chromem: ChromemConfig{
				Path: "~/.local/share/knowledged/vectorstore",
			},
			Qdrant: QdrantConfig{
				Host: "localhost",
				Port: 6334,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.Overlap < 0 {
		return fmt.Errorf("overlap cannot be negative, got %d", c.Ingest.Overlap)
	}
	if c.Ingest.Overlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("overlap %d must be smaller than chunk size %d", c.Ingest.Overlap, c.Ingest.ChunkSize)
	}
	switch c.Ingest.OnDuplicate {
	case DuplicateBlock, DuplicateReplace:
	default:
		return fmt.Errorf("invalid duplicate policy %q (must be block or replace)", c.Ingest.OnDuplicate)
	}

	switch c.Embeddings.Provider {
	case "tei", "openai":
	default:
		return fmt.Errorf("invalid embeddings provider %q (must be tei or openai)", c.Embeddings.Provider)
	}
	if c.Embeddings.Provider == "tei" && c.Embeddings.BaseURL == "" {
		return errors.New("embeddings base URL is required for tei")
	}

	switch c.VectorStore.Provider {
	case "chromem", "qdrant":
	default:
		return fmt.Errorf("invalid vectorstore provider %q (must be chromem or qdrant)", c.VectorStore.Provider)
	}
	if c.VectorStore.Collection == "" {
		return errors.New("vectorstore collection is required")
	}
	if c.VectorStore.VectorSize <= 0 {
		return fmt.Errorf("vector size must be positive, got %d", c.VectorStore.VectorSize)
	}
	if c.VectorStore.Provider == "qdrant" {
		if c.VectorStore.Qdrant.Host == "" {
			return errors.New("qdrant host is required")
		}
		if c.VectorStore.Qdrant.Port < 1 || c.VectorStore.Qdrant.Port > 65535 {
			return fmt.Errorf("invalid qdrant port: %d (must be 1-65535)", c.VectorStore.Qdrant.Port)
		}
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	return nil
}
