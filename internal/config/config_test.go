package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	assert.Equal(t, 200, cfg.Ingest.Overlap)
	assert.Equal(t, 200*time.Millisecond, cfg.Ingest.RateLimitDelay.Duration())
	assert.Equal(t, DuplicateBlock, cfg.Ingest.OnDuplicate)
	assert.Equal(t, "chromem", cfg.VectorStore.Provider)
	assert.Equal(t, 384, cfg.VectorStore.VectorSize)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero chunk size",
			mutate:  func(c *Config) { c.Ingest.ChunkSize = 0 },
			wantErr: "chunk size must be positive",
		},
		{
			name:    "negative overlap",
			mutate:  func(c *Config) { c.Ingest.Overlap = -1 },
			wantErr: "overlap cannot be negative",
		},
		{
			name: "overlap not smaller than chunk size",
			mutate: func(c *Config) {
				c.Ingest.ChunkSize = 100
				c.Ingest.Overlap = 100
			},
			wantErr: "must be smaller than chunk size",
		},
		{
			name:    "unknown duplicate policy",
			mutate:  func(c *Config) { c.Ingest.OnDuplicate = "maybe" },
			wantErr: "invalid duplicate policy",
		},
		{
			name:    "unknown embeddings provider",
			mutate:  func(c *Config) { c.Embeddings.Provider = "cohere" },
			wantErr: "invalid embeddings provider",
		},
		{
			name:    "unknown vectorstore provider",
			mutate:  func(c *Config) { c.VectorStore.Provider = "pinecone" },
			wantErr: "invalid vectorstore provider",
		},
		{
			name:    "empty collection",
			mutate:  func(c *Config) { c.VectorStore.Collection = "" },
			wantErr: "collection is required",
		},
		{
			name: "qdrant without host",
			mutate: func(c *Config) {
				c.VectorStore.Provider = "qdrant"
				c.VectorStore.Qdrant.Host = ""
			},
			wantErr: "qdrant host is required",
		},
		{
			name:    "bad logging format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := []byte(`
server:
  port: 7001
ingest:
  chunk_size: 500
  overlap: 100
  rate_limit_delay: 50ms
  on_duplicate: replace
vectorstore:
  provider: qdrant
  collection: test_chunks
  qdrant:
    host: qdrant.internal
    port: 6334
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Ingest.ChunkSize)
	assert.Equal(t, 100, cfg.Ingest.Overlap)
	assert.Equal(t, 50*time.Millisecond, cfg.Ingest.RateLimitDelay.Duration())
	assert.Equal(t, DuplicateReplace, cfg.Ingest.OnDuplicate)
	assert.Equal(t, "qdrant", cfg.VectorStore.Provider)
	assert.Equal(t, "test_chunks", cfg.VectorStore.Collection)
	assert.Equal(t, "qdrant.internal", cfg.VectorStore.Qdrant.Host)

	// Untouched sections keep their defaults.
	assert.Equal(t, "tei", cfg.Embeddings.Provider)
	assert.Equal(t, 384, cfg.VectorStore.VectorSize)
}

func TestLoadWithFileMissingFile(t *testing.T) {
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
}

func TestLoadWithFileEnvOverride(t *testing.T) {
	t.Setenv("KNOWLEDGED_SERVER_PORT", "7002")
	t.Setenv("KNOWLEDGED_INGEST_CHUNK_SIZE", "750")

	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, 7002, cfg.Server.Port)
	assert.Equal(t, 750, cfg.Ingest.ChunkSize)
}

func TestLoadWithFileInvalidConfig(t *testing.T) {
	t.Setenv("KNOWLEDGED_INGEST_OVERLAP", "5000")

	_, err := LoadWithFile("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("sk-very-secret")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "sk-very-secret", s.Value())
	assert.True(t, s.IsSet())

	empty := Secret("")
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1500ms")))
	assert.Equal(t, 1500*time.Millisecond, d.Duration())

	require.Error(t, d.UnmarshalText([]byte("-1s")))
	require.Error(t, d.UnmarshalText([]byte("soon")))
}
