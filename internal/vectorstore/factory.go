package vectorstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lexbase/knowledged/internal/config"
	"github.com/lexbase/knowledged/internal/logging"
)

// NewStore creates a Store from configuration. "chromem" runs embedded with
// optional on-disk persistence; "qdrant" connects to a Qdrant server over
// gRPC.
func NewStore(cfg config.VectorStoreConfig, logger *logging.Logger) (Store, error) {
	switch cfg.Provider {
	case "chromem":
		path, err := expandPath(cfg.Chromem.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return NewChromemStore(ChromemConfig{
			Path:       path,
			Collection: cfg.Collection,
			Compress:   cfg.Chromem.Compress,
		}, logger)
	case "qdrant":
		return NewQdrantStore(QdrantConfig{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			Collection: cfg.Collection,
			UseTLS:     cfg.Qdrant.UseTLS,
			APIKey:     cfg.Qdrant.APIKey.Value(),
		}, logger)
	default:
		return nil, fmt.Errorf("%w: unknown vectorstore provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

// expandPath expands a leading "~" to the user's home directory.
func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding %q: %w", path, err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
