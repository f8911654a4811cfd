package embeddings

import (
	"fmt"

	"github.com/lexbase/knowledged/internal/config"
)

// NewProvider creates an embedding provider from configuration.
//
// Supported providers:
//   - "tei" (default): local text-embeddings-inference server
//   - "openai": OpenAI-compatible API via langchaingo
func NewProvider(cfg config.EmbeddingsConfig) (Provider, error) {
	switch cfg.Provider {
	case "tei", "":
		return NewTEIService(TEIConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey.Value(),
		})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
