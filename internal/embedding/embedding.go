package embedding

import (
	"fmt"

	"Athena/internal/config"
	"Athena/internal/knowledge/interfaces"
)

// NewFromConfig builds the configured embedding provider.
func NewFromConfig(cfg *config.EmbeddingConfig) (interfaces.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIModel(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "ollama":
		return NewOllamaModel(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}
