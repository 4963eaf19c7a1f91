package llm

import (
	"fmt"

	"Athena/internal/config"
	"Athena/internal/knowledge/interfaces"
)

// NewFromConfig builds the configured answer synthesizer.
func NewFromConfig(cfg *config.LLMConfig) (interfaces.Synthesizer, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAISynthesizer(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "ollama":
		return NewOllamaSynthesizer(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}
