package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"

	"Athena/internal/knowledge/interfaces"
	"Athena/internal/knowledge/schema"
)

// OllamaSynthesizer generates grounded answers through a local Ollama
// server.
type OllamaSynthesizer struct {
	client *ollama.Client
	model  string
}

// NewOllamaSynthesizer creates an Ollama synthesis client. An empty baseURL
// falls back to the default local server address.
func NewOllamaSynthesizer(model, baseURL string) (*OllamaSynthesizer, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{Timeout: 120 * time.Second}
	return &OllamaSynthesizer{client: ollama.NewClient(parsedURL, hc), model: model}, nil
}

// Synthesize asks the model for a structured answer over the given
// fragments.
func (s *OllamaSynthesizer) Synthesize(ctx context.Context, question string, fragments []schema.Fragment) (*schema.Answer, error) {
	var result *ollama.GenerateResponse

	stream := false
	err := s.client.Generate(ctx, &ollama.GenerateRequest{
		Model:  s.model,
		System: systemPrompt,
		Prompt: buildUserPrompt(question, fragments),
		Format: json.RawMessage(`"json"`),
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": 0.3,
		},
	}, func(resp ollama.GenerateResponse) error {
		result = &resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer with ollama: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("no response returned by ollama")
	}

	answer, err := parseAnswer(result.Response)
	if err != nil {
		return nil, err
	}
	answer.Usage = schema.TokenUsage{
		Prompt:     result.PromptEvalCount,
		Completion: result.EvalCount,
		Total:      result.PromptEvalCount + result.EvalCount,
	}
	return answer, nil
}

var _ interfaces.Synthesizer = (*OllamaSynthesizer)(nil)
