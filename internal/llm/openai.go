package llm

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"Athena/internal/knowledge/interfaces"
	"Athena/internal/knowledge/schema"
)

// OpenAISynthesizer generates grounded answers through the OpenAI chat API
// with a forced JSON response format.
type OpenAISynthesizer struct {
	client *openai.Client
	model  string
}

// NewOpenAISynthesizer creates an OpenAI synthesis client.
func NewOpenAISynthesizer(apiKey, model string) (*OpenAISynthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	config := openai.DefaultConfig(apiKey)
	client := openai.NewClientWithConfig(config)
	return &OpenAISynthesizer{client: client, model: model}, nil
}

// Synthesize asks the model for a structured answer over the given
// fragments.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, question string, fragments []schema.Fragment) (*schema.Answer, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(question, fragments)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: func() *float32 { t := float32(0.3); return &t }(),
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}

	answer, err := parseAnswer(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	answer.Usage = schema.TokenUsage{
		Prompt:     resp.Usage.PromptTokens,
		Completion: resp.Usage.CompletionTokens,
		Total:      resp.Usage.TotalTokens,
	}
	return answer, nil
}

var _ interfaces.Synthesizer = (*OpenAISynthesizer)(nil)
