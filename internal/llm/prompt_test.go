package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Athena/internal/knowledge/schema"
)

func TestBuildUserPrompt(t *testing.T) {
	fragments := []schema.Fragment{
		{DocumentName: "handbook.pdf", ChunkIndex: 0, ChunkText: "Employees get 25 vacation days."},
		{DocumentName: "policy.txt", ChunkIndex: 2, ChunkText: "Requests go through the manager."},
	}

	prompt := buildUserPrompt("How many vacation days do I get?", fragments)

	assert.Contains(t, prompt, "--- Document: handbook.pdf (Chunk 1) ---")
	assert.Contains(t, prompt, "--- Document: policy.txt (Chunk 3) ---")
	assert.Contains(t, prompt, "Employees get 25 vacation days.")
	assert.Contains(t, prompt, "QUESTION:\nHow many vacation days do I get?")
	assert.Contains(t, prompt, "insufficient_context")
}

func TestParseAnswer(t *testing.T) {
	raw := `{"answer": "25 days", "sources": [{"document_name": "handbook.pdf", "relevant_excerpt": "25 vacation days"}], "confidence": 0.9, "insufficient_context": false}`

	answer, err := parseAnswer(raw)
	require.NoError(t, err)
	require.NotNil(t, answer.Answer)
	assert.Equal(t, "25 days", *answer.Answer)
	assert.Len(t, answer.Sources, 1)
	assert.Equal(t, "handbook.pdf", answer.Sources[0].DocumentName)
	assert.Equal(t, 0.9, answer.Confidence)
	assert.False(t, answer.InsufficientContext)
}

func TestParseAnswerStripsMarkdownFences(t *testing.T) {
	for _, wrapped := range []string{
		"```json\n{\"answer\": null, \"sources\": [], \"confidence\": 0, \"insufficient_context\": true}\n```",
		"```\n{\"answer\": null, \"sources\": [], \"confidence\": 0, \"insufficient_context\": true}\n```",
	} {
		answer, err := parseAnswer(wrapped)
		require.NoError(t, err)
		assert.Nil(t, answer.Answer)
		assert.True(t, answer.InsufficientContext)
	}
}

func TestParseAnswerRejectsGarbage(t *testing.T) {
	_, err := parseAnswer("the model rambled instead of emitting JSON")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to parse model response"))
}
