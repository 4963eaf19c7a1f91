package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"Athena/internal/knowledge/schema"
)

const systemPrompt = `You are an internal knowledge assistant. Your role is to answer employee questions based ONLY on the provided internal documents.

CRITICAL RULES:
1. Only use information from the provided context documents
2. Always cite your sources by referencing document names
3. If the context does not contain enough information to answer the question, you MUST respond with insufficient_context: true
4. Never make assumptions or use external knowledge
5. Be concise but complete in your answers
6. Use professional business language

Your response must be in JSON format following this exact structure.`

// buildUserPrompt renders the retrieved fragments and the question into the
// prompt that asks for a structured JSON answer.
func buildUserPrompt(question string, fragments []schema.Fragment) string {
	var sb strings.Builder

	sb.WriteString("CONTEXT DOCUMENTS:\n")
	for _, f := range fragments {
		sb.WriteString(fmt.Sprintf("--- Document: %s (Chunk %d) ---\n%s\n---\n\n", f.DocumentName, f.ChunkIndex+1, f.ChunkText))
	}

	sb.WriteString("QUESTION:\n")
	sb.WriteString(question)
	sb.WriteString(`

Provide your answer in the following JSON format:
{
  "answer": "Your detailed answer here, or null if insufficient context",
  "sources": [
    {
      "document_name": "Name of source document",
      "relevant_excerpt": "Brief quote supporting your answer"
    }
  ],
  "confidence": 0.85,
  "insufficient_context": false
}

Confidence should be a number between 0 and 1 indicating how well the context supports the answer.
Set insufficient_context to true if you cannot answer the question from the provided context.`)

	return sb.String()
}

// parseAnswer decodes the model's JSON output. Some models wrap JSON in
// markdown fences despite the JSON response format, so fences are stripped
// before decoding.
func parseAnswer(content string) (*schema.Answer, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var answer schema.Answer
	if err := json.Unmarshal([]byte(content), &answer); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return &answer, nil
}
