package splitters

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"Athena/internal/knowledge/interfaces"
	"Athena/internal/knowledge/schema"
)

// TokenSplitter splits raw text into overlapping, token-bounded chunks.
type TokenSplitter struct {
	chunkSize    int
	chunkOverlap int
	tokenizer    *tiktoken.Tiktoken
}

// NewTokenSplitter creates a TokenSplitter. chunkSize and chunkOverlap are in
// token units and chunkOverlap must be smaller than chunkSize.
func NewTokenSplitter(chunkSize, chunkOverlap int) (*TokenSplitter, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("invalid splitter configuration: chunkSize=%d chunkOverlap=%d", chunkSize, chunkOverlap)
	}
	// "cl100k_base" is the tokenizer for gpt-4 and the text-embedding models.
	tke, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}
	return &TokenSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		tokenizer:    tke,
	}, nil
}

// Split cuts text into windows of chunkSize tokens, each window starting
// chunkSize-chunkOverlap tokens after the previous one. Every window except
// the final one is trimmed back to its last sentence terminator when that
// terminator falls past 70% of the window, so chunks prefer sentence
// boundaries without shrinking excessively. Empty input yields no chunks.
func (s *TokenSplitter) Split(text string) []schema.Chunk {
	tokens := s.tokenizer.Encode(text, nil, nil)
	if len(tokens) == 0 {
		return nil
	}

	step := s.chunkSize - s.chunkOverlap
	var chunks []schema.Chunk

	for start := 0; start < len(tokens); start += step {
		end := start + s.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		chunkText := s.tokenizer.Decode(tokens[start:end])

		// Only non-final windows are trimmed; the last window keeps its
		// tail regardless of where the final period lands.
		if start+s.chunkSize < len(tokens) {
			if idx := strings.LastIndex(chunkText, "."); idx > int(float64(s.chunkSize)*0.7) {
				chunkText = chunkText[:idx+1]
			}
		}

		chunks = append(chunks, schema.Chunk{
			Text:       chunkText,
			Index:      len(chunks),
			TokenCount: end - start,
		})

		if end == len(tokens) {
			break
		}
	}

	return chunks
}

var _ interfaces.Splitter = (*TokenSplitter)(nil)
