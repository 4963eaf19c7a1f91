package splitters

import (
	"strings"
	"testing"

	"github.com/pkoukk/tiktoken-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenSplitterValidation(t *testing.T) {
	_, err := NewTokenSplitter(0, 0)
	assert.Error(t, err)

	_, err = NewTokenSplitter(100, 100)
	assert.Error(t, err)

	s, err := NewTokenSplitter(100, 20)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestSplitEmptyText(t *testing.T) {
	s, err := NewTokenSplitter(100, 20)
	require.NoError(t, err)

	assert.Empty(t, s.Split(""))
}

func TestSplitShortTextProducesSingleChunk(t *testing.T) {
	s, err := NewTokenSplitter(100, 20)
	require.NoError(t, err)

	text := "The vacation policy grants twenty days of paid leave per year."
	chunks := s.Split(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, text, chunks[0].Text)

	tke, err := tiktoken.GetEncoding("cl100k_base")
	require.NoError(t, err)
	assert.Equal(t, len(tke.Encode(text, nil, nil)), chunks[0].TokenCount)
}

func TestSplitWindowCoverageAndOverlap(t *testing.T) {
	const chunkSize, overlap = 50, 10
	s, err := NewTokenSplitter(chunkSize, overlap)
	require.NoError(t, err)

	text := strings.Repeat("Expense reports must be filed within thirty days of travel. ", 40)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)

	tke, err := tiktoken.GetEncoding("cl100k_base")
	require.NoError(t, err)
	total := len(tke.Encode(text, nil, nil))

	step := chunkSize - overlap
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)

		start := i * step
		end := start + chunkSize
		if end > total {
			end = total
		}
		// Token counts reflect the original window, not the trimmed text,
		// so consecutive windows overlap by exactly the configured amount.
		assert.Equal(t, end-start, c.TokenCount, "chunk %d", i)
	}

	// The final window must reach the end of the token sequence.
	lastStart := (len(chunks) - 1) * step
	assert.GreaterOrEqual(t, lastStart+chunks[len(chunks)-1].TokenCount, total)
}

func TestSplitTrimsNonFinalChunksAtSentenceBoundary(t *testing.T) {
	s, err := NewTokenSplitter(50, 10)
	require.NoError(t, err)

	// Every sentence ends with a period, so each non-final window has a
	// terminator well past the trim threshold.
	text := strings.Repeat("All employees receive an annual security training. ", 60)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 2)

	for _, c := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(c.Text, "."), "chunk %d should end at a sentence boundary, got %q", c.Index, c.Text)
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	s, err := NewTokenSplitter(40, 8)
	require.NoError(t, err)

	text := strings.Repeat("Remote work requires manager approval. ", 30)
	assert.Equal(t, s.Split(text), s.Split(text))
}
