package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Athena/internal/knowledge/schema"
	"Athena/pkg/logger"
)

// wordSplitter is a trivial stand-in for the token splitter: one chunk per
// sentence.
type wordSplitter struct{}

func (wordSplitter) Split(text string) []schema.Chunk {
	var chunks []schema.Chunk
	for _, sentence := range strings.SplitAfter(text, ".") {
		if strings.TrimSpace(sentence) == "" {
			continue
		}
		chunks = append(chunks, schema.Chunk{
			Text:       sentence,
			Index:      len(chunks),
			TokenCount: len(strings.Fields(sentence)),
		})
	}
	return chunks
}

type fakeIndexer struct {
	tenantID     string
	documentID   string
	documentName string
	chunks       []schema.Chunk
	vectors      [][]float32
	calls        int
}

func (f *fakeIndexer) Upsert(ctx context.Context, tenantID, documentID, documentName string, chunks []schema.Chunk, vectors [][]float32) error {
	f.calls++
	f.tenantID = tenantID
	f.documentID = documentID
	f.documentName = documentName
	f.chunks = chunks
	f.vectors = vectors
	return nil
}

func TestIndexingRunEmbedsAndUpserts(t *testing.T) {
	indexer := &fakeIndexer{}
	p := NewIndexingPipeline(wordSplitter{}, &fakeEmbedder{vector: []float32{0.5, 0.5}}, indexer, logger.New("test"))

	count, err := p.Run(context.Background(), "tenant-1", "doc-1", "handbook.md", "First sentence. Second sentence. Third sentence.")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.Equal(t, 1, indexer.calls)
	assert.Equal(t, "tenant-1", indexer.tenantID)
	assert.Equal(t, "doc-1", indexer.documentID)
	assert.Equal(t, "handbook.md", indexer.documentName)
	assert.Len(t, indexer.chunks, 3)
	assert.Len(t, indexer.vectors, 3)
	assert.Equal(t, 0, indexer.chunks[0].Index)
	assert.Equal(t, 2, indexer.chunks[2].Index)
}

func TestIndexingRunEmptyTextIndexesNothing(t *testing.T) {
	indexer := &fakeIndexer{}
	p := NewIndexingPipeline(wordSplitter{}, &fakeEmbedder{vector: []float32{0.5, 0.5}}, indexer, logger.New("test"))

	count, err := p.Run(context.Background(), "tenant-1", "doc-1", "empty.md", "")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, indexer.calls)
}
