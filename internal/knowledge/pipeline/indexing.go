package pipeline

import (
	"context"
	"fmt"

	"Athena/internal/knowledge/interfaces"
	"Athena/pkg/logger"
)

// IndexingPipeline turns one document's raw text into embedded fragments in
// the tenant's partition: split, batch-embed, upsert.
type IndexingPipeline struct {
	splitter interfaces.Splitter
	embedder interfaces.Embedder
	indexer  interfaces.FragmentIndexer
	log      *logger.Logger
}

// NewIndexingPipeline creates an IndexingPipeline.
func NewIndexingPipeline(
	splitter interfaces.Splitter,
	embedder interfaces.Embedder,
	indexer interfaces.FragmentIndexer,
	log *logger.Logger,
) *IndexingPipeline {
	return &IndexingPipeline{
		splitter: splitter,
		embedder: embedder,
		indexer:  indexer,
		log:      log,
	}
}

// Run ingests one document and returns the number of chunks produced. A
// document with no extractable text indexes nothing and is not an error.
func (p *IndexingPipeline) Run(ctx context.Context, tenantID, documentID, documentName, text string) (int, error) {
	chunks := p.splitter.Split(text)
	if len(chunks) == 0 {
		p.log.WithTenant(tenantID).Warn(fmt.Sprintf("Document %s produced no chunks", documentID))
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed document chunks: %w", err)
	}

	if err := p.indexer.Upsert(ctx, tenantID, documentID, documentName, chunks, vectors); err != nil {
		return 0, fmt.Errorf("failed to index document fragments: %w", err)
	}

	p.log.WithTenant(tenantID).Info(fmt.Sprintf("Ingested document %s (%q) as %d fragments", documentID, documentName, len(chunks)))
	return len(chunks), nil
}
