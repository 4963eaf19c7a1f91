package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"Athena/internal/database/milvus"
	"Athena/internal/knowledge/interfaces"
	"Athena/internal/knowledge/schema"
	"Athena/pkg/logger"
)

// FragmentStore stores and retrieves embedded document fragments in Milvus.
// Every tenant's fragments live in a dedicated partition; the partition name
// is derived from the tenant id alone, so no coordination between tenants is
// ever required.
type FragmentStore struct {
	mc  *milvus.Client
	log *logger.Logger
}

// NewFragmentStore creates a FragmentStore on top of the shared Milvus
// client.
func NewFragmentStore(mc *milvus.Client, log *logger.Logger) *FragmentStore {
	return &FragmentStore{mc: mc, log: log}
}

// PartitionName derives the Milvus partition for a tenant: "tenant_" plus
// the first 16 characters of the tenant id with hyphens removed.
func PartitionName(tenantID string) string {
	clean := strings.ReplaceAll(tenantID, "-", "")
	if len(clean) > 16 {
		clean = clean[:16]
	}
	return "tenant_" + clean
}

// Upsert writes one document's chunks and their embeddings into the tenant's
// partition, creating the partition on first use.
func (s *FragmentStore) Upsert(ctx context.Context, tenantID, documentID, documentName string, chunks []schema.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch between number of chunks (%d) and vectors (%d)", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	partition := PartitionName(tenantID)
	if err := s.ensurePartition(ctx, partition); err != nil {
		return err
	}

	ids := make([]string, len(chunks))
	tenantIDs := make([]string, len(chunks))
	documentIDs := make([]string, len(chunks))
	documentNames := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	chunkIndexes := make([]int64, len(chunks))
	totalChunks := make([]int64, len(chunks))
	tokenCounts := make([]int64, len(chunks))

	for i, chunk := range chunks {
		ids[i] = uuid.New().String()
		tenantIDs[i] = tenantID
		documentIDs[i] = documentID
		documentNames[i] = documentName
		texts[i] = chunk.Text
		chunkIndexes[i] = int64(chunk.Index)
		totalChunks[i] = int64(len(chunks))
		tokenCounts[i] = int64(chunk.TokenCount)
	}

	dim := len(vectors[0])
	_, err := s.mc.Client.Insert(ctx, s.mc.Collection, partition,
		entity.NewColumnVarChar(milvus.FieldID, ids),
		entity.NewColumnFloatVector(milvus.FieldEmbedding, dim, vectors),
		entity.NewColumnVarChar(milvus.FieldTenantID, tenantIDs),
		entity.NewColumnVarChar(milvus.FieldDocumentID, documentIDs),
		entity.NewColumnVarChar(milvus.FieldDocumentName, documentNames),
		entity.NewColumnVarChar(milvus.FieldChunkText, texts),
		entity.NewColumnInt64(milvus.FieldChunkIndex, chunkIndexes),
		entity.NewColumnInt64(milvus.FieldTotalChunks, totalChunks),
		entity.NewColumnInt64(milvus.FieldTokenCount, tokenCounts),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fragments into partition '%s': %w", partition, err)
	}

	if err := s.mc.Client.Flush(ctx, s.mc.Collection, false); err != nil {
		return fmt.Errorf("failed to flush collection '%s': %w", s.mc.Collection, err)
	}

	s.log.WithTenant(tenantID).Info(fmt.Sprintf("Indexed %d fragments for document %s", len(chunks), documentID))
	return nil
}

// Search runs a similarity query inside the tenant's partition. A tenant
// that has never ingested anything gets an empty result. Results are
// filtered server-side to the tenant's records and re-verified here: any
// fragment carrying a different tenant id aborts the search with a
// SecurityViolationError.
func (s *FragmentStore) Search(ctx context.Context, tenantID string, queryVector []float32, topK int, scoreThreshold float32) ([]schema.Fragment, error) {
	partition := PartitionName(tenantID)

	has, err := s.mc.Client.HasPartition(ctx, s.mc.Collection, partition)
	if err != nil {
		return nil, fmt.Errorf("failed to check partition '%s': %w", partition, err)
	}
	if !has {
		return nil, nil
	}

	sp, err := entity.NewIndexIvfFlatSearchParam(10)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	expr := fmt.Sprintf(`%s == "%s"`, milvus.FieldTenantID, tenantID)
	outputFields := []string{
		milvus.FieldID, milvus.FieldTenantID, milvus.FieldDocumentID,
		milvus.FieldDocumentName, milvus.FieldChunkText, milvus.FieldChunkIndex,
		milvus.FieldTotalChunks, milvus.FieldTokenCount,
	}

	results, err := s.mc.Client.Search(
		ctx, s.mc.Collection, []string{partition}, expr, outputFields,
		[]entity.Vector{entity.FloatVector(queryVector)},
		milvus.FieldEmbedding, entity.COSINE, topK, sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search partition '%s': %w", partition, err)
	}

	var fragments []schema.Fragment
	for _, res := range results {
		collected, err := CollectFragments(res)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, collected...)
	}

	// The isolation check runs over everything the index handed back, not
	// just the hits that survive the score threshold.
	if err := VerifyTenantIsolation(tenantID, fragments); err != nil {
		return nil, err
	}

	kept := fragments[:0]
	for _, f := range fragments {
		if f.Score >= scoreThreshold {
			kept = append(kept, f)
		}
	}
	return kept, nil
}

// CollectFragments converts one Milvus search result into fragments,
// preserving the index's descending-score order.
func CollectFragments(res client.SearchResult) ([]schema.Fragment, error) {
	findColumn := func(name string) entity.Column {
		for _, field := range res.Fields {
			if field.Name() == name {
				return field
			}
		}
		return nil
	}

	varCharData := func(name string) ([]string, error) {
		col, ok := findColumn(name).(*entity.ColumnVarChar)
		if !ok {
			return nil, fmt.Errorf("search result is missing field '%s'", name)
		}
		return col.Data(), nil
	}
	int64Data := func(name string) ([]int64, error) {
		col, ok := findColumn(name).(*entity.ColumnInt64)
		if !ok {
			return nil, fmt.Errorf("search result is missing field '%s'", name)
		}
		return col.Data(), nil
	}

	ids, err := varCharData(milvus.FieldID)
	if err != nil {
		return nil, err
	}
	tenantIDs, err := varCharData(milvus.FieldTenantID)
	if err != nil {
		return nil, err
	}
	documentIDs, err := varCharData(milvus.FieldDocumentID)
	if err != nil {
		return nil, err
	}
	documentNames, err := varCharData(milvus.FieldDocumentName)
	if err != nil {
		return nil, err
	}
	texts, err := varCharData(milvus.FieldChunkText)
	if err != nil {
		return nil, err
	}
	chunkIndexes, err := int64Data(milvus.FieldChunkIndex)
	if err != nil {
		return nil, err
	}
	totalChunks, err := int64Data(milvus.FieldTotalChunks)
	if err != nil {
		return nil, err
	}
	tokenCounts, err := int64Data(milvus.FieldTokenCount)
	if err != nil {
		return nil, err
	}

	fragments := make([]schema.Fragment, 0, res.ResultCount)
	for i := 0; i < res.ResultCount; i++ {
		fragments = append(fragments, schema.Fragment{
			ID:           ids[i],
			TenantID:     tenantIDs[i],
			DocumentID:   documentIDs[i],
			DocumentName: documentNames[i],
			ChunkText:    texts[i],
			ChunkIndex:   int(chunkIndexes[i]),
			TotalChunks:  int(totalChunks[i]),
			TokenCount:   int(tokenCounts[i]),
			Score:        res.Scores[i],
		})
	}
	return fragments, nil
}

// VerifyTenantIsolation checks that every fragment belongs to the requesting
// tenant. A mismatch is a security fault of the underlying index, not a data
// bug, so the whole result set is rejected.
func VerifyTenantIsolation(tenantID string, fragments []schema.Fragment) error {
	for _, f := range fragments {
		if f.TenantID != tenantID {
			return &schema.SecurityViolationError{
				RequestingTenant: tenantID,
				ObservedTenant:   f.TenantID,
				FragmentID:       f.ID,
			}
		}
	}
	return nil
}

func (s *FragmentStore) ensurePartition(ctx context.Context, partition string) error {
	has, err := s.mc.Client.HasPartition(ctx, s.mc.Collection, partition)
	if err != nil {
		return fmt.Errorf("failed to check partition '%s': %w", partition, err)
	}
	if !has {
		if err := s.mc.Client.CreatePartition(ctx, s.mc.Collection, partition); err != nil {
			return fmt.Errorf("failed to create partition '%s': %w", partition, err)
		}
	}
	return nil
}

var (
	_ interfaces.Retriever       = (*FragmentStore)(nil)
	_ interfaces.FragmentIndexer = (*FragmentStore)(nil)
)
