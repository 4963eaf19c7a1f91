package vectorstore

import (
	"errors"
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Athena/internal/database/milvus"
	"Athena/internal/knowledge/schema"
)

func TestPartitionName(t *testing.T) {
	assert.Equal(t, "tenant_1f2e3d4c5b6a7988", PartitionName("1f2e3d4c-5b6a-7988-aaaa-bbbbccccdddd"))
	assert.Equal(t, "tenant_acme", PartitionName("acme"))

	// Two distinct tenants never share a partition name prefix collision
	// within the first 16 hex characters of a UUID.
	a := PartitionName("11111111-2222-3333-4444-555555555555")
	b := PartitionName("11111111-2222-4444-3333-555555555555")
	assert.NotEqual(t, a, b)
}

func searchResultForTenants(tenantIDs []string) client.SearchResult {
	n := len(tenantIDs)
	ids := make([]string, n)
	documentIDs := make([]string, n)
	documentNames := make([]string, n)
	texts := make([]string, n)
	chunkIndexes := make([]int64, n)
	totalChunks := make([]int64, n)
	tokenCounts := make([]int64, n)
	scores := make([]float32, n)
	for i := range tenantIDs {
		ids[i] = "fragment-" + tenantIDs[i]
		documentIDs[i] = "doc-1"
		documentNames[i] = "handbook.md"
		texts[i] = "Vacation policy text."
		chunkIndexes[i] = int64(i)
		totalChunks[i] = int64(n)
		tokenCounts[i] = 42
		scores[i] = 0.9 - float32(i)*0.05
	}

	return client.SearchResult{
		ResultCount: n,
		Scores:      scores,
		Fields: client.ResultSet{
			entity.NewColumnVarChar(milvus.FieldID, ids),
			entity.NewColumnVarChar(milvus.FieldTenantID, tenantIDs),
			entity.NewColumnVarChar(milvus.FieldDocumentID, documentIDs),
			entity.NewColumnVarChar(milvus.FieldDocumentName, documentNames),
			entity.NewColumnVarChar(milvus.FieldChunkText, texts),
			entity.NewColumnInt64(milvus.FieldChunkIndex, chunkIndexes),
			entity.NewColumnInt64(milvus.FieldTotalChunks, totalChunks),
			entity.NewColumnInt64(milvus.FieldTokenCount, tokenCounts),
		},
	}
}

func TestCollectFragments(t *testing.T) {
	res := searchResultForTenants([]string{"tenant-1", "tenant-1"})

	fragments, err := CollectFragments(res)
	require.NoError(t, err)
	require.Len(t, fragments, 2)

	assert.Equal(t, "tenant-1", fragments[0].TenantID)
	assert.Equal(t, "doc-1", fragments[0].DocumentID)
	assert.Equal(t, "handbook.md", fragments[0].DocumentName)
	assert.Equal(t, 0, fragments[0].ChunkIndex)
	assert.Equal(t, 1, fragments[1].ChunkIndex)
	assert.Equal(t, 2, fragments[0].TotalChunks)
	assert.Equal(t, 42, fragments[0].TokenCount)
	assert.InDelta(t, 0.9, fragments[0].Score, 1e-6)
}

func TestCollectFragmentsMissingFieldFails(t *testing.T) {
	res := client.SearchResult{
		ResultCount: 1,
		Scores:      []float32{0.9},
		Fields: client.ResultSet{
			entity.NewColumnVarChar(milvus.FieldID, []string{"fragment-1"}),
		},
	}

	_, err := CollectFragments(res)
	assert.Error(t, err)
}

func TestVerifyTenantIsolationPasses(t *testing.T) {
	fragments, err := CollectFragments(searchResultForTenants([]string{"tenant-1", "tenant-1"}))
	require.NoError(t, err)

	assert.NoError(t, VerifyTenantIsolation("tenant-1", fragments))
}

func TestVerifyTenantIsolationDetectsForeignFragment(t *testing.T) {
	fragments, err := CollectFragments(searchResultForTenants([]string{"tenant-1", "tenant-2", "tenant-1"}))
	require.NoError(t, err)

	err = VerifyTenantIsolation("tenant-1", fragments)
	require.Error(t, err)

	var sv *schema.SecurityViolationError
	require.True(t, errors.As(err, &sv))
	assert.Equal(t, "tenant-1", sv.RequestingTenant)
	assert.Equal(t, "tenant-2", sv.ObservedTenant)
	assert.Equal(t, "fragment-tenant-2", sv.FragmentID)
	assert.True(t, schema.IsSecurityViolation(err))
}
