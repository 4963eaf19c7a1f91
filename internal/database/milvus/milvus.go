package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"Athena/internal/config"
)

// Field names of the fragment collection. The payload stored next to each
// vector carries everything needed to build a retrieval result without a
// second lookup.
const (
	FieldID           = "id"
	FieldEmbedding    = "embedding"
	FieldTenantID     = "tenant_id"
	FieldDocumentID   = "document_id"
	FieldDocumentName = "document_name"
	FieldChunkText    = "chunk_text"
	FieldChunkIndex   = "chunk_index"
	FieldTotalChunks  = "total_chunks"
	FieldTokenCount   = "token_count"
)

// Client wraps the Milvus SDK client together with the collection it
// operates on.
type Client struct {
	Client     client.Client
	Collection string
}

// NewClient connects to Milvus. The fragment collection is created lazily by
// EnsureCollection so a fresh deployment needs no manual schema setup.
func NewClient(ctx context.Context, cfg *config.MilvusConfig) (*Client, error) {
	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus: %w", err)
	}
	return &Client{Client: c, Collection: cfg.CollectionName}, nil
}

// EnsureCollection creates the fragment collection, its vector index and the
// tenant_id scalar index if they do not exist yet, then loads the collection
// for search.
func (c *Client) EnsureCollection(ctx context.Context, dim int) error {
	has, err := c.Client.HasCollection(ctx, c.Collection)
	if err != nil {
		return fmt.Errorf("failed to check collection '%s': %w", c.Collection, err)
	}

	if !has {
		schema := &entity.Schema{
			CollectionName: c.Collection,
			Description:    "tenant-partitioned knowledge base fragments",
			Fields: []*entity.Field{
				{Name: FieldID, DataType: entity.FieldTypeVarChar, PrimaryKey: true, TypeParams: map[string]string{entity.TypeParamMaxLength: "64"}},
				{Name: FieldEmbedding, DataType: entity.FieldTypeFloatVector, TypeParams: map[string]string{entity.TypeParamDim: strconv.Itoa(dim)}},
				{Name: FieldTenantID, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{entity.TypeParamMaxLength: "64"}},
				{Name: FieldDocumentID, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{entity.TypeParamMaxLength: "64"}},
				{Name: FieldDocumentName, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{entity.TypeParamMaxLength: "512"}},
				{Name: FieldChunkText, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{entity.TypeParamMaxLength: "65535"}},
				{Name: FieldChunkIndex, DataType: entity.FieldTypeInt64},
				{Name: FieldTotalChunks, DataType: entity.FieldTypeInt64},
				{Name: FieldTokenCount, DataType: entity.FieldTypeInt64},
			},
		}
		if err := c.Client.CreateCollection(ctx, schema, 2); err != nil {
			return fmt.Errorf("failed to create collection '%s': %w", c.Collection, err)
		}

		idx, err := entity.NewIndexIvfFlat(entity.COSINE, 128)
		if err != nil {
			return fmt.Errorf("failed to build index definition: %w", err)
		}
		if err := c.Client.CreateIndex(ctx, c.Collection, FieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("failed to create vector index: %w", err)
		}
	}

	if err := c.Client.LoadCollection(ctx, c.Collection, false); err != nil {
		return fmt.Errorf("failed to load collection '%s': %w", c.Collection, err)
	}
	return nil
}

// Close closes the Milvus connection.
func (c *Client) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// HealthCheck verifies the connection by listing collections.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("milvus health check failed: %w", err)
	}
	return nil
}
