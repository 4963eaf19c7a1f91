package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	minio "github.com/minio/minio-go/v7"

	milvusdb "Athena/internal/database/milvus"
	miniodb "Athena/internal/database/minio"
	mysqldb "Athena/internal/database/mysql"
	redisdb "Athena/internal/database/redis"
	"Athena/internal/knowledge/interfaces"
	"Athena/internal/knowledge/loaders"
	"Athena/internal/knowledge/pipeline"
	"Athena/internal/knowledge/schema"
	"Athena/internal/knowledge_service/store"
	"Athena/internal/models"
	"Athena/pkg/logger"
)

// OperationUpload is the rate-limit operation name for document uploads.
const OperationUpload = "upload"

// Service composes the ingestion and query pipelines with the relational
// store and object storage. All collaborators are injected at construction
// and live for the lifetime of the process.
type Service struct {
	store    *store.Store
	recorder *store.Recorder
	objects  *minio.Client
	bucket   string
	rdb      *redis.Client
	mc       *milvusdb.Client
	limiter  interfaces.RateLimiter
	indexing *pipeline.IndexingPipeline
	query    *pipeline.QueryPipeline
	log      *logger.Logger
}

// New creates the Service.
func New(
	st *store.Store,
	recorder *store.Recorder,
	objects *minio.Client,
	bucket string,
	rdb *redis.Client,
	mc *milvusdb.Client,
	limiter interfaces.RateLimiter,
	indexing *pipeline.IndexingPipeline,
	query *pipeline.QueryPipeline,
	log *logger.Logger,
) *Service {
	return &Service{
		store:    st,
		recorder: recorder,
		objects:  objects,
		bucket:   bucket,
		rdb:      rdb,
		mc:       mc,
		limiter:  limiter,
		indexing: indexing,
		query:    query,
		log:      log,
	}
}

// UploadDocument ingests one uploaded file for a tenant: extract text, store
// the raw bytes, chunk, embed, index, record metadata. A re-upload of the
// same file creates a new document rather than mutating the old one.
func (s *Service) UploadDocument(ctx context.Context, tenantID, filename string, data []byte) (*models.Document, error) {
	allowed, err := s.limiter.Allow(ctx, tenantID, OperationUpload)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if !allowed {
		return nil, schema.ErrThrottled
	}

	text, contentType, err := loaders.ExtractText(data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract document text: %w", err)
	}

	documentID := uuid.New().String()
	objectKey := fmt.Sprintf("%s/%s", tenantID, documentID)

	_, err = s.objects.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store raw document: %w", err)
	}

	chunkCount, err := s.indexing.Run(ctx, tenantID, documentID, filename, text)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:          documentID,
		TenantID:    tenantID,
		Name:        filename,
		ContentType: contentType,
		ObjectKey:   objectKey,
		ChunkCount:  chunkCount,
		UploadedAt:  time.Now(),
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	s.recorder.RecordAudit(ctx, &schema.AuditRecord{
		TenantID:     tenantID,
		Action:       schema.AuditActionDocumentUpload,
		ResourceType: "document",
		ResourceID:   documentID,
		Metadata: map[string]interface{}{
			"name":   filename,
			"chunks": chunkCount,
		},
	})

	return doc, nil
}

// Query answers one question against the tenant's knowledge base.
func (s *Service) Query(ctx context.Context, tenantID, question string) (*schema.QueryResult, error) {
	return s.query.Query(ctx, tenantID, question)
}

// ListDocuments returns the tenant's documents, newest first.
func (s *Service) ListDocuments(ctx context.Context, tenantID string) ([]models.Document, error) {
	return s.store.ListDocuments(ctx, tenantID)
}

// Health reports the status of every backing service plus an overall
// verdict.
func (s *Service) Health(ctx context.Context) (string, map[string]string) {
	services := map[string]string{
		"api":    "healthy",
		"mysql":  "healthy",
		"redis":  "healthy",
		"milvus": "healthy",
		"minio":  "healthy",
	}

	if err := mysqldb.HealthCheck(ctx, s.store.DB); err != nil {
		services["mysql"] = "unhealthy"
	}
	if err := redisdb.HealthCheck(ctx, s.rdb); err != nil {
		services["redis"] = "unhealthy"
	}
	if err := s.mc.HealthCheck(ctx); err != nil {
		services["milvus"] = "unhealthy"
	}
	if err := miniodb.HealthCheck(ctx, s.objects); err != nil {
		services["minio"] = "unhealthy"
	}

	overall := "healthy"
	for _, status := range services {
		if status != "healthy" {
			overall = "degraded"
			break
		}
	}
	return overall, services
}
