package interfaces

import (
	"context"
	"time"

	"Athena/internal/knowledge/schema"
)

// Splitter turns raw document text into token-bounded chunks. Splitting is
// pure: identical input and configuration always yield identical chunks.
type Splitter interface {
	Split(text string) []schema.Chunk
}

// Embedder produces fixed-dimension vectors for text. Used per chunk at
// ingestion time and for the question at query time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Synthesizer generates a grounded, structured answer from a question and an
// ordered list of context fragments. It is never called with an empty
// fragment list.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, fragments []schema.Fragment) (*schema.Answer, error)
}

// Retriever is the vector search boundary. Implementations must verify that
// every returned fragment belongs to the requesting tenant and abort with a
// SecurityViolationError otherwise. A tenant with no indexed data yields an
// empty result, not an error.
type Retriever interface {
	Search(ctx context.Context, tenantID string, queryVector []float32, topK int, scoreThreshold float32) ([]schema.Fragment, error)
}

// FragmentIndexer writes embedded chunks into a tenant's partition of the
// similarity index, creating the partition on first use.
type FragmentIndexer interface {
	Upsert(ctx context.Context, tenantID, documentID, documentName string, chunks []schema.Chunk, vectors [][]float32) error
}

// AnswerCache maps a (tenant, question, fragment set) fingerprint to a
// previously synthesized answer. Get returns (nil, nil) on a miss; Put is a
// silent no-op for answers the admission policy rejects.
type AnswerCache interface {
	Get(ctx context.Context, tenantID, question string, documentIDs []string) (*schema.Answer, error)
	Put(ctx context.Context, tenantID, question string, documentIDs []string, answer *schema.Answer, ttl time.Duration) error
}

// RateLimiter bounds per-tenant request throughput with a fixed-window
// counter keyed by (tenant, operation, window).
type RateLimiter interface {
	Allow(ctx context.Context, tenantID, operation string) (bool, error)
}

// QueryRecorder persists query and audit records. Both are fire-and-forget
// from the pipeline's perspective: a failed write must never fail the
// request it describes.
type QueryRecorder interface {
	RecordQuery(ctx context.Context, rec *schema.QueryRecord)
	RecordAudit(ctx context.Context, rec *schema.AuditRecord)
	RecordSecurityViolation(ctx context.Context, rec *schema.AuditRecord)
}
