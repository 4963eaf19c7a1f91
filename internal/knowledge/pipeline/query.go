package pipeline

import (
	"context"
	"fmt"
	"time"

	"Athena/internal/knowledge/interfaces"
	"Athena/internal/knowledge/schema"
	"Athena/pkg/logger"
)

// QueryPipeline orchestrates one knowledge base query:
// rate check, question embedding, tenant-scoped retrieval, cache check,
// synthesis on a miss, cache admission, logging, response.
//
// Each invocation is independent; the pipeline holds no per-request state
// and is safe for concurrent use by many tenants at once.
type QueryPipeline struct {
	limiter     interfaces.RateLimiter
	embedder    interfaces.Embedder
	retriever   interfaces.Retriever
	cache       interfaces.AnswerCache
	synthesizer interfaces.Synthesizer
	recorder    interfaces.QueryRecorder
	log         *logger.Logger

	topK           int
	scoreThreshold float32
	cacheTTL       time.Duration
}

// NewQueryPipeline creates a QueryPipeline with explicit collaborators.
func NewQueryPipeline(
	limiter interfaces.RateLimiter,
	embedder interfaces.Embedder,
	retriever interfaces.Retriever,
	cache interfaces.AnswerCache,
	synthesizer interfaces.Synthesizer,
	recorder interfaces.QueryRecorder,
	log *logger.Logger,
	topK int,
	scoreThreshold float32,
	cacheTTL time.Duration,
) *QueryPipeline {
	return &QueryPipeline{
		limiter:        limiter,
		embedder:       embedder,
		retriever:      retriever,
		cache:          cache,
		synthesizer:    synthesizer,
		recorder:       recorder,
		log:            log,
		topK:           topK,
		scoreThreshold: scoreThreshold,
		cacheTTL:       cacheTTL,
	}
}

// OperationQuery is the rate-limit operation name for queries.
const OperationQuery = "query"

// Query answers one question against the tenant's knowledge base.
//
// Terminal outcomes: a QueryResult (possibly with insufficient context,
// which is a normal result), schema.ErrThrottled when the tenant is over its
// limit, a SecurityViolationError when retrieval observes cross-tenant data,
// or a wrapped upstream failure.
func (p *QueryPipeline) Query(ctx context.Context, tenantID, question string) (*schema.QueryResult, error) {
	start := time.Now()
	log := p.log.WithTenant(tenantID)

	// Rate check fails closed: nothing else runs for a throttled request.
	allowed, err := p.limiter.Allow(ctx, tenantID, OperationQuery)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if !allowed {
		return nil, schema.ErrThrottled
	}

	queryVector, err := p.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	fragments, err := p.retriever.Search(ctx, tenantID, queryVector, p.topK, p.scoreThreshold)
	if err != nil {
		if schema.IsSecurityViolation(err) {
			// Fatal for the request and never downgraded: the audit trail
			// gets the full context through its own path.
			p.recorder.RecordSecurityViolation(ctx, &schema.AuditRecord{
				TenantID:     tenantID,
				Action:       schema.AuditActionSecurityViolation,
				ResourceType: "query",
				Metadata: map[string]interface{}{
					"error":    err.Error(),
					"question": question,
				},
			})
			return nil, err
		}
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	documentIDs := make([]string, len(fragments))
	for i, f := range fragments {
		documentIDs[i] = f.DocumentID
	}

	cached, err := p.cache.Get(ctx, tenantID, question, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("cache lookup failed: %w", err)
	}
	if cached != nil {
		result := p.respond(ctx, tenantID, question, cached, len(fragments), true, start)
		return result, nil
	}

	var answer *schema.Answer
	if len(fragments) == 0 {
		// Synthesis is never invoked with an empty context.
		answer = &schema.Answer{
			Answer:              nil,
			Sources:             []schema.Source{},
			Confidence:          0.0,
			InsufficientContext: true,
		}
	} else {
		answer, err = p.synthesizer.Synthesize(ctx, question, fragments)
		if err != nil {
			return nil, fmt.Errorf("answer synthesis failed: %w", err)
		}
	}

	// Admission rejections are silent; a failed write is only logged. The
	// caller already has the answer either way.
	if err := p.cache.Put(ctx, tenantID, question, documentIDs, answer, p.cacheTTL); err != nil {
		log.Warn(fmt.Sprintf("failed to cache answer: %v", err))
	}

	result := p.respond(ctx, tenantID, question, answer, len(fragments), false, start)
	return result, nil
}

// respond assembles the terminal result and records the query and audit
// entries. Recording is fire-and-forget; it can never fail the request.
func (p *QueryPipeline) respond(ctx context.Context, tenantID, question string, answer *schema.Answer, retrieved int, cached bool, start time.Time) *schema.QueryResult {
	elapsed := time.Since(start).Milliseconds()

	result := &schema.QueryResult{
		Answer:              answer.Answer,
		Sources:             answer.Sources,
		Confidence:          answer.Confidence,
		InsufficientContext: answer.InsufficientContext,
		Cached:              cached,
		ProcessingTimeMs:    elapsed,
	}
	if result.Sources == nil {
		result.Sources = []schema.Source{}
	}

	p.recorder.RecordQuery(ctx, &schema.QueryRecord{
		TenantID:            tenantID,
		Question:            question,
		Answer:              answer.Answer,
		Sources:             result.Sources,
		Confidence:          answer.Confidence,
		InsufficientContext: answer.InsufficientContext,
		RetrievedChunks:     retrieved,
		TokensUsed:          answer.Usage.Total,
		ProcessingTimeMs:    elapsed,
	})
	p.recorder.RecordAudit(ctx, &schema.AuditRecord{
		TenantID:     tenantID,
		Action:       schema.AuditActionQueryExecute,
		ResourceType: "query",
		Metadata: map[string]interface{}{
			"question":             question,
			"chunks_retrieved":     retrieved,
			"insufficient_context": answer.InsufficientContext,
			"cached":               cached,
		},
	})

	return result
}
