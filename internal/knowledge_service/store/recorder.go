package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"gorm.io/datatypes"

	"Athena/internal/knowledge/interfaces"
	"Athena/internal/knowledge/schema"
	"Athena/internal/models"
	"Athena/pkg/logger"
)

// SecurityAuditTopic receives every detected tenant isolation violation so
// alerting does not depend on anyone reading the audit table.
const SecurityAuditTopic = "security_audit"

// Recorder persists query and audit records. All writes are best-effort:
// failures are logged and swallowed so that logging can never fail the
// request it describes.
type Recorder struct {
	store    *Store
	security *kafka.Writer // nil disables out-of-band publishing
	log      *logger.Logger
}

// NewRecorder creates a Recorder. The Kafka writer may be nil, in which case
// security violations are only written to the audit table.
func NewRecorder(store *Store, security *kafka.Writer, log *logger.Logger) *Recorder {
	return &Recorder{store: store, security: security, log: log}
}

// RecordQuery appends a row to the query log.
func (r *Recorder) RecordQuery(ctx context.Context, rec *schema.QueryRecord) {
	sources, err := json.Marshal(rec.Sources)
	if err != nil {
		r.log.Warn(fmt.Sprintf("failed to marshal query sources: %v", err))
		sources = []byte("[]")
	}

	row := &models.QueryLog{
		TenantID:             rec.TenantID,
		Question:             rec.Question,
		Answer:               rec.Answer,
		Sources:              datatypes.JSON(sources),
		Confidence:           rec.Confidence,
		InsufficientContext:  rec.InsufficientContext,
		RetrievedChunksCount: rec.RetrievedChunks,
		LLMTokensUsed:        rec.TokensUsed,
		ProcessingTimeMs:     rec.ProcessingTimeMs,
	}
	if err := r.store.CreateQueryLog(ctx, row); err != nil {
		r.log.WithTenant(rec.TenantID).Warn(fmt.Sprintf("failed to write query log: %v", err))
	}
}

// RecordAudit appends a row to the audit log.
func (r *Recorder) RecordAudit(ctx context.Context, rec *schema.AuditRecord) {
	if err := r.store.CreateAuditLog(ctx, r.toRow(rec)); err != nil {
		r.log.WithTenant(rec.TenantID).Warn(fmt.Sprintf("failed to write audit log: %v", err))
	}
}

// RecordSecurityViolation writes the audit row and additionally publishes
// the event to the security topic. This is the distinguished path the
// isolation invariant requires: a violation must reach out-of-band alerting,
// not just a table.
func (r *Recorder) RecordSecurityViolation(ctx context.Context, rec *schema.AuditRecord) {
	r.log.WithTenant(rec.TenantID).WithPayload(rec.Metadata).Error("tenant isolation violation detected")

	if err := r.store.CreateAuditLog(ctx, r.toRow(rec)); err != nil {
		r.log.WithTenant(rec.TenantID).Error(fmt.Sprintf("failed to write security audit log: %v", err))
	}

	if r.security == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"tenant_id": rec.TenantID,
		"action":    rec.Action,
		"metadata":  rec.Metadata,
	})
	if err != nil {
		r.log.Error(fmt.Sprintf("failed to marshal security event: %v", err))
		return
	}
	if err := r.security.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.TenantID),
		Value: payload,
	}); err != nil {
		r.log.Error(fmt.Sprintf("failed to publish security event: %v", err))
	}
}

func (r *Recorder) toRow(rec *schema.AuditRecord) *models.AuditLog {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		r.log.Warn(fmt.Sprintf("failed to marshal audit metadata: %v", err))
		metadata = []byte("{}")
	}
	return &models.AuditLog{
		TenantID:     rec.TenantID,
		Action:       rec.Action,
		ResourceType: rec.ResourceType,
		ResourceID:   rec.ResourceID,
		Metadata:     datatypes.JSON(metadata),
	}
}

var _ interfaces.QueryRecorder = (*Recorder)(nil)
