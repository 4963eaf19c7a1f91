package models

import (
	"time"

	"gorm.io/datatypes"
)

// Tenant is an isolated customer boundary. Every document, fragment, cached
// answer and rate counter belongs to exactly one tenant.
type Tenant struct {
	ID         string `gorm:"type:varchar(36);primaryKey"`
	Name       string `gorm:"size:255;not null"`
	APIKeyHash string `gorm:"column:api_key_hash;uniqueIndex;size:64;not null"`
	IsActive   bool   `gorm:"default:true;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Document is the metadata of one uploaded document. The raw bytes live in
// object storage under ObjectKey; the chunked fragments live in the tenant's
// vector partition. Documents are immutable once chunked: re-uploading a
// file creates a new document row.
type Document struct {
	ID          string `gorm:"type:varchar(36);primaryKey"`
	TenantID    string `gorm:"type:varchar(36);index;not null"`
	Name        string `gorm:"size:512;not null"`
	ContentType string `gorm:"size:128;not null"`
	ObjectKey   string `gorm:"size:600;not null"`
	ChunkCount  int    `gorm:"not null"`
	UploadedAt  time.Time
}

// QueryLog records one executed query.
type QueryLog struct {
	ID                   uint   `gorm:"primaryKey"`
	TenantID             string `gorm:"type:varchar(36);index;not null"`
	Question             string `gorm:"type:text;not null"`
	Answer               *string `gorm:"type:text"`
	Sources              datatypes.JSON
	Confidence           float64
	InsufficientContext  bool
	RetrievedChunksCount int
	LLMTokensUsed        int `gorm:"column:llm_tokens_used"`
	ProcessingTimeMs     int64
	CreatedAt            time.Time
}

// AuditLog records one auditable action. Security violations land here as
// well, in addition to the out-of-band security topic.
type AuditLog struct {
	ID           uint   `gorm:"primaryKey"`
	TenantID     string `gorm:"type:varchar(36);index;not null"`
	Action       string `gorm:"size:64;index;not null"`
	ResourceType string `gorm:"size:64;not null"`
	ResourceID   string `gorm:"type:varchar(36)"`
	Metadata     datatypes.JSON
	CreatedAt    time.Time
}

func (Tenant) TableName() string   { return "tenants" }
func (Document) TableName() string { return "documents" }
func (QueryLog) TableName() string { return "queries" }
func (AuditLog) TableName() string { return "audit_logs" }
