package schema

// QueryRecord captures one executed query for the query log.
type QueryRecord struct {
	TenantID            string
	Question            string
	Answer              *string
	Sources             []Source
	Confidence          float64
	InsufficientContext bool
	RetrievedChunks     int
	TokensUsed          int
	ProcessingTimeMs    int64
}

// AuditRecord captures one auditable action. Security violations use a
// distinguished recording path so they can be alerted on out-of-band.
type AuditRecord struct {
	TenantID     string
	Action       string
	ResourceType string
	ResourceID   string
	Metadata     map[string]interface{}
}

// Audit actions recorded by the service.
const (
	AuditActionDocumentUpload    = "document_upload"
	AuditActionQueryExecute      = "query_execute"
	AuditActionSecurityViolation = "security_violation"
)
