package schema

// Chunk is a token-bounded piece of a document produced by the splitter.
// Chunks are immutable once produced; re-uploading a document creates new
// chunks under a new document id.
type Chunk struct {
	// Text is the (possibly sentence-trimmed) chunk content.
	Text string

	// Index is the 0-based sequential position of the chunk within its
	// document.
	Index int

	// TokenCount is the size of the original, untrimmed token window.
	TokenCount int
}

// Fragment is an indexed chunk as returned by the similarity search. The
// payload fields mirror what is stored next to the vector in the tenant's
// partition.
type Fragment struct {
	ID           string
	TenantID     string
	DocumentID   string
	DocumentName string
	ChunkText    string
	ChunkIndex   int
	TotalChunks  int
	TokenCount   int
	Score        float32
}

// Source is a citation attached to a synthesized answer.
type Source struct {
	DocumentName    string `json:"document_name"`
	RelevantExcerpt string `json:"relevant_excerpt"`
}

// TokenUsage reports the LLM token consumption of a synthesis call.
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// Answer is the structured output of the synthesis step. It is also the
// value stored by the answer cache.
type Answer struct {
	Answer              *string  `json:"answer"`
	Sources             []Source `json:"sources"`
	Confidence          float64  `json:"confidence"`
	InsufficientContext bool     `json:"insufficient_context"`

	// Usage is not part of the cacheable payload; it only feeds the query
	// log.
	Usage TokenUsage `json:"-"`
}

// QueryResult is the terminal response of the query pipeline.
type QueryResult struct {
	Answer              *string  `json:"answer"`
	Sources             []Source `json:"sources"`
	Confidence          float64  `json:"confidence"`
	InsufficientContext bool     `json:"insufficient_context"`
	Cached              bool     `json:"cached"`
	ProcessingTimeMs    int64    `json:"processing_time_ms"`
}
