package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"Athena/internal/knowledge/schema"
	"Athena/internal/knowledge_service/service"
	"Athena/pkg/logger"
)

// Handler holds the HTTP-facing dependencies.
type Handler struct {
	svc *service.Service
	log *logger.Logger
}

// NewHandler creates the Handler.
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// QueryRequest is the body of POST /api/v1/query.
type QueryRequest struct {
	Question string `json:"question" binding:"required,min=1,max=1000"`
}

// UploadDocument handles POST /api/v1/documents. The file arrives as the
// "file" part of a multipart form.
func (h *Handler) UploadDocument(c *gin.Context) {
	tenantID := c.GetString(ContextTenantID)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file upload"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file upload"})
		return
	}

	doc, err := h.svc.UploadDocument(c.Request.Context(), tenantID, fileHeader.Filename, data)
	if err != nil {
		h.respondError(c, tenantID, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"document_id": doc.ID,
		"name":        doc.Name,
		"chunks":      doc.ChunkCount,
		"uploaded_at": doc.UploadedAt,
	})
}

// Query handles POST /api/v1/query.
func (h *Handler) Query(c *gin.Context) {
	tenantID := c.GetString(ContextTenantID)

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question must be between 1 and 1000 characters"})
		return
	}

	result, err := h.svc.Query(c.Request.Context(), tenantID, req.Question)
	if err != nil {
		h.respondError(c, tenantID, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListDocuments handles GET /api/v1/documents.
func (h *Handler) ListDocuments(c *gin.Context) {
	tenantID := c.GetString(ContextTenantID)

	docs, err := h.svc.ListDocuments(c.Request.Context(), tenantID)
	if err != nil {
		h.respondError(c, tenantID, err)
		return
	}

	out := make([]gin.H, 0, len(docs))
	for _, d := range docs {
		out = append(out, gin.H{
			"document_id": d.ID,
			"name":        d.Name,
			"chunks":      d.ChunkCount,
			"uploaded_at": d.UploadedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"documents": out})
}

// Health handles GET /api/v1/health. It is reachable without credentials.
func (h *Handler) Health(c *gin.Context) {
	overall, services := h.svc.Health(c.Request.Context())
	status := http.StatusOK
	if overall != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": overall, "services": services})
}

// respondError maps pipeline errors to HTTP statuses. Security violations
// deliberately return an opaque message so nothing about another tenant's
// data leaks to the caller.
func (h *Handler) respondError(c *gin.Context, tenantID string, err error) {
	switch {
	case errors.Is(err, schema.ErrThrottled):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later"})
	case schema.IsSecurityViolation(err):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Security violation detected"})
	default:
		h.log.WithTenant(tenantID).WithField("error", err.Error()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
