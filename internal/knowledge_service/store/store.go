package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"Athena/internal/models"
)

// Store wraps the relational database operations of the knowledge service.
type Store struct {
	DB *gorm.DB
}

// NewStore creates a Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// AutoMigrate creates or updates the service's tables.
func (s *Store) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.Tenant{},
		&models.Document{},
		&models.QueryLog{},
		&models.AuditLog{},
	)
}

// GetTenantByAPIKeyHash looks up a tenant by the SHA-256 hash of its API
// key. Returns (nil, nil) when no tenant matches.
func (s *Store) GetTenantByAPIKeyHash(ctx context.Context, hash string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.DB.WithContext(ctx).Where("api_key_hash = ?", hash).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up tenant: %w", err)
	}
	return &tenant, nil
}

// GetTenant looks up a tenant by id. Returns (nil, nil) when no tenant
// matches.
func (s *Store) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.DB.WithContext(ctx).First(&tenant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up tenant: %w", err)
	}
	return &tenant, nil
}

// CreateDocument inserts a document metadata row.
func (s *Store) CreateDocument(ctx context.Context, doc *models.Document) error {
	if err := s.DB.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// ListDocuments returns the tenant's documents, newest first.
func (s *Store) ListDocuments(ctx context.Context, tenantID string) ([]models.Document, error) {
	var docs []models.Document
	err := s.DB.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("uploaded_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// CreateQueryLog appends a query log row.
func (s *Store) CreateQueryLog(ctx context.Context, rec *models.QueryLog) error {
	if err := s.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create query log: %w", err)
	}
	return nil
}

// CreateAuditLog appends an audit log row.
func (s *Store) CreateAuditLog(ctx context.Context, rec *models.AuditLog) error {
	if err := s.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}
