package repository

import (
	"context"

	"bank-reconciliation-backend/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Record(ctx context.Context, entry *models.MatchAuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
