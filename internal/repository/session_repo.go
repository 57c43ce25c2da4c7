package repository

import (
	"context"
	"errors"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.ReconciliationSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *SessionRepository) Get(ctx context.Context, id uuid.UUID) (*models.ReconciliationSession, error) {
	var session models.ReconciliationSession
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "session not found")
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *models.ReconciliationSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}
