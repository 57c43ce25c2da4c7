package repository

import (
	"context"
	"errors"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatementItemRepository struct {
	db *gorm.DB
}

func NewStatementItemRepository(db *gorm.DB) *StatementItemRepository {
	return &StatementItemRepository{db: db}
}

func (r *StatementItemRepository) CreateBatch(ctx context.Context, items []*models.StatementItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(items).Error
}

func (r *StatementItemRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.StatementItem, error) {
	var items []*models.StatementItem
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("date ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *StatementItemRepository) Get(ctx context.Context, id uuid.UUID) (*models.StatementItem, error) {
	var item models.StatementItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "item not found")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *StatementItemRepository) Save(ctx context.Context, item *models.StatementItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// ApplyMatches commits a whole match batch in one transaction: either every
// assignment and suggestion annotation persists or none do. An item that
// lost its unmatched status since the batch was computed is skipped rather
// than failing the batch.
func (r *StatementItemRepository) ApplyMatches(ctx context.Context, sessionID uuid.UUID, matches []models.ItemMatch, suggestions []models.ItemSuggestion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range matches {
			res := tx.Model(&models.StatementItem{}).
				Where("id = ? AND session_id = ? AND status = ?", m.ItemID, sessionID, models.ItemUnmatched).
				Updates(map[string]interface{}{
					"status":                 models.ItemMatched,
					"matched_transaction_id": m.TransactionID,
					"match_confidence":       m.Confidence,
					"match_details":          m.Details,
				})
			if res.Error != nil {
				return res.Error
			}
		}
		for _, s := range suggestions {
			res := tx.Model(&models.StatementItem{}).
				Where("id = ? AND session_id = ? AND status = ?", s.ItemID, sessionID, models.ItemUnmatched).
				Update("match_details", s.Details)
			if res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
}

func (r *StatementItemRepository) ClearMatch(ctx context.Context, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.StatementItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"status":                 models.ItemUnmatched,
			"matched_transaction_id": nil,
			"match_confidence":       nil,
			"match_details":          nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "item not found")
	}
	return nil
}

// ClearSessionMatches reverts every matched item in the session in one
// transaction, clearing the ledger references alongside.
func (r *StatementItemRepository) ClearSessionMatches(ctx context.Context, sessionID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.StatementItem{}).
			Where("session_id = ? AND status = ?", sessionID, models.ItemMatched).
			Updates(map[string]interface{}{
				"status":                 models.ItemUnmatched,
				"matched_transaction_id": nil,
				"match_confidence":       nil,
				"match_details":          nil,
			}).Error
	})
}
