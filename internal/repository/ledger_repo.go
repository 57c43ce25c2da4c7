package repository

import (
	"context"
	"errors"
	"time"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerRepository is the gorm-backed ledger/transaction store. In a larger
// deployment this sits behind the same contract as the real ledger service;
// here it reads the local ledger_transactions table.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) DB() *gorm.DB {
	return r.db
}

// FindTransactions returns the account's transactions within the date range,
// inclusive on both ends.
func (r *LedgerRepository) FindTransactions(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]*models.LedgerTransaction, error) {
	var txs []*models.LedgerTransaction
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC, id ASC").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *LedgerRepository) Get(ctx context.Context, id uuid.UUID) (*models.LedgerTransaction, error) {
	var tx models.LedgerTransaction
	err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "transaction not found")
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// MarkMatched records the matched-item reference on a transaction.
func (r *LedgerRepository) MarkMatched(ctx context.Context, txID, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.LedgerTransaction{}).
		Where("id = ?", txID).
		Update("matched_item_id", itemID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "transaction not found")
	}
	return nil
}

// ClearMatched removes the matched-item reference.
func (r *LedgerRepository) ClearMatched(ctx context.Context, txID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.LedgerTransaction{}).
		Where("id = ?", txID).
		Update("matched_item_id", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "transaction not found")
	}
	return nil
}

// Create inserts a ledger transaction. Used by the dev seeding endpoint,
// not by the reconciliation engine.
func (r *LedgerRepository) Create(ctx context.Context, tx *models.LedgerTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}
