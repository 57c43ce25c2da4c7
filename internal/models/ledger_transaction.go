package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerTransaction is a previously recorded internal accounting
// transaction. The reconciliation engine never creates or deletes these;
// it only records or clears the matched-item reference.
type LedgerTransaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID     uuid.UUID       `gorm:"type:uuid;index" json:"accountId"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,4);index" json:"amount"`
	MatchedItemID *uuid.UUID      `gorm:"type:uuid;index" json:"matchedItemId"`
	CreatedAt     time.Time       `json:"createdAt"`
}
