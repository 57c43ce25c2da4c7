package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ItemStatus is the matching state of a single statement line.
type ItemStatus string

const (
	ItemUnmatched ItemStatus = "unmatched"
	ItemMatched   ItemStatus = "matched"
	ItemIgnored   ItemStatus = "ignored"
)

func (s ItemStatus) IsValid() bool {
	return s == ItemUnmatched || s == ItemMatched || s == ItemIgnored
}

// StatementItem is one line from an externally supplied bank statement,
// attached to the session it was uploaded into. Withdrawals carry negative
// amounts. Items are never deleted once the session leaves draft.
type StatementItem struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID            uuid.UUID        `gorm:"type:uuid;index" json:"sessionId"`
	Date                 time.Time        `json:"date"`
	Description          string           `json:"description"`
	Amount               decimal.Decimal  `gorm:"type:numeric(20,4);index" json:"amount"`
	Reference            string           `json:"reference"`
	Status               ItemStatus       `gorm:"index" json:"status"`
	MatchedTransactionID *uuid.UUID       `gorm:"type:uuid;index" json:"matchedTransactionId"`
	MatchConfidence      *decimal.Decimal `gorm:"type:numeric(5,2)" json:"matchConfidence"`
	MatchDetails         datatypes.JSON   `json:"matchDetails,omitempty"`
	CreatedAt            time.Time        `json:"createdAt"`
}

// ItemMatch is one committed assignment of a ledger transaction to a
// statement item, applied atomically as part of a match batch.
type ItemMatch struct {
	ItemID        uuid.UUID
	TransactionID uuid.UUID
	Confidence    decimal.Decimal
	Details       datatypes.JSON
}

// ItemSuggestion records the top-ranked candidate for an item that stayed
// below the acceptance threshold. It only annotates the item; the item
// remains unmatched.
type ItemSuggestion struct {
	ItemID        uuid.UUID       `json:"itemId"`
	TransactionID uuid.UUID       `json:"transactionId"`
	Score         decimal.Decimal `json:"score"`
	Details       datatypes.JSON  `json:"-"`
}
