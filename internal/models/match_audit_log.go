package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MatchAuditLog struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID           uuid.UUID `gorm:"type:uuid;index"`
	ItemID              uuid.UUID `gorm:"type:uuid;index"`
	Action              string
	PreviousTransaction *uuid.UUID       `gorm:"type:uuid"`
	NewTransaction      *uuid.UUID       `gorm:"type:uuid"`
	Confidence          *decimal.Decimal `gorm:"type:numeric(5,2)"`
	CreatedAt           time.Time
}

const (
	AuditActionAutoMatch   = "auto_match"
	AuditActionManualMatch = "manual_match"
	AuditActionUnmatch     = "unmatch"
	AuditActionRollback    = "rollback"
)
