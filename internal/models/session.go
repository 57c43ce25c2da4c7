package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionStatus is the lifecycle state of a reconciliation session.
type SessionStatus string

const (
	SessionDraft       SessionStatus = "draft"
	SessionInProgress  SessionStatus = "in_progress"
	SessionCompleted   SessionStatus = "completed"
	SessionDiscrepancy SessionStatus = "discrepancy"
	SessionArchived    SessionStatus = "archived"
)

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionDraft, SessionInProgress, SessionCompleted, SessionDiscrepancy, SessionArchived:
		return true
	}
	return false
}

// Terminal reports whether the session can only be reopened via rollback.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionDiscrepancy || s == SessionArchived
}

// ReconciliationSession is one reconciliation attempt for an account over a
// date period. Mutated only through the session service's transitions.
type ReconciliationSession struct {
	ID                     uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID              uuid.UUID        `gorm:"type:uuid;index" json:"accountId"`
	PeriodStart            time.Time        `json:"periodStart"`
	PeriodEnd              time.Time        `json:"periodEnd"`
	StatementEndingBalance *decimal.Decimal `gorm:"type:numeric(20,4)" json:"statementEndingBalance"`
	Difference             *decimal.Decimal `gorm:"type:numeric(20,4)" json:"difference"`
	Status                 SessionStatus    `gorm:"index" json:"status"`
	CreatedAt              time.Time        `json:"createdAt"`
	CompletedAt            *time.Time       `json:"completedAt"`
}
