// Package reconciliation owns the session lifecycle: statement upload,
// matching runs, balance gating, completion, and rollback. All mutating
// operations on one session are serialized through a per-session lock;
// operations on different sessions run in parallel.
package reconciliation

import (
	"context"
	"sync"
	"time"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/services/matching"
	"bank-reconciliation-backend/internal/services/normalizer"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SessionStore persists reconciliation sessions.
type SessionStore interface {
	Create(ctx context.Context, session *models.ReconciliationSession) error
	Get(ctx context.Context, id uuid.UUID) (*models.ReconciliationSession, error)
	Save(ctx context.Context, session *models.ReconciliationSession) error
}

// ItemStore persists statement items. ApplyMatches and ClearSessionMatches
// commit their whole batch atomically: either every change persists or none.
type ItemStore interface {
	CreateBatch(ctx context.Context, items []*models.StatementItem) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.StatementItem, error)
	Get(ctx context.Context, id uuid.UUID) (*models.StatementItem, error)
	Save(ctx context.Context, item *models.StatementItem) error
	ApplyMatches(ctx context.Context, sessionID uuid.UUID, matches []models.ItemMatch, suggestions []models.ItemSuggestion) error
	ClearMatch(ctx context.Context, itemID uuid.UUID) error
	ClearSessionMatches(ctx context.Context, sessionID uuid.UUID) error
}

// LedgerStore is the read/write contract of the external ledger store. The
// engine never creates or deletes ledger transactions; it only records or
// clears the matched-item reference.
type LedgerStore interface {
	FindTransactions(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]*models.LedgerTransaction, error)
	Get(ctx context.Context, id uuid.UUID) (*models.LedgerTransaction, error)
	MarkMatched(ctx context.Context, txID, itemID uuid.UUID) error
	ClearMatched(ctx context.Context, txID uuid.UUID) error
}

// AuditStore records match mutations for review.
type AuditStore interface {
	Record(ctx context.Context, entry *models.MatchAuditLog) error
}

type Service struct {
	sessions SessionStore
	items    ItemStore
	ledger   LedgerStore
	audit    AuditStore
	engine   *matching.Engine
	cfg      matching.Config
	log      *logrus.Entry

	locks sync.Map // session id -> *sync.Mutex
}

func NewService(
	sessions SessionStore,
	items ItemStore,
	ledger LedgerStore,
	audit AuditStore,
	cfg matching.Config,
	scorer matching.DescriptionScorer,
	log *logrus.Logger,
) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		sessions: sessions,
		items:    items,
		ledger:   ledger,
		audit:    audit,
		engine:   matching.NewEngine(cfg, scorer),
		cfg:      cfg,
		log:      log.WithField("component", "reconciliation"),
	}
}

// lockSession serializes mutating operations on one session. Returns the
// unlock func.
func (s *Service) lockSession(id uuid.UUID) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// SessionView is a session plus its derived balances, recomputed on read.
type SessionView struct {
	*models.ReconciliationSession
	BookEndingBalance decimal.Decimal  `json:"bookEndingBalance"`
	LiveDifference    *decimal.Decimal `json:"liveDifference"`
}

// UploadResult reports a statement upload: rows that became items and rows
// rejected individually.
type UploadResult struct {
	ItemsCreated int                   `json:"itemsCreated"`
	RowErrors    []normalizer.RowError `json:"rowErrors"`
}

// AutoMatchResult reports one auto-match run. A re-run on an unchanged
// session returns MatchedCount 0 rather than an error.
type AutoMatchResult struct {
	MatchedCount int                     `json:"matchedCount"`
	Suggestions  []models.ItemSuggestion `json:"suggestions"`
}

// CreateSession opens a draft session for an account and period.
func (s *Service) CreateSession(ctx context.Context, accountID uuid.UUID, periodStart, periodEnd time.Time) (*models.ReconciliationSession, error) {
	if accountID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "accountId is required")
	}
	if periodStart.IsZero() || periodEnd.IsZero() {
		return nil, apperrors.New(apperrors.CodeValidation, "periodStart and periodEnd are required")
	}
	if periodEnd.Before(periodStart) {
		return nil, apperrors.New(apperrors.CodeValidation, "periodEnd must not precede periodStart")
	}

	session := &models.ReconciliationSession{
		ID:          uuid.New(),
		AccountID:   accountID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Status:      models.SessionDraft,
		CreatedAt:   time.Now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"account_id": accountID,
	}).Info("session created")
	return session, nil
}

// GetSession returns the session and its recomputed balances.
func (s *Service) GetSession(ctx context.Context, sessionID uuid.UUID) (*SessionView, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionView{
		ReconciliationSession: session,
		BookEndingBalance:     bookEndingBalance(items),
		LiveDifference:        difference(session, items),
	}, nil
}

// UploadStatement normalizes rows into statement items and attaches them to
// the session. Bad rows are rejected individually; the batch partially
// succeeds. A draft session moves to in_progress.
func (s *Service) UploadStatement(ctx context.Context, sessionID uuid.UUID, rows []normalizer.RawRow) (*UploadResult, error) {
	defer s.lockSession(sessionID)()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionDraft && session.Status != models.SessionInProgress {
		return nil, apperrors.Newf(apperrors.CodeInvalidStateTransition,
			"cannot upload a statement into a %s session", session.Status)
	}
	if len(rows) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "no rows supplied")
	}

	items, rowErrs := normalizer.Normalize(rows)
	now := time.Now()
	for _, it := range items {
		it.ID = uuid.New()
		it.SessionID = sessionID
		it.CreatedAt = now
	}
	if len(items) > 0 {
		if err := s.items.CreateBatch(ctx, items); err != nil {
			return nil, err
		}
	}

	if session.Status == models.SessionDraft {
		session.Status = models.SessionInProgress
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, err
		}
	}

	s.log.WithFields(logrus.Fields{
		"session_id":    sessionID,
		"items_created": len(items),
		"row_errors":    len(rowErrs),
	}).Info("statement uploaded")

	return &UploadResult{ItemsCreated: len(items), RowErrors: rowErrs}, nil
}

// RunAutoMatch matches all currently unmatched items against the unmatched
// ledger pool and commits the assignments atomically. Items and
// transactions matched in earlier runs are excluded, so a re-run on an
// unchanged session reports zero matches.
func (s *Service) RunAutoMatch(ctx context.Context, sessionID uuid.UUID) (*AutoMatchResult, error) {
	defer s.lockSession(sessionID)()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, apperrors.Newf(apperrors.CodeInvalidStateTransition,
			"cannot auto-match a %s session", session.Status)
	}

	items, err := s.items.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var unmatched []*models.StatementItem
	claimedTxs := make(map[uuid.UUID]bool)
	for _, it := range items {
		switch {
		case it.Status == models.ItemUnmatched:
			unmatched = append(unmatched, it)
		case it.Status == models.ItemMatched && it.MatchedTransactionID != nil:
			claimedTxs[*it.MatchedTransactionID] = true
		}
	}

	window := matching.NewWindow(session.PeriodStart, session.PeriodEnd, s.cfg.DateSlackDays)
	txs, err := s.ledger.FindTransactions(ctx, session.AccountID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	pool := make([]*models.LedgerTransaction, 0, len(txs))
	for _, tx := range txs {
		if tx.MatchedItemID != nil || claimedTxs[tx.ID] {
			continue
		}
		pool = append(pool, tx)
	}

	res := s.engine.Run(unmatched, pool, window)

	matches := make([]models.ItemMatch, 0, len(res.Assignments))
	for _, a := range res.Assignments {
		matches = append(matches, models.ItemMatch{
			ItemID:        a.Item.ID,
			TransactionID: a.Transaction.ID,
			Confidence:    a.Confidence,
			Details:       a.Breakdown.JSON(),
		})
	}

	if len(matches) > 0 || len(res.Suggestions) > 0 {
		if err := s.items.ApplyMatches(ctx, sessionID, matches, res.Suggestions); err != nil {
			return nil, err
		}
		for _, m := range matches {
			if err := s.ledger.MarkMatched(ctx, m.TransactionID, m.ItemID); err != nil {
				return nil, err
			}
			s.recordAudit(ctx, sessionID, m.ItemID, models.AuditActionAutoMatch, nil, &m.TransactionID, &m.Confidence)
		}
	}

	s.log.WithFields(logrus.Fields{
		"session_id":    sessionID,
		"matched_count": len(matches),
		"suggestions":   len(res.Suggestions),
		"pool_size":     len(pool),
	}).Info("auto-match run finished")

	return &AutoMatchResult{MatchedCount: len(matches), Suggestions: res.Suggestions}, nil
}

// ManualMatch assigns a ledger transaction to an item directly, bypassing
// scoring but still enforcing the one-transaction-per-item invariant.
// Manual matches always carry confidence 100.
func (s *Service) ManualMatch(ctx context.Context, sessionID, itemID, txID uuid.UUID) (*models.StatementItem, error) {
	defer s.lockSession(sessionID)()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, apperrors.Newf(apperrors.CodeInvalidStateTransition,
			"cannot match items in a %s session", session.Status)
	}

	item, err := s.itemInSession(ctx, sessionID, itemID)
	if err != nil {
		return nil, err
	}
	switch item.Status {
	case models.ItemMatched:
		return nil, apperrors.New(apperrors.CodeConflict, "item is already matched")
	case models.ItemIgnored:
		return nil, apperrors.New(apperrors.CodeConflict, "item is ignored")
	}

	tx, err := s.ledger.Get(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.AccountID != session.AccountID {
		return nil, apperrors.New(apperrors.CodeValidation, "transaction belongs to a different account")
	}
	if tx.MatchedItemID != nil {
		return nil, apperrors.New(apperrors.CodeConflict, "transaction is already matched to another item")
	}
	siblings, err := s.items.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, sib := range siblings {
		if sib.Status == models.ItemMatched && sib.MatchedTransactionID != nil && *sib.MatchedTransactionID == txID {
			return nil, apperrors.New(apperrors.CodeConflict, "transaction is already matched to another item")
		}
	}

	confidence := decimal.NewFromInt(100)
	match := models.ItemMatch{
		ItemID:        itemID,
		TransactionID: txID,
		Confidence:    confidence,
		Details:       matching.Breakdown{Pass: "manual", FinalScore: 100, TransactionID: txID.String()}.JSON(),
	}
	if err := s.items.ApplyMatches(ctx, sessionID, []models.ItemMatch{match}, nil); err != nil {
		return nil, err
	}
	if err := s.ledger.MarkMatched(ctx, txID, itemID); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, sessionID, itemID, models.AuditActionManualMatch, nil, &txID, &confidence)

	return s.items.Get(ctx, itemID)
}

// Unmatch reverts a matched item to unmatched and clears its confidence.
func (s *Service) Unmatch(ctx context.Context, sessionID, itemID uuid.UUID) (*models.StatementItem, error) {
	defer s.lockSession(sessionID)()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, apperrors.Newf(apperrors.CodeInvalidStateTransition,
			"cannot unmatch items in a %s session", session.Status)
	}

	item, err := s.itemInSession(ctx, sessionID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != models.ItemMatched {
		return nil, apperrors.New(apperrors.CodeConflict, "item is not matched")
	}
	prevTx := item.MatchedTransactionID

	if err := s.items.ClearMatch(ctx, itemID); err != nil {
		return nil, err
	}
	if prevTx != nil {
		if err := s.ledger.ClearMatched(ctx, *prevTx); err != nil {
			return nil, err
		}
	}
	s.recordAudit(ctx, sessionID, itemID, models.AuditActionUnmatch, prevTx, nil, nil)

	return s.items.Get(ctx, itemID)
}

// IgnoreItem excludes an unmatched item from the completion gate without
// matching it.
func (s *Service) IgnoreItem(ctx context.Context, sessionID, itemID uuid.UUID) (*models.StatementItem, error) {
	defer s.lockSession(sessionID)()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, apperrors.Newf(apperrors.CodeInvalidStateTransition,
			"cannot ignore items in a %s session", session.Status)
	}

	item, err := s.itemInSession(ctx, sessionID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status == models.ItemMatched {
		return nil, apperrors.New(apperrors.CodeConflict, "cannot ignore a matched item; unmatch it first")
	}

	item.Status = models.ItemIgnored
	if err := s.items.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// SetStatementBalance records the statement's ending balance on the session.
func (s *Service) SetStatementBalance(ctx context.Context, sessionID uuid.UUID, balance decimal.Decimal) (*models.ReconciliationSession, error) {
	defer s.lockSession(sessionID)()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, apperrors.Newf(apperrors.CodeInvalidStateTransition,
			"cannot set the statement balance on a %s session", session.Status)
	}

	session.StatementEndingBalance = &balance
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// CompleteSession closes an in_progress session. The session completes only
// if every item is matched or ignored and the absolute difference is below
// epsilon; with acknowledgeDiscrepancy a nonzero difference is accepted and
// the session lands in discrepancy instead.
func (s *Service) CompleteSession(ctx context.Context, sessionID uuid.UUID, acknowledgeDiscrepancy bool) (*models.ReconciliationSession, error) {
	defer s.lockSession(sessionID)()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, apperrors.Newf(apperrors.CodeInvalidStateTransition,
			"cannot complete a %s session", session.Status)
	}

	items, err := s.items.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidStateTransition, "session has no statement items")
	}
	unresolved := 0
	for _, it := range items {
		if it.Status == models.ItemUnmatched {
			unresolved++
		}
	}
	if unresolved > 0 {
		return nil, apperrors.Newf(apperrors.CodeUnresolvedItems,
			"%d statement items are still unmatched", unresolved)
	}
	if session.StatementEndingBalance == nil {
		return nil, apperrors.New(apperrors.CodeValidation, "statement ending balance has not been set")
	}

	diff := session.StatementEndingBalance.Sub(bookEndingBalance(items))
	session.Difference = &diff

	switch {
	case balanced(diff):
		session.Status = models.SessionCompleted
	case acknowledgeDiscrepancy:
		session.Status = models.SessionDiscrepancy
	default:
		return nil, apperrors.Newf(apperrors.CodeBalanceMismatch,
			"statement and book balances differ by %s", diff.String())
	}

	now := time.Now()
	session.CompletedAt = &now
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"status":     session.Status,
		"difference": diff.String(),
	}).Info("session closed")
	return session, nil
}

// RollbackSession reverts every match made in a completed or discrepancy
// session and reopens it as in_progress.
func (s *Service) RollbackSession(ctx context.Context, sessionID uuid.UUID) (*models.ReconciliationSession, error) {
	defer s.lockSession(sessionID)()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionCompleted && session.Status != models.SessionDiscrepancy {
		return nil, apperrors.Newf(apperrors.CodeInvalidStateTransition,
			"cannot roll back a %s session", session.Status)
	}

	items, err := s.items.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.items.ClearSessionMatches(ctx, sessionID); err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.Status == models.ItemMatched && it.MatchedTransactionID != nil {
			if err := s.ledger.ClearMatched(ctx, *it.MatchedTransactionID); err != nil {
				return nil, err
			}
			s.recordAudit(ctx, sessionID, it.ID, models.AuditActionRollback, it.MatchedTransactionID, nil, nil)
		}
	}

	session.Status = models.SessionInProgress
	session.CompletedAt = nil
	session.Difference = nil
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.log.WithField("session_id", sessionID).Info("session rolled back")
	return session, nil
}

// ArchiveSession moves a closed session to archived.
func (s *Service) ArchiveSession(ctx context.Context, sessionID uuid.UUID) (*models.ReconciliationSession, error) {
	defer s.lockSession(sessionID)()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionCompleted && session.Status != models.SessionDiscrepancy {
		return nil, apperrors.Newf(apperrors.CodeInvalidStateTransition,
			"cannot archive a %s session", session.Status)
	}

	session.Status = models.SessionArchived
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ListItems returns the session's items, optionally filtered by status.
func (s *Service) ListItems(ctx context.Context, sessionID uuid.UUID, status models.ItemStatus) ([]*models.StatementItem, error) {
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	if status != "" && !status.IsValid() {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid status filter %q", status)
	}

	items, err := s.items.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return items, nil
	}
	filtered := make([]*models.StatementItem, 0, len(items))
	for _, it := range items {
		if it.Status == status {
			filtered = append(filtered, it)
		}
	}
	return filtered, nil
}

func (s *Service) itemInSession(ctx context.Context, sessionID, itemID uuid.UUID) (*models.StatementItem, error) {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.SessionID != sessionID {
		return nil, apperrors.New(apperrors.CodeNotFound, "item does not belong to this session")
	}
	return item, nil
}

// recordAudit is best-effort: a failed audit write is logged, not fatal.
func (s *Service) recordAudit(ctx context.Context, sessionID, itemID uuid.UUID, action string, prev, next *uuid.UUID, confidence *decimal.Decimal) {
	if s.audit == nil {
		return
	}
	entry := &models.MatchAuditLog{
		ID:                  uuid.New(),
		SessionID:           sessionID,
		ItemID:              itemID,
		Action:              action,
		PreviousTransaction: prev,
		NewTransaction:      next,
		Confidence:          confidence,
		CreatedAt:           time.Now(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("audit write failed")
	}
}
