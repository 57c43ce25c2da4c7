package handler

import (
	"net/http"
	"time"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/repository"
	"bank-reconciliation-backend/internal/services/normalizer"
	service "bank-reconciliation-backend/internal/services/reconciliation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ReconciliationHandler struct {
	service *service.Service
	ledger  *repository.LedgerRepository
	log     *logrus.Entry
}

func NewReconciliationHandler(s *service.Service, ledger *repository.LedgerRepository, log *logrus.Logger) *ReconciliationHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReconciliationHandler{
		service: s,
		ledger:  ledger,
		log:     log.WithField("component", "http"),
	}
}

// respondError maps typed service errors onto HTTP statuses. Unknown errors
// become 500s with a generic message.
func (h *ReconciliationHandler) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	code := apperrors.CodeOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.WithError(err).Error("request failed")
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid " + param,
			"code":  apperrors.CodeValidation,
		})
		return uuid.Nil, false
	}
	return id, true
}

type createSessionRequest struct {
	AccountID   string `json:"accountId" binding:"required"`
	PeriodStart string `json:"periodStart" binding:"required"` // yyyy-mm-dd
	PeriodEnd   string `json:"periodEnd" binding:"required"`
}

func (h *ReconciliationHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "code": apperrors.CodeValidation})
		return
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid accountId", "code": apperrors.CodeValidation})
		return
	}
	start, err := time.Parse("2006-01-02", req.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid periodStart, expected yyyy-mm-dd", "code": apperrors.CodeValidation})
		return
	}
	end, err := time.Parse("2006-01-02", req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid periodEnd, expected yyyy-mm-dd", "code": apperrors.CodeValidation})
		return
	}

	session, err := h.service.CreateSession(c.Request.Context(), accountID, start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (h *ReconciliationHandler) GetSession(c *gin.Context) {
	sessionID, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	view, err := h.service.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": view})
}

type uploadStatementRequest struct {
	Rows []normalizer.RawRow `json:"rows" binding:"required"`
}

func (h *ReconciliationHandler) UploadStatement(c *gin.Context) {
	sessionID, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	var req uploadStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "code": apperrors.CodeValidation})
		return
	}

	res, err := h.service.UploadStatement(c.Request.Context(), sessionID, req.Rows)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ReconciliationHandler) RunAutoMatch(c *gin.Context) {
	sessionID, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	res, err := h.service.RunAutoMatch(c.Request.Context(), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type manualMatchRequest struct {
	TransactionID string `json:"transactionId" binding:"required"`
}

func (h *ReconciliationHandler) ManualMatch(c *gin.Context) {
	sessionID, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}
	var req manualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "code": apperrors.CodeValidation})
		return
	}
	txID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transactionId", "code": apperrors.CodeValidation})
		return
	}

	item, err := h.service.ManualMatch(c.Request.Context(), sessionID, itemID, txID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *ReconciliationHandler) Unmatch(c *gin.Context) {
	sessionID, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}
	item, err := h.service.Unmatch(c.Request.Context(), sessionID, itemID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *ReconciliationHandler) IgnoreItem(c *gin.Context) {
	sessionID, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}
	item, err := h.service.IgnoreItem(c.Request.Context(), sessionID, itemID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

type setBalanceRequest struct {
	Balance string `json:"balance" binding:"required"`
}

func (h *ReconciliationHandler) SetStatementBalance(c *gin.Context) {
	sessionID, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	var req setBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "code": apperrors.CodeValidation})
		return
	}
	balance, err := decimal.NewFromString(req.Balance)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid balance", "code": apperrors.CodeValidation})
		return
	}

	session, err := h.service.SetStatementBalance(c.Request.Context(), sessionID, balance)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

type completeSessionRequest struct {
	AcknowledgeDiscrepancy bool `json:"acknowledgeDiscrepancy"`
}

func (h *ReconciliationHandler) CompleteSession(c *gin.Context) {
	sessionID, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	var req completeSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "code": apperrors.CodeValidation})
			return
		}
	}

	session, err := h.service.CompleteSession(c.Request.Context(), sessionID, req.AcknowledgeDiscrepancy)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *ReconciliationHandler) RollbackSession(c *gin.Context) {
	sessionID, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	session, err := h.service.RollbackSession(c.Request.Context(), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *ReconciliationHandler) ArchiveSession(c *gin.Context) {
	sessionID, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	session, err := h.service.ArchiveSession(c.Request.Context(), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *ReconciliationHandler) ListItems(c *gin.Context) {
	sessionID, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	status := models.ItemStatus(c.Query("status"))

	items, err := h.service.ListItems(c.Request.Context(), sessionID, status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

type createLedgerTransactionRequest struct {
	AccountID   string `json:"accountId" binding:"required"`
	Date        string `json:"date" binding:"required"` // yyyy-mm-dd
	Description string `json:"description"`
	Amount      string `json:"amount" binding:"required"`
}

// CreateLedgerTransaction seeds the local ledger table. In production the
// ledger is an upstream system; this endpoint exists for development and
// integration testing.
func (h *ReconciliationHandler) CreateLedgerTransaction(c *gin.Context) {
	var req createLedgerTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "code": apperrors.CodeValidation})
		return
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid accountId", "code": apperrors.CodeValidation})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected yyyy-mm-dd", "code": apperrors.CodeValidation})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount", "code": apperrors.CodeValidation})
		return
	}

	tx := &models.LedgerTransaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		Date:        date,
		Description: req.Description,
		Amount:      amount,
		CreatedAt:   time.Now(),
	}
	if err := h.ledger.Create(c.Request.Context(), tx); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}
