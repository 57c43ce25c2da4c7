package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bank-reconciliation-backend/internal/config"
	handler "bank-reconciliation-backend/internal/handlers"
	"bank-reconciliation-backend/internal/repository"
	"bank-reconciliation-backend/internal/services/matching"
	service "bank-reconciliation-backend/internal/services/reconciliation"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, log *logrus.Logger) {
	sessionRepo := repository.NewSessionRepository(db)
	itemRepo := repository.NewStatementItemRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	matchCfg := matching.DefaultConfig()
	matchCfg.DateSlackDays = cfg.DateSlackDays
	matchCfg.AcceptThreshold = cfg.AcceptThreshold

	reconService := service.NewService(
		sessionRepo,
		itemRepo,
		ledgerRepo,
		auditRepo,
		matchCfg,
		nil, // default Jaccard description scorer
		log,
	)

	reconHandler := handler.NewReconciliationHandler(reconService, ledgerRepo, log)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Reconciliation session routes
	sessions := api.Group("/reconciliation/sessions")
	sessions.POST("", reconHandler.CreateSession)
	sessions.GET("/:sessionId", reconHandler.GetSession)
	sessions.POST("/:sessionId/statement", reconHandler.UploadStatement)
	sessions.POST("/:sessionId/auto-match", reconHandler.RunAutoMatch)
	sessions.PUT("/:sessionId/balance", reconHandler.SetStatementBalance)
	sessions.POST("/:sessionId/complete", reconHandler.CompleteSession)
	sessions.POST("/:sessionId/rollback", reconHandler.RollbackSession)
	sessions.POST("/:sessionId/archive", reconHandler.ArchiveSession)
	sessions.GET("/:sessionId/items", reconHandler.ListItems)

	// Item-level routes
	sessions.POST("/:sessionId/items/:itemId/match", reconHandler.ManualMatch)
	sessions.POST("/:sessionId/items/:itemId/unmatch", reconHandler.Unmatch)
	sessions.POST("/:sessionId/items/:itemId/ignore", reconHandler.IgnoreItem)

	// Ledger routes (dev seeding; the ledger is an upstream system in prod)
	ledger := api.Group("/ledger")
	{
		ledger.POST("/transactions", reconHandler.CreateLedgerTransaction)
	}
}
