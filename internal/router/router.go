package router

import (
	"time"

	"loyalty/config"
	"loyalty/internal/domain"
	"loyalty/internal/handler"
	"loyalty/internal/middleware"
	"loyalty/internal/repository"
	"loyalty/internal/service"
	"loyalty/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	feed := ws.NewHub()

	// Repositories
	customerRepo := repository.NewCustomerRepository(db)
	ledger := repository.NewLedgerRepository(db, cfg.Loyalty.QualifyingBasis, cfg.Loyalty.MaxTxRetries)
	tierRepo := repository.NewTierRepository(db)
	rewardRepo := repository.NewRewardRepository(db, ledger)
	referralRepo := repository.NewReferralRepository(db, ledger)
	settingRepo := repository.NewSettingRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, operatorRepo)
	referralSvc := service.NewReferralService(&cfg.Loyalty, customerRepo, referralRepo, settingRepo, feed)
	loyaltySvc := service.NewLoyaltyService(&cfg.Loyalty, customerRepo, ledger, referralSvc, settingRepo, feed)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	webhookHandler := handler.NewWebhookHandler(cfg, loyaltySvc)
	customerHandler := handler.NewCustomerHandler(customerRepo, ledger)
	rewardHandler := handler.NewRewardHandler(rewardRepo, feed)
	pointsHandler := handler.NewPointsHandler(ledger, feed)
	referralHandler := handler.NewReferralHandler(referralRepo, referralSvc)
	statsHandler := handler.NewStatsHandler(statsRepo, tierRepo)
	settingsHandler := handler.NewSettingsHandler(settingRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)

		api.POST("/webhooks/order-completed", webhookHandler.HandleOrderCompleted)
		api.POST("/webhooks/customer-created", webhookHandler.HandleCustomerCreated)

		api.GET("/tiers", statsHandler.Tiers)
		api.GET("/rewards", rewardHandler.List)
		api.GET("/customers/:id/loyalty", customerHandler.GetLoyalty)
		api.GET("/customers/:id/transactions", customerHandler.GetTransactions)
		api.POST("/customers/:id/redeem", rewardHandler.Redeem)

		admin := api.Group("/admin")
		admin.Use(authMw)
		{
			admin.GET("/referrals", referralHandler.List)
			admin.GET("/stats/tiers", statsHandler.TierDistribution)
			admin.GET("/stats/referrers", statsHandler.TopReferrers)
			admin.GET("/stats/conversion", statsHandler.Conversion)
			admin.GET("/stats/totals", statsHandler.Totals)
			admin.GET("/settings", settingsHandler.List)
			admin.GET("/rewards", rewardHandler.ListAll)

			adminOnly := admin.Group("")
			adminOnly.Use(middleware.RequireRole(domain.RoleAdmin))
			{
				adminOnly.POST("/points/adjust", pointsHandler.Adjust)
				adminOnly.POST("/points/expire", pointsHandler.Expire)
				adminOnly.POST("/rewards", rewardHandler.Create)
				adminOnly.PUT("/rewards/:id", rewardHandler.Update)
				adminOnly.POST("/rewards/:id/toggle", rewardHandler.ToggleActive)
				adminOnly.DELETE("/rewards/:id", rewardHandler.Delete)
				adminOnly.POST("/referrals/:id/complete", referralHandler.MarkCompleted)
				adminOnly.POST("/referrals/:id/disburse", referralHandler.RetryDisbursement)
				adminOnly.PUT("/settings", settingsHandler.Set)
			}
		}
	}

	r.GET("/ws/feed", ws.UpgradeFeed(&cfg.JWT, feed))

	return r
}
