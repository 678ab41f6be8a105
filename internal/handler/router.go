package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SergeiKhy/share-engine/internal/middleware"
	"github.com/SergeiKhy/share-engine/internal/service"
)

func NewRouter(
	shareService service.ShareService,
	trackingService service.TrackingService,
	rewardService service.RewardService,
	analyticsService service.AnalyticsService,
	rateLimiter *middleware.RateLimiter,
	adminKeyMiddleware gin.HandlerFunc,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.Default()

	// Middleware для логгирования
	router.Use(func(c *gin.Context) {
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		)
		c.Next()
	})

	shareHandler := NewShareHandler(shareService, rewardService, analyticsService, logger)
	trackingHandler := NewTrackingHandler(trackingService, logger)
	analyticsHandler := NewAnalyticsHandler(analyticsService, logger)

	api := router.Group("/api")
	{
		api.GET("/health", HealthCheck)

		// Пользовательские эндпоинты: личность приходит от шлюза
		share := api.Group("/share")
		share.Use(middleware.RequireUser())
		{
			share.POST("/create", shareHandler.CreateShareLink)
			share.POST("/event", shareHandler.RecordShareEvent)
			share.GET("/my-links", shareHandler.GetMyLinks)
			share.GET("/stats", shareHandler.GetMyStats)
			share.GET("/leaderboard", shareHandler.GetLeaderboard)
			share.GET("/rewards", shareHandler.GetMyRewards)
			share.POST("/rewards/:id/claim", shareHandler.ClaimReward)
		}

		// Публичные эндпоинты трекинга: без аутентификации, с rate limiting
		public := api.Group("/public/share")
		public.Use(rateLimiter.Middleware())
		{
			public.GET("/:shareCode", trackingHandler.TrackClick)
			public.GET("/:shareCode/info", trackingHandler.GetShareInfo)
		}

		// Админская аналитика за API ключом
		manage := api.Group("/manage/share-analytics")
		manage.Use(adminKeyMiddleware)
		{
			manage.GET("/overview", analyticsHandler.GetOverview)
			manage.GET("/funnel", analyticsHandler.GetConversionFunnel)
			manage.GET("/geo", analyticsHandler.GetGeoDistribution)
			manage.GET("/devices", analyticsHandler.GetDeviceDistribution)
			manage.GET("/trends", analyticsHandler.GetTimeTrends)
			manage.GET("/leaderboard", analyticsHandler.GetLeaderboard)
			manage.GET("/viral-tree/:userId", analyticsHandler.GetViralTree)
			manage.GET("/k-factor/:userId", analyticsHandler.GetKFactor)
			manage.GET("/ab-test/:testId", analyticsHandler.GetABTestResults)
			manage.GET("/links", analyticsHandler.GetShareLinks)
		}
	}

	return router
}

// HealthCheck godoc
// @Summary Health check
// @Produce json
// @Success 200 {object} Response
// @Router /api/health [get]
func HealthCheck(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
