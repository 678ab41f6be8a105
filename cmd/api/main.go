package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/share-engine/internal/config"
	"github.com/SergeiKhy/share-engine/internal/handler"
	"github.com/SergeiKhy/share-engine/internal/middleware"
	"github.com/SergeiKhy/share-engine/internal/repository"
	"github.com/SergeiKhy/share-engine/internal/service"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Подключение к БД (postgres)
	db, err := repository.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Подключение к Redis
	redis, err := repository.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	// Инициализация репозиториев
	linkRepo := repository.NewShareLinkRepository(db)
	eventRepo := repository.NewShareEventRepository(db)
	clickRepo := repository.NewClickRepository(db)
	conversionRepo := repository.NewConversionRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	cacheRepo := repository.NewCacheRepository(redis)

	// Инициализация сервисов
	shareService := service.NewShareService(linkRepo, eventRepo, cacheRepo, cfg.App.BaseURL)
	trackingService := service.NewTrackingService(linkRepo, clickRepo, conversionRepo, cacheRepo, logger)
	rewardService := service.NewRewardService(rewardRepo)
	analyticsService := service.NewAnalyticsService(analyticsRepo, inviteRepo, linkRepo)

	// Инициализация middleware
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})

	adminKeyMiddleware := middleware.RequireAdminKey(cfg.Auth.AdminAPIKeys)
	logger.Info("Admin API key authentication enabled", zap.Int("keys_count", len(cfg.Auth.AdminAPIKeys)))

	// Настройка роутера
	router := handler.NewRouter(
		shareService,
		trackingService,
		rewardService,
		analyticsService,
		rateLimiter,
		adminKeyMiddleware,
		logger,
	)

	// Запуск сервера
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск в горутине
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
