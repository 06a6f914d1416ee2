package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/yourusername/assessment-api/internal/config"
	"github.com/yourusername/assessment-api/internal/handler"
	"github.com/yourusername/assessment-api/internal/middleware"
	pgRepo "github.com/yourusername/assessment-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/assessment-api/internal/repository/redis"
	"github.com/yourusername/assessment-api/internal/service"
	"github.com/yourusername/assessment-api/pkg/auth"
	"github.com/yourusername/assessment-api/pkg/database"
	"github.com/yourusername/assessment-api/pkg/logger"
	"github.com/yourusername/assessment-api/pkg/monitoring"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config from %s: %v", configPath, err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer appLogger.Sync() //nolint:errcheck

	gin.SetMode(cfg.Server.Mode)
	isProduction := gin.Mode() == gin.ReleaseMode

	// PostgreSQL и миграции
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), !isProduction)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.MigrateDB(db, cfg.Database.MigrationsPath, appLogger); err != nil {
		appLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Redis: черновики, кеш тестов, rate limit
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	appLogger.Info("Successfully connected to Redis")

	// Метрики
	monitoring.Init()
	metrics := monitoring.NewAssignmentMetrics(prometheus.DefaultRegisterer)

	// Репозитории
	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		appLogger.Fatal("Failed to initialize CacheRepo", zap.Error(err))
	}
	assignmentRepo := pgRepo.NewAssignmentRepo(db)
	assessmentRepo := redisRepo.NewCachedAssessmentRepo(
		pgRepo.NewAssessmentRepo(db), cacheRepo, cfg.Assessment.CacheTTL, appLogger)

	// Сервисы
	clock := service.SystemClock{}
	assignmentService := service.NewAssignmentService(assignmentRepo, assessmentRepo, cacheRepo, clock, metrics, appLogger,
		service.AssignmentOptions{
			DraftGrace:        cfg.Assessment.DraftGrace,
			UnlimitedDraftTTL: cfg.Assessment.UnlimitedDraftTTL,
		})
	reportService := service.NewReportService(assignmentRepo, assessmentRepo, appLogger)
	sweeper := service.NewExpirySweeper(assignmentRepo, assignmentService, clock, metrics, appLogger, cfg.Assessment.SweepBatchSize)

	// Контекст фоновых задач
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Assessment.SweepInterval > 0 {
		go sweeper.Run(ctx, cfg.Assessment.SweepInterval)
	} else {
		appLogger.Info("Expiry sweeper disabled")
	}

	// Обработчики и middleware
	if err := handler.RegisterValidators(); err != nil {
		appLogger.Fatal("Failed to register validators", zap.Error(err))
	}
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		appLogger.Fatal("Failed to initialize JWTService", zap.Error(err))
	}
	authMiddleware := middleware.NewAuthMiddleware(jwtService, appLogger)
	rateLimiter := middleware.NewRateLimiter(redisClient, appLogger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, appLogger)
	adminHandler := handler.NewAdminHandler(assignmentService, reportService, clock, appLogger)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(appLogger), monitoring.MetricsMiddleware())

	// В production не доверяем прокси-заголовкам (защита от IP spoofing)
	trustedProxies := []string{"127.0.0.1", "::1"}
	if isProduction {
		trustedProxies = nil
	}
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		appLogger.Warn("Failed to set trusted proxies", zap.Error(err))
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", monitoring.PrometheusHandler())

	limit := rateLimiter.Limit(middleware.AssignmentRateLimitConfig(cfg.Assessment.RateLimitRequests, cfg.Assessment.RateLimitWindow))

	api := router.Group("/api")
	api.Use(authMiddleware.RequireAuth())
	{
		// Кандидат
		assignments := api.Group("/assignments")
		{
			assignments.GET("", assignmentHandler.ListMine)

			withID := assignments.Group("/:id")
			withID.Use(middleware.ExtractUintParam("id", "assignmentID"))
			{
				withID.GET("", assignmentHandler.Get)
				withID.POST("/start", limit, assignmentHandler.Start)
				withID.PUT("/draft", limit, assignmentHandler.SaveDraft)
				withID.GET("/draft", assignmentHandler.GetDraft)
				withID.POST("/submit/mcq", limit, assignmentHandler.SubmitMCQ)
				withID.POST("/submit/fill-in-blanks", limit, assignmentHandler.SubmitFillInBlanks)
				withID.POST("/submit/video", limit, assignmentHandler.SubmitVideo)
			}
		}

		// Администратор
		admin := api.Group("/admin")
		admin.Use(authMiddleware.AdminOnly())
		{
			admin.POST("/assignments", adminHandler.Assign)

			adminAssignment := admin.Group("/assignments/:id")
			adminAssignment.Use(middleware.ExtractUintParam("id", "assignmentID"))
			{
				adminAssignment.GET("", adminHandler.GetAssignment)
				adminAssignment.POST("/review", adminHandler.Review)
				adminAssignment.PUT("/feedback", adminHandler.AmendFeedback)
			}

			adminAssessment := admin.Group("/assessments/:id")
			adminAssessment.Use(middleware.ExtractUintParam("id", "assessmentID"))
			{
				adminAssessment.GET("/assignments", adminHandler.ListByAssessment)
				adminAssessment.GET("/results/export", adminHandler.ExportResults)
			}
		}
	}

	// HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		appLogger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	// Останавливаем сборщик до закрытия соединений
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		appLogger.Warn("Error closing Redis client", zap.Error(err))
	}

	appLogger.Info("Server exited properly")
}
