package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/assessment-api/internal/config"
	pgRepo "github.com/yourusername/assessment-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/assessment-api/internal/repository/redis"
	"github.com/yourusername/assessment-api/internal/service"
	"github.com/yourusername/assessment-api/pkg/database"
	"github.com/yourusername/assessment-api/pkg/logger"
)

// Разовый проход сборщика просроченных попыток (для cron, когда фоновый сборщик в API отключен)
func main() {
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

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), false)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		appLogger.Fatal("Failed to initialize CacheRepo", zap.Error(err))
	}
	assignmentRepo := pgRepo.NewAssignmentRepo(db)
	assessmentRepo := pgRepo.NewAssessmentRepo(db)

	clock := service.SystemClock{}
	assignmentService := service.NewAssignmentService(assignmentRepo, assessmentRepo, cacheRepo, clock, nil, appLogger,
		service.AssignmentOptions{
			DraftGrace:        cfg.Assessment.DraftGrace,
			UnlimitedDraftTTL: cfg.Assessment.UnlimitedDraftTTL,
		})
	sweeper := service.NewExpirySweeper(assignmentRepo, assignmentService, clock, nil, appLogger, cfg.Assessment.SweepBatchSize)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := sweeper.Sweep(ctx)
	if err != nil {
		appLogger.Fatal("Sweep failed", zap.Error(err))
	}
	appLogger.Info("Sweep finished",
		zap.Int("found", result.Found),
		zap.Int("submitted", result.Submitted),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
}
