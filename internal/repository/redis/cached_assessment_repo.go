package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// CachedAssessmentRepo кеширует определения тестов в Redis поверх основного репозитория.
// Тесты неизменяемы для жизненного цикла назначений, поэтому кеш не инвалидируется,
// а живет ttl.
type CachedAssessmentRepo struct {
	next   repository.AssessmentRepository
	cache  repository.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedAssessmentRepo создает кеширующий репозиторий тестов
func NewCachedAssessmentRepo(next repository.AssessmentRepository, cache repository.CacheRepository, ttl time.Duration, logger *zap.Logger) *CachedAssessmentRepo {
	return &CachedAssessmentRepo{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.Named("AssessmentCache"),
	}
}

// AssessmentCacheKey возвращает ключ кеша для теста
func AssessmentCacheKey(id uint) string {
	return fmt.Sprintf("assessment:%d", id)
}

// GetByID читает тест из кеша, при промахе — из основного репозитория
func (r *CachedAssessmentRepo) GetByID(ctx context.Context, id uint) (*entity.Assessment, error) {
	key := AssessmentCacheKey(id)

	var cached entity.Assessment
	err := r.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		// Ошибка Redis не критична: читаем из БД
		r.logger.Warn("Не удалось прочитать тест из кеша", zap.Uint("assessment_id", id), zap.Error(err))
	}

	assessment, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if errCache := r.cache.SetJSON(ctx, key, assessment, r.ttl); errCache != nil {
		r.logger.Warn("Не удалось сохранить тест в кеш", zap.Uint("assessment_id", id), zap.Error(errCache))
	}
	return assessment, nil
}
