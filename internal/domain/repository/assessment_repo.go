package repository

import (
	"context"

	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// AssessmentRepository определяет чтение определений тестов.
// Для жизненного цикла назначений тесты доступны только на чтение.
type AssessmentRepository interface {
	GetByID(ctx context.Context, id uint) (*entity.Assessment, error)
}
