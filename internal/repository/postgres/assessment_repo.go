package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// AssessmentRepo реализует repository.AssessmentRepository
type AssessmentRepo struct {
	db *gorm.DB
}

// NewAssessmentRepo создает новый репозиторий тестов
func NewAssessmentRepo(db *gorm.DB) *AssessmentRepo {
	return &AssessmentRepo{db: db}
}

// GetByID возвращает тест вместе со списком вопросов
func (r *AssessmentRepo) GetByID(ctx context.Context, id uint) (*entity.Assessment, error) {
	var assessment entity.Assessment
	err := r.db.WithContext(ctx).First(&assessment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assessment #%d: %w", id, apperrors.ErrNotFound)
		}
		return nil, err
	}
	return &assessment, nil
}
