package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// AssignmentRepo реализует repository.AssignmentRepository
type AssignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo создает новый репозиторий назначений
func NewAssignmentRepo(db *gorm.DB) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

// Create сохраняет новое назначение в статусе pending.
// Повторное назначение того же теста кандидату отсекается уникальным индексом.
func (r *AssignmentRepo) Create(ctx context.Context, assignment *entity.Assignment) error {
	err := r.db.WithContext(ctx).Create(assignment).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: candidate #%d, assessment #%d", repository.ErrDuplicateAssignment, assignment.CandidateID, assignment.AssessmentID)
		}
		return fmt.Errorf("create assignment failed: %w", err)
	}
	return nil
}

// GetByID возвращает назначение по ID
func (r *AssignmentRepo) GetByID(ctx context.Context, id uint) (*entity.Assignment, error) {
	var assignment entity.Assignment
	err := r.db.WithContext(ctx).First(&assignment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment #%d: %w", id, apperrors.ErrNotFound)
		}
		return nil, err
	}
	return &assignment, nil
}

// SaveTransition записывает все изменяемые поля назначения одним UPDATE
// с условием на исходный статус (read-check-write без гонок).
// - RowsAffected == 0 → статус уже изменен другим запросом (ErrStatusChanged)
// - Другая DB ошибка → возвращается как есть
func (r *AssignmentRepo) SaveTransition(ctx context.Context, assignment *entity.Assignment, fromStatus entity.AssignmentStatus) error {
	updates := map[string]interface{}{
		"status":        assignment.Status,
		"started_at":    assignment.StartedAt,
		"completed_at":  assignment.CompletedAt,
		"responses":     assignment.Responses,
		"score":         assignment.Score,
		"feedback":      assignment.Feedback,
		"reviewed_by":   assignment.ReviewedBy,
		"scheduled_for": assignment.ScheduledFor,
		"updated_at":    time.Now(),
	}

	result := r.db.WithContext(ctx).Model(&entity.Assignment{}).
		Where("id = ? AND status = ?", assignment.ID, fromStatus).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("save assignment #%d failed: %w", assignment.ID, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: assignment #%d is no longer %s", repository.ErrStatusChanged, assignment.ID, fromStatus)
	}

	return nil
}

// List возвращает назначения с фильтрами и total count
func (r *AssignmentRepo) List(ctx context.Context, filters repository.AssignmentFilters, limit, offset int) ([]entity.Assignment, int64, error) {
	var assignments []entity.Assignment
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Assignment{})

	if filters.AssessmentID != 0 {
		query = query.Where("assessment_id = ?", filters.AssessmentID)
	}
	if filters.CandidateID != 0 {
		query = query.Where("candidate_id = ?", filters.CandidateID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	if err := query.Order("id DESC").Find(&assignments).Error; err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

// ListExpiredInProgress ищет начатые попытки автоматически оцениваемых тестов,
// у которых общий лимит времени истек к моменту now
func (r *AssignmentRepo) ListExpiredInProgress(ctx context.Context, now time.Time, after repository.ExpiredCursor, limit int) ([]repository.ExpiredCandidate, error) {
	var rows []repository.ExpiredCandidate

	query := r.db.WithContext(ctx).
		Table("assignments AS a").
		Select("a.id AS assignment_id, a.candidate_id, a.assessment_id, a.started_at, s.time_limit_min").
		Joins("JOIN assessments s ON s.id = a.assessment_id").
		Where("a.status = ?", entity.AssignmentStatusInProgress).
		Where("s.type IN ?", []entity.AssessmentType{entity.AssessmentTypeMCQ, entity.AssessmentTypeFillInBlanks}).
		Where("s.time_limit_min IS NOT NULL AND s.time_limit_min > 0").
		Where("a.started_at + s.time_limit_min * INTERVAL '1 minute' <= ?", now)
	if after != (repository.ExpiredCursor{}) {
		query = query.Where("(a.started_at, a.id) > (?, ?)", after.StartedAt, after.AssignmentID)
	}

	err := query.
		Order("a.started_at, a.id").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list expired assignments failed: %w", err)
	}

	return rows, nil
}
