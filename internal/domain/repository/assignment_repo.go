package repository

import (
	"context"
	"time"

	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// AssignmentFilters определяет фильтры для списка назначений
type AssignmentFilters struct {
	AssessmentID uint                    // Фильтр по тесту (0 — без фильтра)
	CandidateID  uint                    // Фильтр по кандидату (0 — без фильтра)
	Status       entity.AssignmentStatus // Фильтр по статусу (пусто — все)
}

// ExpiredCandidate — назначение in-progress с лимитом времени, для поиска просроченных попыток
type ExpiredCandidate struct {
	AssignmentID uint
	CandidateID  uint
	AssessmentID uint
	StartedAt    time.Time
	TimeLimitMin int
}

// ExpiredCursor — позиция keyset-пагинации по (started_at, id). Нулевое значение — начало выборки.
type ExpiredCursor struct {
	StartedAt    time.Time
	AssignmentID uint
}

// After возвращает курсор, указывающий за строку c
func (c ExpiredCandidate) After() ExpiredCursor {
	return ExpiredCursor{StartedAt: c.StartedAt, AssignmentID: c.AssignmentID}
}

// AssignmentRepository определяет методы для работы с назначениями
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *entity.Assignment) error
	GetByID(ctx context.Context, id uint) (*entity.Assignment, error)
	// SaveTransition атомарно сохраняет запись целиком, только если статус в БД
	// все еще равен fromStatus. Иначе возвращает ErrStatusChanged.
	SaveTransition(ctx context.Context, assignment *entity.Assignment, fromStatus entity.AssignmentStatus) error
	List(ctx context.Context, filters AssignmentFilters, limit, offset int) ([]entity.Assignment, int64, error)
	// ListExpiredInProgress возвращает начатые назначения тестов с общим лимитом времени,
	// дедлайн которых наступил не позже now. Строки упорядочены по (started_at, id)
	// и начинаются строго после after.
	ListExpiredInProgress(ctx context.Context, now time.Time, after ExpiredCursor, limit int) ([]ExpiredCandidate, error)
}
