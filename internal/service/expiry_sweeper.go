package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
	"github.com/yourusername/assessment-api/pkg/monitoring"
)

// SweepResult — итог одного прохода
type SweepResult struct {
	Found     int
	Submitted int
	Skipped   int // уже сданы конкурентно
	Failed    int
}

// ExpirySweeper принудительно сдает попытки MCQ/fill-in-blanks, время которых истекло,
// а клиент не успел их сдать. Сдается сохраненный черновик или пустой набор ответов.
type ExpirySweeper struct {
	assignmentRepo repository.AssignmentRepository
	assignments    *AssignmentService
	clock          Clock
	metrics        *monitoring.AssignmentMetrics
	logger         *zap.Logger
	batchSize      int
}

// NewExpirySweeper создает сборщик просроченных попыток
func NewExpirySweeper(
	assignmentRepo repository.AssignmentRepository,
	assignments *AssignmentService,
	clock Clock,
	metrics *monitoring.AssignmentMetrics,
	logger *zap.Logger,
	batchSize int,
) *ExpirySweeper {
	if clock == nil {
		clock = SystemClock{}
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ExpirySweeper{
		assignmentRepo: assignmentRepo,
		assignments:    assignments,
		clock:          clock,
		metrics:        metrics,
		logger:         logger.Named("ExpirySweeper"),
		batchSize:      batchSize,
	}
}

// Sweep выполняет один проход. Выборка идет страницами по курсору (started_at, id),
// поэтому строка, которую не удалось сдать, не блокирует остальные.
func (w *ExpirySweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	now := w.clock.Now()
	var cursor repository.ExpiredCursor
	for {
		page, err := w.assignmentRepo.ListExpiredInProgress(ctx, now, cursor, w.batchSize)
		if err != nil {
			return res, err
		}
		res.Found += len(page)

		for _, c := range page {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			w.submitExpired(ctx, c, &res)
		}

		if len(page) < w.batchSize {
			return res, nil
		}
		cursor = page[len(page)-1].After()
	}
}

func (w *ExpirySweeper) submitExpired(ctx context.Context, c repository.ExpiredCandidate, res *SweepResult) {
	responses, err := w.draftOrEmpty(ctx, c)
	if err != nil {
		w.logger.Warn("Черновик не прочитан, сдаем пустые ответы",
			zap.Uint("assignment_id", c.AssignmentID), zap.Error(err))
	}

	_, err = w.assignments.Submit(ctx, c.AssignmentID, c.CandidateID, responses)
	switch {
	case err == nil:
		res.Submitted++
		w.metrics.SweeperSubmitted()
		w.logger.Info("Попытка сдана принудительно",
			zap.Uint("assignment_id", c.AssignmentID),
			zap.Uint("candidate_id", c.CandidateID),
			zap.Time("started_at", c.StartedAt),
			zap.Int("time_limit_min", c.TimeLimitMin))
	case errors.Is(err, apperrors.ErrInvalidTransition):
		res.Skipped++
	default:
		res.Failed++
		w.logger.Error("Не удалось сдать просроченную попытку",
			zap.Uint("assignment_id", c.AssignmentID), zap.Error(err))
	}
}

// Run запускает Sweep по тикеру до отмены ctx
func (w *ExpirySweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("Сборщик просроченных попыток запущен", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Сборщик просроченных попыток остановлен")
			return
		case <-ticker.C:
			if !w.acquireTick(ctx, interval) {
				continue
			}
			res, err := w.Sweep(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("Ошибка прохода сборщика", zap.Error(err))
				continue
			}
			if res.Found > 0 {
				w.logger.Info("Проход сборщика завершен",
					zap.Int("found", res.Found),
					zap.Int("submitted", res.Submitted),
					zap.Int("skipped", res.Skipped),
					zap.Int("failed", res.Failed))
			}
		}
	}
}

// SweeperLockKey — ключ блокировки прохода, общий для всех реплик API
const SweeperLockKey = "assignment:sweeper:lock"

// acquireTick берет блокировку на один интервал, чтобы при нескольких репликах
// проход выполняла одна. Если Redis недоступен, проход выполняется: повторная
// сдача отсекается условной записью.
func (w *ExpirySweeper) acquireTick(ctx context.Context, interval time.Duration) bool {
	ok, err := w.assignments.cacheRepo.SetNX(ctx, SweeperLockKey, w.clock.Now().Unix(), interval)
	if err != nil {
		w.logger.Warn("Не удалось взять блокировку сборщика", zap.Error(err))
		return true
	}
	if !ok {
		w.logger.Debug("Проход выполняет другая реплика")
	}
	return ok
}

func (w *ExpirySweeper) draftOrEmpty(ctx context.Context, c repository.ExpiredCandidate) (entity.Responses, error) {
	assessment, err := w.assignments.assessmentRepo.GetByID(ctx, c.AssessmentID)
	if err != nil {
		return entity.Responses{}, err
	}
	empty := entity.Responses{Type: assessment.Type}

	draft, err := w.assignments.loadDraft(ctx, c.AssignmentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return empty, nil
		}
		return empty, err
	}
	if draft.Type != assessment.Type {
		return empty, nil
	}
	return *draft, nil
}
