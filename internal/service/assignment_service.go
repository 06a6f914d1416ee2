package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
	"github.com/yourusername/assessment-api/internal/service/scoring"
	"github.com/yourusername/assessment-api/internal/service/timebox"
	"github.com/yourusername/assessment-api/pkg/monitoring"
)

// AssignmentOptions — настраиваемые параметры сервиса
type AssignmentOptions struct {
	DraftGrace        time.Duration // Запас TTL черновика сверх оставшегося времени
	UnlimitedDraftTTL time.Duration // TTL черновика для теста без лимита
}

// AssignmentView — назначение вместе с тестом и состоянием таймера
type AssignmentView struct {
	Assignment       *entity.Assignment
	Assessment       *entity.Assessment
	RemainingSeconds *int // nil — лимита нет или попытка не идет
	Expired          bool
}

// AssignmentService управляет жизненным циклом назначения:
// pending → in-progress → completed → reviewed.
// Каждый переход читает запись, вычисляет следующее состояние целиком и сохраняет его
// условной записью (status в БД должен совпасть с исходным).
type AssignmentService struct {
	assignmentRepo repository.AssignmentRepository
	assessmentRepo repository.AssessmentRepository
	cacheRepo      repository.CacheRepository
	clock          Clock
	metrics        *monitoring.AssignmentMetrics
	logger         *zap.Logger
	opts           AssignmentOptions
}

// NewAssignmentService создает сервис назначений
func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	assessmentRepo repository.AssessmentRepository,
	cacheRepo repository.CacheRepository,
	clock Clock,
	metrics *monitoring.AssignmentMetrics,
	logger *zap.Logger,
	opts AssignmentOptions,
) *AssignmentService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		assessmentRepo: assessmentRepo,
		cacheRepo:      cacheRepo,
		clock:          clock,
		metrics:        metrics,
		logger:         logger.Named("AssignmentService"),
		opts:           opts,
	}
}

// DraftCacheKey возвращает ключ черновика ответов
func DraftCacheKey(assignmentID uint) string {
	return fmt.Sprintf("assignment:%d:draft", assignmentID)
}

// Assign назначает тест кандидату (статус pending)
func (s *AssignmentService) Assign(ctx context.Context, candidateID, assessmentID uint, scheduledFor *time.Time) (*entity.Assignment, error) {
	if candidateID == 0 {
		return nil, fmt.Errorf("%w: candidate id is required", apperrors.ErrValidation)
	}

	assessment, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if err := assessment.Validate(); err != nil {
		return nil, err
	}

	assignment := &entity.Assignment{
		CandidateID:  candidateID,
		AssessmentID: assessmentID,
		Status:       entity.AssignmentStatusPending,
		ScheduledFor: scheduledFor,
	}
	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrDuplicateAssignment) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
		}
		return nil, err
	}

	s.logger.Info("Тест назначен",
		zap.Uint("assignment_id", assignment.ID),
		zap.Uint("candidate_id", candidateID),
		zap.Uint("assessment_id", assessmentID))
	return assignment, nil
}

// Start начинает попытку: pending → in-progress, фиксирует startedAt.
// Повторный старт отклоняется, чтобы не сбросить таймер.
func (s *AssignmentService) Start(ctx context.Context, assignmentID, candidateID uint) (*entity.Assignment, error) {
	current, err := s.loadOwned(ctx, assignmentID, candidateID)
	if err != nil {
		return nil, err
	}
	if !current.IsPending() {
		s.metrics.Transition(OpStart, monitoring.ResultRejected)
		return nil, s.transitionError(current, OpStart, entity.AssignmentStatusPending)
	}

	now := s.clock.Now()
	next := current.Clone()
	next.Status = entity.AssignmentStatusInProgress
	next.StartedAt = &now

	if err := s.persist(ctx, next, current.Status, OpStart); err != nil {
		return nil, err
	}

	s.logger.Info("Попытка начата",
		zap.Uint("assignment_id", assignmentID),
		zap.Uint("candidate_id", candidateID),
		zap.Time("started_at", now))
	return next, nil
}

// SubmitMCQ сдает ответы MCQ-теста
func (s *AssignmentService) SubmitMCQ(ctx context.Context, assignmentID, candidateID uint, responses []entity.MCQResponse) (*entity.Assignment, error) {
	return s.submit(ctx, assignmentID, candidateID, entity.NewMCQResponses(responses))
}

// SubmitFillInBlanks сдает ответы теста с пропусками
func (s *AssignmentService) SubmitFillInBlanks(ctx context.Context, assignmentID, candidateID uint, responses []entity.FillInBlanksResponse) (*entity.Assignment, error) {
	return s.submit(ctx, assignmentID, candidateID, entity.NewFillInBlanksResponses(responses))
}

// SubmitVideo сдает ссылки на видеоответы. Балл не выставляется до проверки.
func (s *AssignmentService) SubmitVideo(ctx context.Context, assignmentID, candidateID uint, responses []entity.VideoResponse) (*entity.Assignment, error) {
	return s.submit(ctx, assignmentID, candidateID, entity.NewVideoResponses(responses))
}

// Submit сдает ответы любого типа (используется принудительной сдачей)
func (s *AssignmentService) Submit(ctx context.Context, assignmentID, candidateID uint, responses entity.Responses) (*entity.Assignment, error) {
	return s.submit(ctx, assignmentID, candidateID, responses)
}

func (s *AssignmentService) submit(ctx context.Context, assignmentID, candidateID uint, responses entity.Responses) (*entity.Assignment, error) {
	current, err := s.loadOwned(ctx, assignmentID, candidateID)
	if err != nil {
		return nil, err
	}
	if !current.IsInProgress() {
		s.metrics.Transition(OpSubmit, monitoring.ResultRejected)
		return nil, s.transitionError(current, OpSubmit, entity.AssignmentStatusInProgress)
	}

	assessment, err := s.assessmentRepo.GetByID(ctx, current.AssessmentID)
	if err != nil {
		return nil, err
	}
	if err := scoring.Validate(assessment, responses); err != nil {
		s.metrics.Transition(OpSubmit, monitoring.ResultRejected)
		return nil, err
	}

	score, err := scoring.Score(assessment, responses)
	if err != nil {
		s.logger.Error("Не удалось подсчитать балл",
			zap.Uint("assignment_id", assignmentID),
			zap.Uint("assessment_id", assessment.ID),
			zap.Error(err))
		s.metrics.Transition(OpSubmit, monitoring.ResultError)
		return nil, err
	}

	now := s.clock.Now()
	// Поздняя сдача принимается: принудительная сдача по таймеру — забота клиента
	if limit, ok := assessment.TimeLimitSeconds(); ok && timebox.IsExpired(*current.StartedAt, limit, now) {
		s.logger.Warn("Ответы сданы после истечения времени",
			zap.Uint("assignment_id", assignmentID),
			zap.Time("deadline", timebox.Deadline(*current.StartedAt, limit)),
			zap.Time("submitted_at", now))
		s.metrics.LateSubmission(string(assessment.Type))
	}
	for _, questionID := range VideoOverruns(assessment, responses) {
		s.logger.Warn("Видеоответ записан дольше лимита вопроса",
			zap.Uint("assignment_id", assignmentID),
			zap.String("question_id", questionID))
		s.metrics.LateSubmission(LateVideoQuestion)
	}

	next := current.Clone()
	next.Status = entity.AssignmentStatusCompleted
	next.CompletedAt = &now
	next.Responses = responses
	next.Score = score

	if err := s.persist(ctx, next, current.Status, OpSubmit); err != nil {
		return nil, err
	}

	if score != nil {
		s.metrics.Score(string(assessment.Type), *score)
	}
	s.dropDraft(ctx, assignmentID)

	s.logger.Info("Ответы сданы",
		zap.Uint("assignment_id", assignmentID),
		zap.String("type", string(assessment.Type)),
		zap.Any("score", score))
	return next, nil
}

// Review завершает проверку: completed → reviewed. Переданный балл перезаписывает
// автоматический (для видео это единственный способ выставить балл).
func (s *AssignmentService) Review(ctx context.Context, assignmentID, reviewerID uint, feedback string, score *int) (*entity.Assignment, error) {
	if err := validateScore(score); err != nil {
		return nil, err
	}

	current, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !current.IsCompleted() {
		s.metrics.Transition(OpReview, monitoring.ResultRejected)
		return nil, s.transitionError(current, OpReview, entity.AssignmentStatusCompleted)
	}

	next := current.Clone()
	next.Status = entity.AssignmentStatusReviewed
	next.Feedback = &feedback
	next.ReviewedBy = &reviewerID
	if score != nil {
		v := *score
		next.Score = &v
	}

	if err := s.persist(ctx, next, current.Status, OpReview); err != nil {
		return nil, err
	}

	s.logger.Info("Назначение проверено",
		zap.Uint("assignment_id", assignmentID),
		zap.Uint("reviewer_id", reviewerID),
		zap.Bool("score_overridden", score != nil))
	return next, nil
}

// AmendFeedback исправляет отзыв (и при необходимости балл) уже проверенного назначения.
// Статус не меняется; это отдельная операция, а не повторный переход в reviewed.
func (s *AssignmentService) AmendFeedback(ctx context.Context, assignmentID, reviewerID uint, feedback string, score *int) (*entity.Assignment, error) {
	if err := validateScore(score); err != nil {
		return nil, err
	}

	current, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !current.IsReviewed() {
		s.metrics.Transition(OpAmend, monitoring.ResultRejected)
		return nil, s.transitionError(current, OpAmend, entity.AssignmentStatusReviewed)
	}

	next := current.Clone()
	next.Feedback = &feedback
	next.ReviewedBy = &reviewerID
	if score != nil {
		v := *score
		next.Score = &v
	}

	if err := s.persist(ctx, next, current.Status, OpAmend); err != nil {
		return nil, err
	}

	s.logger.Info("Отзыв исправлен",
		zap.Uint("assignment_id", assignmentID),
		zap.Uint("reviewer_id", reviewerID))
	return next, nil
}

// GetForCandidate возвращает назначение кандидата с тестом и оставшимся временем
func (s *AssignmentService) GetForCandidate(ctx context.Context, assignmentID, candidateID uint) (*AssignmentView, error) {
	assignment, err := s.loadOwned(ctx, assignmentID, candidateID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, assignment)
}

// GetAssignment возвращает назначение для администратора (без проверки владельца)
func (s *AssignmentService) GetAssignment(ctx context.Context, assignmentID uint) (*AssignmentView, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, assignment)
}

// TimeRemaining возвращает оставшиеся секунды попытки.
// ok == false, если попытка не идет или время теста не ограничено.
func (s *AssignmentService) TimeRemaining(assignment *entity.Assignment, assessment *entity.Assessment) (seconds int, ok bool) {
	limit, bounded := assessment.TimeLimitSeconds()
	if !bounded || !assignment.IsInProgress() || assignment.StartedAt == nil {
		return 0, false
	}
	return timebox.RemainingSeconds(*assignment.StartedAt, limit, s.clock.Now()), true
}

func (s *AssignmentService) view(ctx context.Context, assignment *entity.Assignment) (*AssignmentView, error) {
	assessment, err := s.assessmentRepo.GetByID(ctx, assignment.AssessmentID)
	if err != nil {
		return nil, err
	}

	v := &AssignmentView{Assignment: assignment, Assessment: assessment}
	if remaining, ok := s.TimeRemaining(assignment, assessment); ok {
		v.RemainingSeconds = &remaining
		v.Expired = remaining == 0
	}
	return v, nil
}

// ListByAssessment возвращает назначения теста для администратора
func (s *AssignmentService) ListByAssessment(ctx context.Context, assessmentID uint, status entity.AssignmentStatus, limit, offset int) ([]entity.Assignment, int64, error) {
	if status != "" && !status.IsValid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, status)
	}
	if _, err := s.assessmentRepo.GetByID(ctx, assessmentID); err != nil {
		return nil, 0, err
	}
	return s.assignmentRepo.List(ctx, repository.AssignmentFilters{AssessmentID: assessmentID, Status: status}, limit, offset)
}

// ListForCandidate возвращает все назначения кандидата
func (s *AssignmentService) ListForCandidate(ctx context.Context, candidateID uint) ([]entity.Assignment, error) {
	assignments, _, err := s.assignmentRepo.List(ctx, repository.AssignmentFilters{CandidateID: candidateID}, 0, 0)
	return assignments, err
}

// SaveDraft сохраняет промежуточные ответы идущей попытки в Redis.
// Черновик живет до дедлайна плюс запас (или UnlimitedDraftTTL для теста без лимита).
func (s *AssignmentService) SaveDraft(ctx context.Context, assignmentID, candidateID uint, responses entity.Responses) error {
	current, err := s.loadOwned(ctx, assignmentID, candidateID)
	if err != nil {
		return err
	}
	if !current.IsInProgress() {
		return s.transitionError(current, OpDraft, entity.AssignmentStatusInProgress)
	}

	assessment, err := s.assessmentRepo.GetByID(ctx, current.AssessmentID)
	if err != nil {
		return err
	}
	if err := scoring.Validate(assessment, responses); err != nil {
		return err
	}

	ttl := s.opts.UnlimitedDraftTTL
	if remaining, ok := s.TimeRemaining(current, assessment); ok {
		ttl = time.Duration(remaining)*time.Second + s.opts.DraftGrace
	}
	if ttl <= 0 {
		ttl = s.opts.DraftGrace
	}

	if err := s.cacheRepo.SetJSON(ctx, DraftCacheKey(assignmentID), responses, ttl); err != nil {
		return fmt.Errorf("save draft for assignment #%d: %w", assignmentID, err)
	}
	return nil
}

// GetDraft возвращает сохраненный черновик кандидата (ErrNotFound, если его нет)
func (s *AssignmentService) GetDraft(ctx context.Context, assignmentID, candidateID uint) (*entity.Responses, error) {
	if _, err := s.loadOwned(ctx, assignmentID, candidateID); err != nil {
		return nil, err
	}
	return s.loadDraft(ctx, assignmentID)
}

func (s *AssignmentService) loadDraft(ctx context.Context, assignmentID uint) (*entity.Responses, error) {
	var draft entity.Responses
	if err := s.cacheRepo.GetJSON(ctx, DraftCacheKey(assignmentID), &draft); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("draft for assignment #%d: %w", assignmentID, apperrors.ErrNotFound)
		}
		return nil, err
	}
	return &draft, nil
}

func (s *AssignmentService) dropDraft(ctx context.Context, assignmentID uint) {
	if err := s.cacheRepo.Delete(ctx, DraftCacheKey(assignmentID)); err != nil {
		s.logger.Warn("Не удалось удалить черновик", zap.Uint("assignment_id", assignmentID), zap.Error(err))
	}
}

// loadOwned читает назначение и проверяет владельца до проверки статуса
func (s *AssignmentService) loadOwned(ctx context.Context, assignmentID, candidateID uint) (*entity.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !assignment.IsOwnedBy(candidateID) {
		s.logger.Warn("Попытка доступа к чужому назначению",
			zap.Uint("assignment_id", assignmentID),
			zap.Uint("candidate_id", candidateID))
		return nil, fmt.Errorf("%w: assignment #%d does not belong to candidate #%d", apperrors.ErrUnauthorized, assignmentID, candidateID)
	}
	return assignment, nil
}

// persist сохраняет следующее состояние условной записью
func (s *AssignmentService) persist(ctx context.Context, next *entity.Assignment, from entity.AssignmentStatus, op string) error {
	// Amend единственная операция, которая сохраняет конечный статус без шага вперед
	amendInPlace := op == OpAmend && from.IsTerminal() && next.Status == from
	if !from.CanTransitionTo(next.Status) && !amendInPlace {
		s.metrics.Transition(op, monitoring.ResultRejected)
		return fmt.Errorf("%w: %s cannot move assignment #%d from %s to %s",
			apperrors.ErrInvalidTransition, op, next.ID, from, next.Status)
	}
	if err := next.CheckInvariants(""); err != nil {
		s.metrics.Transition(op, monitoring.ResultError)
		s.logger.Error("Назначение нарушает инварианты",
			zap.Uint("assignment_id", next.ID),
			zap.String("op", op),
			zap.Error(err))
		return err
	}

	err := s.assignmentRepo.SaveTransition(ctx, next, from)
	if err == nil {
		s.metrics.Transition(op, monitoring.ResultOK)
		return nil
	}

	if errors.Is(err, repository.ErrStatusChanged) {
		// Конкурентный запрос успел раньше; читаем фактический статус для ответа
		s.metrics.Transition(op, monitoring.ResultRejected)
		s.logger.Info("Переход отклонен: статус изменился конкурентно",
			zap.Uint("assignment_id", next.ID),
			zap.String("op", op),
			zap.String("from", string(from)))
		actual := &entity.Assignment{ID: next.ID, Status: next.Status}
		if fresh, errGet := s.assignmentRepo.GetByID(ctx, next.ID); errGet == nil {
			actual = fresh
		}
		return s.transitionError(actual, op, from)
	}

	s.metrics.Transition(op, monitoring.ResultError)
	s.logger.Error("Не удалось сохранить назначение",
		zap.Uint("assignment_id", next.ID),
		zap.String("op", op),
		zap.Error(err))
	return err
}

// LateVideoQuestion — метка метрики поздних сдач для отдельного видеоответа
const LateVideoQuestion = "video_question"

// VideoOverruns возвращает ID видеовопросов, запись которых вышла за лимит вопроса.
// Ответы без обеих отметок времени не проверяются. Перерасход не отклоняет сдачу.
func VideoOverruns(assessment *entity.Assessment, responses entity.Responses) []string {
	if assessment.Type != entity.AssessmentTypeVideo {
		return nil
	}
	limits := make(map[string]int, len(assessment.Video()))
	for _, q := range assessment.Video() {
		limits[q.ID] = q.TimeLimitSec
	}

	var overruns []string
	for _, r := range responses.Video {
		limit, ok := limits[r.QuestionID]
		if !ok || r.RecordingStartedAt == nil || r.RecordedAt == nil {
			continue
		}
		if timebox.VideoQuestionWindow(*r.RecordingStartedAt, limit).Overran(*r.RecordedAt) {
			overruns = append(overruns, r.QuestionID)
		}
	}
	return overruns
}

func (s *AssignmentService) transitionError(current *entity.Assignment, op string, required entity.AssignmentStatus) error {
	return &TransitionError{
		AssignmentID: current.ID,
		Op:           op,
		Current:      current.Status,
		Required:     required,
	}
}

func validateScore(score *int) error {
	if score != nil && (*score < 0 || *score > 100) {
		return fmt.Errorf("%w: score must be between 0 and 100, got %d", apperrors.ErrValidation, *score)
	}
	return nil
}
