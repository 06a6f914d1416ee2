package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// ============================================================================
// In-memory реализации репозиториев для проверки свойств жизненного цикла
// ============================================================================

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(now time.Time) *fixedClock { return &fixedClock{now: now} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memAssignmentRepo хранит копии записей и повторяет условную запись по статусу
type memAssignmentRepo struct {
	mu          sync.Mutex
	nextID      uint
	items       map[uint]*entity.Assignment
	assessments *memAssessmentRepo
}

func newMemAssignmentRepo(assessments *memAssessmentRepo) *memAssignmentRepo {
	return &memAssignmentRepo{items: make(map[uint]*entity.Assignment), assessments: assessments}
}

func (r *memAssignmentRepo) Create(_ context.Context, a *entity.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.CandidateID == a.CandidateID && existing.AssessmentID == a.AssessmentID {
			return repository.ErrDuplicateAssignment
		}
	}
	r.nextID++
	a.ID = r.nextID
	r.items[a.ID] = a.Clone()
	return nil
}

func (r *memAssignmentRepo) GetByID(_ context.Context, id uint) (*entity.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("assignment #%d: %w", id, apperrors.ErrNotFound)
	}
	return a.Clone(), nil
}

func (r *memAssignmentRepo) SaveTransition(_ context.Context, a *entity.Assignment, from entity.AssignmentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[a.ID]
	if !ok || stored.Status != from {
		return repository.ErrStatusChanged
	}
	r.items[a.ID] = a.Clone()
	return nil
}

func (r *memAssignmentRepo) List(_ context.Context, f repository.AssignmentFilters, limit, offset int) ([]entity.Assignment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Assignment
	for _, a := range r.items {
		if f.AssessmentID != 0 && a.AssessmentID != f.AssessmentID {
			continue
		}
		if f.CandidateID != 0 && a.CandidateID != f.CandidateID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, *a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	if limit > 0 {
		if offset >= len(out) {
			return nil, total, nil
		}
		end := offset + limit
		if end > len(out) {
			end = len(out)
		}
		out = out[offset:end]
	}
	return out, total, nil
}

func (r *memAssignmentRepo) ListExpiredInProgress(_ context.Context, now time.Time, after repository.ExpiredCursor, limit int) ([]repository.ExpiredCandidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.ExpiredCandidate
	for _, a := range r.items {
		if !a.IsInProgress() {
			continue
		}
		s, ok := r.assessments.items[a.AssessmentID]
		if !ok || !s.Type.IsAutoScored() || s.TimeLimitMin == nil || *s.TimeLimitMin <= 0 {
			continue
		}
		deadline := a.StartedAt.Add(time.Duration(*s.TimeLimitMin) * time.Minute)
		if deadline.After(now) {
			continue
		}
		if after != (repository.ExpiredCursor{}) && !cursorBefore(after, *a.StartedAt, a.ID) {
			continue
		}
		out = append(out, repository.ExpiredCandidate{
			AssignmentID: a.ID,
			CandidateID:  a.CandidateID,
			AssessmentID: a.AssessmentID,
			StartedAt:    *a.StartedAt,
			TimeLimitMin: *s.TimeLimitMin,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return cursorBefore(out[i].After(), out[j].StartedAt, out[j].AssignmentID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// cursorBefore сравнивает пары (started_at, id) так же, как row comparison в Postgres
func cursorBefore(c repository.ExpiredCursor, startedAt time.Time, id uint) bool {
	if !c.StartedAt.Equal(startedAt) {
		return c.StartedAt.Before(startedAt)
	}
	return c.AssignmentID < id
}

func (r *memAssignmentRepo) put(a *entity.Assignment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID > r.nextID {
		r.nextID = a.ID
	}
	r.items[a.ID] = a.Clone()
}

type memAssessmentRepo struct {
	items map[uint]*entity.Assessment
}

func newMemAssessmentRepo(items ...*entity.Assessment) *memAssessmentRepo {
	r := &memAssessmentRepo{items: make(map[uint]*entity.Assessment)}
	for _, a := range items {
		r.items[a.ID] = a
	}
	return r
}

func (r *memAssessmentRepo) GetByID(_ context.Context, id uint) (*entity.Assessment, error) {
	a, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("assessment #%d: %w", id, apperrors.ErrNotFound)
	}
	return a, nil
}

// memCache — кеш на map с сериализацией через JSON, как в Redis
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte), ttl: make(map[string]time.Duration)}
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	delete(c.ttl, key)
	return nil
}

func (c *memCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.ttl[key] = expiration
	return nil
}

func (c *memCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return apperrors.ErrNotFound
	}
	return json.Unmarshal(v, dest)
}

func (c *memCache) SetNX(_ context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = []byte(fmt.Sprint(value))
	c.ttl[key] = expiration
	return true, nil
}

// ============================================================================
// Моки (testify) для проверки путей ошибок
// ============================================================================

// MockAssignmentRepository реализует repository.AssignmentRepository
type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) Create(ctx context.Context, a *entity.Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAssignmentRepository) GetByID(ctx context.Context, id uint) (*entity.Assignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) SaveTransition(ctx context.Context, a *entity.Assignment, from entity.AssignmentStatus) error {
	args := m.Called(ctx, a, from)
	return args.Error(0)
}

func (m *MockAssignmentRepository) List(ctx context.Context, f repository.AssignmentFilters, limit, offset int) ([]entity.Assignment, int64, error) {
	args := m.Called(ctx, f, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Assignment), args.Get(1).(int64), args.Error(2)
}

func (m *MockAssignmentRepository) ListExpiredInProgress(ctx context.Context, now time.Time, after repository.ExpiredCursor, limit int) ([]repository.ExpiredCandidate, error) {
	args := m.Called(ctx, now, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ExpiredCandidate), args.Error(1)
}

// ============================================================================
// Фикстуры
// ============================================================================

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func mcqAssessment(id uint, timeLimitMin *int) *entity.Assessment {
	return entity.NewMCQAssessment(id, "Сети", timeLimitMin, []entity.MCQQuestion{
		{ID: "q1", Options: []entity.Option{{ID: "a"}, {ID: "b"}}, CorrectOptionID: "a"},
		{ID: "q2", Options: []entity.Option{{ID: "a"}, {ID: "b"}}, CorrectOptionID: "b"},
		{ID: "q3", Options: []entity.Option{{ID: "a"}, {ID: "b"}}, CorrectOptionID: "a"},
		{ID: "q4", Options: []entity.Option{{ID: "a"}, {ID: "b"}}, CorrectOptionID: "b"},
	})
}

func fibAssessment(id uint, timeLimitMin *int) *entity.Assessment {
	return entity.NewFillInBlanksAssessment(id, "Протоколы", timeLimitMin, []entity.FillInBlanksQuestion{
		{ID: "f1", Text: "[[b1]] и [[b2]]", Blanks: []entity.Blank{{ID: "b1", CorrectAnswer: "TCP/IP"}, {ID: "b2", CorrectAnswer: "OSI"}}},
		{ID: "f2", Text: "[[b3]] и [[b4]]", Blanks: []entity.Blank{{ID: "b3", CorrectAnswer: "443"}, {ID: "b4", CorrectAnswer: "HTTPS"}}},
	})
}

func videoAssessment(id uint) *entity.Assessment {
	return entity.NewVideoAssessment(id, "О себе", []entity.VideoQuestion{
		{ID: "v1", Text: "Расскажите о себе", TimeLimitSec: 120},
	})
}

type testEnv struct {
	clock       *fixedClock
	assessments *memAssessmentRepo
	assignments *memAssignmentRepo
	cache       *memCache
	svc         *AssignmentService
}

func newTestEnv(assessments ...*entity.Assessment) *testEnv {
	env := &testEnv{
		clock:       newFixedClock(testNow),
		assessments: newMemAssessmentRepo(assessments...),
		cache:       newMemCache(),
	}
	env.assignments = newMemAssignmentRepo(env.assessments)
	env.svc = NewAssignmentService(env.assignments, env.assessments, env.cache, env.clock, nil, zap.NewNop(),
		AssignmentOptions{DraftGrace: 5 * time.Minute, UnlimitedDraftTTL: 24 * time.Hour})
	return env
}

// pending создает назначение в статусе pending
func (e *testEnv) pending(id, candidateID, assessmentID uint) {
	e.assignments.put(&entity.Assignment{ID: id, CandidateID: candidateID, AssessmentID: assessmentID, Status: entity.AssignmentStatusPending})
}
