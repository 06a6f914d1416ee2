package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
)

func TestExpirySweeper_SubmitsDraftOrEmpty(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newTestEnv(mcqAssessment(10, intPtr(2)), mcqAssessment(11, intPtr(60)), videoAssessment(30))
	env.pending(1, candidate, 10) // истечет, есть черновик
	env.pending(2, stranger, 10)  // истечет, черновика нет
	env.pending(3, candidate, 11) // лимит не истек
	env.pending(4, candidate, 30) // видео не сдается принудительно
	for _, id := range []uint{3, 4} {
		a, _ := env.assignments.GetByID(ctx, id)
		_, err := env.svc.Start(ctx, id, a.CandidateID)
		require.NoError(t, err)
	}
	_, err := env.svc.Start(ctx, 1, candidate)
	require.NoError(t, err)
	_, err = env.svc.Start(ctx, 2, stranger)
	require.NoError(t, err)
	require.NoError(t, env.svc.SaveDraft(ctx, 1, candidate, entity.NewMCQResponses([]entity.MCQResponse{
		{QuestionID: "q1", SelectedOptionID: "a"},
		{QuestionID: "q2", SelectedOptionID: "b"},
	})))

	env.clock.Advance(3 * time.Minute)
	sweeper := NewExpirySweeper(env.assignments, env.svc, env.clock, nil, zap.NewNop(), 10)

	// Act
	res, err := sweeper.Sweep(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Found: 2, Submitted: 2}, res)

	first, _ := env.assignments.GetByID(ctx, 1)
	assert.Equal(t, entity.AssignmentStatusCompleted, first.Status)
	assert.Equal(t, 50, *first.Score, "Сдан черновик")

	second, _ := env.assignments.GetByID(ctx, 2)
	assert.Equal(t, entity.AssignmentStatusCompleted, second.Status)
	assert.Equal(t, 0, *second.Score, "Без черновика сдаются пустые ответы")

	for _, id := range []uint{3, 4} {
		a, _ := env.assignments.GetByID(ctx, id)
		assert.Equal(t, entity.AssignmentStatusInProgress, a.Status)
	}

	// Второй проход ничего не находит
	res, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Found)
}

func TestExpirySweeper_FailingRowDoesNotBlockOthers(t *testing.T) {
	// Arrange: самая ранняя попытка относится к сломанному тесту и не сдается никогда
	ctx := context.Background()
	broken := entity.NewFillInBlanksAssessment(20, "broken", intPtr(2), []entity.FillInBlanksQuestion{
		{ID: "f1", Text: "без пропусков"},
	})
	env := newTestEnv(mcqAssessment(10, intPtr(2)), broken)
	brokenStart := testNow.Add(-10 * time.Minute)
	validStart := testNow.Add(-5 * time.Minute)
	env.assignments.put(&entity.Assignment{ID: 1, CandidateID: stranger, AssessmentID: 20, Status: entity.AssignmentStatusInProgress, StartedAt: &brokenStart})
	env.assignments.put(&entity.Assignment{ID: 2, CandidateID: candidate, AssessmentID: 10, Status: entity.AssignmentStatusInProgress, StartedAt: &validStart})
	sweeper := NewExpirySweeper(env.assignments, env.svc, env.clock, nil, zap.NewNop(), 1)

	// Act
	res, err := sweeper.Sweep(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Found: 2, Submitted: 1, Failed: 1}, res)

	valid, _ := env.assignments.GetByID(ctx, 2)
	assert.Equal(t, entity.AssignmentStatusCompleted, valid.Status, "Корректная попытка сдана, несмотря на ошибку в первой")
	stuck, _ := env.assignments.GetByID(ctx, 1)
	assert.Equal(t, entity.AssignmentStatusInProgress, stuck.Status)

	// Повторный проход снова упирается только в сломанную строку
	res, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Found: 1, Failed: 1}, res)
}

func TestExpirySweeper_PagesByCursor(t *testing.T) {
	// Arrange
	repo := new(MockAssignmentRepository)
	env := newTestEnv()
	started := testNow.Add(-time.Hour)
	first := repository.ExpiredCandidate{AssignmentID: 3, CandidateID: candidate, AssessmentID: 99, StartedAt: started, TimeLimitMin: 5}
	second := repository.ExpiredCandidate{AssignmentID: 4, CandidateID: candidate, AssessmentID: 99, StartedAt: started, TimeLimitMin: 5}
	repo.On("ListExpiredInProgress", mock.Anything, testNow, repository.ExpiredCursor{}, 1).
		Return([]repository.ExpiredCandidate{first}, nil).Once()
	repo.On("ListExpiredInProgress", mock.Anything, testNow, first.After(), 1).
		Return([]repository.ExpiredCandidate{second}, nil).Once()
	repo.On("ListExpiredInProgress", mock.Anything, testNow, second.After(), 1).
		Return([]repository.ExpiredCandidate{}, nil).Once()
	sweeper := NewExpirySweeper(repo, env.svc, newFixedClock(testNow), nil, zap.NewNop(), 1)

	// Act
	res, err := sweeper.Sweep(context.Background())

	// Assert: назначений нет в хранилище сервиса, обе строки считаются неудачными
	require.NoError(t, err)
	assert.Equal(t, 2, res.Found)
	assert.Equal(t, 2, res.Failed)
	repo.AssertExpectations(t)
}

func TestExpirySweeper_ListError(t *testing.T) {
	repo := new(MockAssignmentRepository)
	repo.On("ListExpiredInProgress", mock.Anything, testNow, repository.ExpiredCursor{}, 5).Return(nil, errors.New("db down"))
	env := newTestEnv()
	sweeper := NewExpirySweeper(repo, env.svc, newFixedClock(testNow), nil, zap.NewNop(), 5)

	_, err := sweeper.Sweep(context.Background())

	assert.Error(t, err)
	repo.AssertExpectations(t)
}

func TestExpirySweeper_RunStopsOnCancel(t *testing.T) {
	env := newTestEnv()
	sweeper := NewExpirySweeper(env.assignments, env.svc, env.clock, nil, zap.NewNop(), 10)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run не завершился после отмены контекста")
	}
}

func TestExpirySweeper_OneReplicaPerTick(t *testing.T) {
	// Arrange: две реплики делят один Redis
	env := newTestEnv()
	first := NewExpirySweeper(env.assignments, env.svc, env.clock, nil, zap.NewNop(), 10)
	second := NewExpirySweeper(env.assignments, env.svc, env.clock, nil, zap.NewNop(), 10)
	ctx := context.Background()

	// Act & Assert
	assert.True(t, first.acquireTick(ctx, time.Minute))
	assert.False(t, second.acquireTick(ctx, time.Minute), "Вторая реплика пропускает тик")
	assert.Equal(t, time.Minute, env.cache.ttl[SweeperLockKey], "Блокировка живет один интервал")
}
