package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

func mcqQuestions(n int) []entity.MCQQuestion {
	ids := []string{"q1", "q2", "q3", "q4", "q5"}
	qs := make([]entity.MCQQuestion, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, entity.MCQQuestion{
			ID:              ids[i],
			Text:            "Вопрос " + ids[i],
			Options:         []entity.Option{{ID: "a"}, {ID: "b"}, {ID: "c"}},
			CorrectOptionID: "a",
		})
	}
	return qs
}

func networkBlanks() []entity.FillInBlanksQuestion {
	return []entity.FillInBlanksQuestion{
		{
			ID:     "f1",
			Text:   "Стек [[b1]] описан в модели [[b2]]",
			Blanks: []entity.Blank{{ID: "b1", CorrectAnswer: "TCP/IP"}, {ID: "b2", CorrectAnswer: "OSI"}},
		},
		{
			ID:     "f2",
			Text:   "Порт [[b3]] использует [[b4]]",
			Blanks: []entity.Blank{{ID: "b3", CorrectAnswer: "443"}, {ID: "b4", CorrectAnswer: "HTTPS"}},
		},
	}
}

func TestPercentage(t *testing.T) {
	testCases := []struct {
		correct, total, want int
	}{
		{3, 4, 75},
		{0, 4, 0},
		{4, 4, 100},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},  // 12.5 округляется вверх
		{1, 200, 1}, // 0.5 округляется вверх
		{0, 0, 0},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, Percentage(tc.correct, tc.total), "%d/%d", tc.correct, tc.total)
	}
}

func TestScoreMCQ(t *testing.T) {
	qs := mcqQuestions(4)

	testCases := []struct {
		name      string
		responses []entity.MCQResponse
		want      int
	}{
		{
			name: "три из четырех",
			responses: []entity.MCQResponse{
				{QuestionID: "q1", SelectedOptionID: "a"},
				{QuestionID: "q2", SelectedOptionID: "a"},
				{QuestionID: "q3", SelectedOptionID: "a"},
				{QuestionID: "q4", SelectedOptionID: "b"},
			},
			want: 75,
		},
		{
			name:      "нет ответов",
			responses: nil,
			want:      0,
		},
		{
			name: "все верно",
			responses: []entity.MCQResponse{
				{QuestionID: "q1", SelectedOptionID: "a"},
				{QuestionID: "q2", SelectedOptionID: "a"},
				{QuestionID: "q3", SelectedOptionID: "a"},
				{QuestionID: "q4", SelectedOptionID: "a"},
			},
			want: 100,
		},
		{
			name: "неизвестный вопрос игнорируется",
			responses: []entity.MCQResponse{
				{QuestionID: "q1", SelectedOptionID: "a"},
				{QuestionID: "zzz", SelectedOptionID: "a"},
			},
			want: 25,
		},
		{
			name: "повторный ответ не засчитывается",
			responses: []entity.MCQResponse{
				{QuestionID: "q1", SelectedOptionID: "a"},
				{QuestionID: "q1", SelectedOptionID: "a"},
				{QuestionID: "q1", SelectedOptionID: "a"},
				{QuestionID: "q1", SelectedOptionID: "a"},
				{QuestionID: "q1", SelectedOptionID: "a"},
			},
			want: 25,
		},
		{
			name: "регистр варианта важен",
			responses: []entity.MCQResponse{
				{QuestionID: "q1", SelectedOptionID: "A"},
			},
			want: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ScoreMCQ(qs, tc.responses)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScoreMCQ_NoQuestions(t *testing.T) {
	_, err := ScoreMCQ(nil, []entity.MCQResponse{{QuestionID: "q1", SelectedOptionID: "a"}})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidAssessment), "Пустой тест должен давать ErrInvalidAssessment")
}

func TestScoreFillInBlanks(t *testing.T) {
	qs := networkBlanks()

	testCases := []struct {
		name      string
		responses []entity.FillInBlanksResponse
		want      int
	}{
		{
			name: "регистр не важен",
			responses: []entity.FillInBlanksResponse{
				{QuestionID: "f1", Answers: map[string]string{"b1": "tcp/ip", "b2": "osi"}},
				{QuestionID: "f2", Answers: map[string]string{"b3": "443", "b4": "Https"}},
			},
			want: 100,
		},
		{
			name: "три пропуска из четырех",
			responses: []entity.FillInBlanksResponse{
				{QuestionID: "f1", Answers: map[string]string{"b1": "TCP/IP", "b2": "OSI"}},
				{QuestionID: "f2", Answers: map[string]string{"b3": "443", "b4": "HTTP"}},
			},
			want: 75,
		},
		{
			name: "пустой и отсутствующий ответ неверны",
			responses: []entity.FillInBlanksResponse{
				{QuestionID: "f1", Answers: map[string]string{"b1": ""}},
				{QuestionID: "f2", Answers: map[string]string{"b3": "443"}},
			},
			want: 25,
		},
		{
			name: "пробелы не обрезаются",
			responses: []entity.FillInBlanksResponse{
				{QuestionID: "f1", Answers: map[string]string{"b1": " TCP/IP", "b2": "OSI"}},
			},
			want: 25,
		},
		{
			name:      "нет ответов",
			responses: nil,
			want:      0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ScoreFillInBlanks(qs, tc.responses)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScoreFillInBlanks_NoBlanks(t *testing.T) {
	_, err := ScoreFillInBlanks([]entity.FillInBlanksQuestion{{ID: "f1", Text: "без пропусков"}}, nil)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidAssessment))
}

func TestScoreFillInBlanksDetailed(t *testing.T) {
	// Arrange
	responses := []entity.FillInBlanksResponse{
		{QuestionID: "f1", Answers: map[string]string{"b1": "TCP/IP", "b2": "OSI"}},
	}

	// Act
	res, err := ScoreFillInBlanksDetailed(networkBlanks(), responses)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 50, res.Score)
	assert.Equal(t, 2, res.Correct)
	assert.Equal(t, 4, res.Total)
	require.Len(t, res.Questions, 2)
	assert.Equal(t, QuestionResult{QuestionID: "f1", Correct: 2, Total: 2, Answered: true}, res.Questions[0])
	assert.Equal(t, QuestionResult{QuestionID: "f2", Correct: 0, Total: 2, Answered: false}, res.Questions[1])
}

func TestScore_Dispatch(t *testing.T) {
	mcq := entity.NewMCQAssessment(1, "MCQ", nil, mcqQuestions(2))
	video := entity.NewVideoAssessment(2, "Видео", []entity.VideoQuestion{{ID: "v1", TimeLimitSec: 60}})

	t.Run("mcq", func(t *testing.T) {
		score, err := Score(mcq, entity.NewMCQResponses([]entity.MCQResponse{{QuestionID: "q1", SelectedOptionID: "a"}}))
		require.NoError(t, err)
		require.NotNil(t, score)
		assert.Equal(t, 50, *score)
	})

	t.Run("видео не оценивается автоматически", func(t *testing.T) {
		score, err := Score(video, entity.NewVideoResponses([]entity.VideoResponse{{QuestionID: "v1", VideoURL: "s3://v1"}}))
		require.NoError(t, err)
		assert.Nil(t, score)
	})

	t.Run("несовпадение типа", func(t *testing.T) {
		_, err := Score(mcq, entity.NewFillInBlanksResponses(nil))
		assert.True(t, errors.Is(err, apperrors.ErrTypeMismatch))
	})
}
