// Package scoring вычисляет процент правильных ответов (0–100) для автоматически
// оцениваемых тестов. Все функции детерминированные и не выполняют I/O.
package scoring

import (
	"fmt"
	"strings"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// QuestionResult — итог по одному вопросу
type QuestionResult struct {
	QuestionID string `json:"question_id"`
	Correct    int    `json:"correct"`
	Total      int    `json:"total"`
	Answered   bool   `json:"answered"`
}

// Result — детальный итог подсчета
type Result struct {
	Score     int              `json:"score"`
	Correct   int              `json:"correct"`
	Total     int              `json:"total"`
	Questions []QuestionResult `json:"questions"`
}

// Percentage переводит correct/total в проценты с округлением half-up
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	// floor(correct/total*100 + 0.5) в целых числах
	return (200*correct + total) / (2 * total)
}

// Validate проверяет, что ответы соответствуют типу теста.
// Ответы на неизвестные вопросы не считаются ошибкой — они игнорируются при подсчете.
func Validate(assessment *entity.Assessment, responses entity.Responses) error {
	if responses.Type != assessment.Type {
		return fmt.Errorf("%w: got %q responses for %s assessment #%d",
			apperrors.ErrTypeMismatch, responses.Type, assessment.Type, assessment.ID)
	}
	return nil
}

// Score выбирает алгоритм по типу теста. Для видео возвращает nil:
// балл выставляет администратор при проверке.
func Score(assessment *entity.Assessment, responses entity.Responses) (*int, error) {
	if err := Validate(assessment, responses); err != nil {
		return nil, err
	}

	var (
		score int
		err   error
	)
	switch assessment.Type {
	case entity.AssessmentTypeMCQ:
		score, err = ScoreMCQ(assessment.MCQ(), responses.MCQ)
	case entity.AssessmentTypeFillInBlanks:
		score, err = ScoreFillInBlanks(assessment.FillInBlanks(), responses.FillInBlanks)
	case entity.AssessmentTypeVideo:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %q", apperrors.ErrInvalidAssessment, assessment.Type)
	}
	if err != nil {
		return nil, err
	}
	return &score, nil
}

// Detail возвращает разбивку по вопросам для экрана проверки.
// Для видео-тестов разбивки нет.
func Detail(assessment *entity.Assessment, responses entity.Responses) (*Result, error) {
	if err := Validate(assessment, responses); err != nil {
		return nil, err
	}
	switch assessment.Type {
	case entity.AssessmentTypeMCQ:
		return ScoreMCQDetailed(assessment.MCQ(), responses.MCQ)
	case entity.AssessmentTypeFillInBlanks:
		return ScoreFillInBlanksDetailed(assessment.FillInBlanks(), responses.FillInBlanks)
	default:
		return nil, nil
	}
}

// ScoreMCQ считает round(correct / totalQuestions * 100)
func ScoreMCQ(questions []entity.MCQQuestion, responses []entity.MCQResponse) (int, error) {
	res, err := ScoreMCQDetailed(questions, responses)
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}

// ScoreMCQDetailed сравнивает выбранный вариант с правильным.
// Ответы на неизвестные вопросы игнорируются; повторный ответ на тот же вопрос не учитывается.
func ScoreMCQDetailed(questions []entity.MCQQuestion, responses []entity.MCQResponse) (*Result, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: MCQ assessment has no questions", apperrors.ErrInvalidAssessment)
	}

	index := make(map[string]int, len(questions))
	res := &Result{Total: len(questions), Questions: make([]QuestionResult, len(questions))}
	for i, q := range questions {
		index[q.ID] = i
		res.Questions[i] = QuestionResult{QuestionID: q.ID, Total: 1}
	}

	for _, r := range responses {
		i, ok := index[r.QuestionID]
		if !ok || res.Questions[i].Answered {
			continue
		}
		res.Questions[i].Answered = true
		if questions[i].IsCorrect(r.SelectedOptionID) {
			res.Questions[i].Correct = 1
			res.Correct++
		}
	}

	res.Score = Percentage(res.Correct, res.Total)
	return res, nil
}

// ScoreFillInBlanks считает round(correctBlanks / totalBlanks * 100)
func ScoreFillInBlanks(questions []entity.FillInBlanksQuestion, responses []entity.FillInBlanksResponse) (int, error) {
	res, err := ScoreFillInBlanksDetailed(questions, responses)
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}

// ScoreFillInBlanksDetailed сравнивает ответы без учета регистра.
// Отсутствующий или пустой ответ на пропуск считается неверным.
func ScoreFillInBlanksDetailed(questions []entity.FillInBlanksQuestion, responses []entity.FillInBlanksResponse) (*Result, error) {
	index := make(map[string]int, len(questions))
	res := &Result{Questions: make([]QuestionResult, len(questions))}
	for i, q := range questions {
		index[q.ID] = i
		res.Questions[i] = QuestionResult{QuestionID: q.ID, Total: len(q.Blanks)}
		res.Total += len(q.Blanks)
	}
	if res.Total == 0 {
		return nil, fmt.Errorf("%w: fill-in-blanks assessment has no blanks", apperrors.ErrInvalidAssessment)
	}

	for _, r := range responses {
		i, ok := index[r.QuestionID]
		if !ok || res.Questions[i].Answered {
			continue
		}
		res.Questions[i].Answered = true
		for _, blank := range questions[i].Blanks {
			if blankMatches(blank, r.Answers) {
				res.Questions[i].Correct++
				res.Correct++
			}
		}
	}

	res.Score = Percentage(res.Correct, res.Total)
	return res, nil
}

func blankMatches(blank entity.Blank, answers map[string]string) bool {
	answer, ok := answers[blank.ID]
	if !ok || answer == "" {
		return false
	}
	return strings.ToLower(answer) == strings.ToLower(blank.CorrectAnswer)
}
