package entity

import (
	"fmt"
	"time"

	"gorm.io/datatypes"

	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// AssessmentType определяет вариант вопросов, ответов и подсчета баллов
type AssessmentType string

// Типы тестов
const (
	AssessmentTypeMCQ          AssessmentType = "mcq"
	AssessmentTypeFillInBlanks AssessmentType = "fill-in-blanks"
	AssessmentTypeVideo        AssessmentType = "video"
)

// ParseAssessmentType проверяет, что строка относится к закрытому набору типов
func ParseAssessmentType(s string) (AssessmentType, error) {
	switch t := AssessmentType(s); t {
	case AssessmentTypeMCQ, AssessmentTypeFillInBlanks, AssessmentTypeVideo:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown assessment type %q", apperrors.ErrValidation, s)
	}
}

// IsAutoScored возвращает true для типов, которые оцениваются автоматически при сдаче
func (t AssessmentType) IsAutoScored() bool {
	return t == AssessmentTypeMCQ || t == AssessmentTypeFillInBlanks
}

// Assessment представляет неизменяемое определение теста.
// Заполнен ровно один список вопросов — тот, что соответствует Type.
// JSON-представление полное (с правильными ответами) и используется только внутри сервиса,
// наружу тест отдается через DTO.
type Assessment struct {
	ID                    uint                                       `gorm:"primaryKey" json:"id"`
	Title                 string                                     `gorm:"size:200;not null" json:"title"`
	Type                  AssessmentType                             `gorm:"size:20;not null;index" json:"type"`
	TimeLimitMin          *int                                       `gorm:"column:time_limit_min" json:"time_limit,omitempty"`
	MCQQuestions          datatypes.JSONType[[]MCQQuestion]          `gorm:"column:mcq_questions;type:jsonb" json:"mcq_questions"`
	FillInBlanksQuestions datatypes.JSONType[[]FillInBlanksQuestion] `gorm:"column:fill_in_blanks_questions;type:jsonb" json:"fill_in_blanks_questions"`
	VideoQuestions        datatypes.JSONType[[]VideoQuestion]        `gorm:"column:video_questions;type:jsonb" json:"video_questions"`
	CreatedAt             time.Time                                  `json:"created_at"`
	UpdatedAt             time.Time                                  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Assessment) TableName() string {
	return "assessments"
}

// NewMCQAssessment собирает MCQ-тест (используется загрузчиками и тестами)
func NewMCQAssessment(id uint, title string, timeLimitMin *int, questions []MCQQuestion) *Assessment {
	return &Assessment{
		ID:           id,
		Title:        title,
		Type:         AssessmentTypeMCQ,
		TimeLimitMin: timeLimitMin,
		MCQQuestions: datatypes.NewJSONType(questions),
	}
}

// NewFillInBlanksAssessment собирает тест с пропусками
func NewFillInBlanksAssessment(id uint, title string, timeLimitMin *int, questions []FillInBlanksQuestion) *Assessment {
	return &Assessment{
		ID:                    id,
		Title:                 title,
		Type:                  AssessmentTypeFillInBlanks,
		TimeLimitMin:          timeLimitMin,
		FillInBlanksQuestions: datatypes.NewJSONType(questions),
	}
}

// NewVideoAssessment собирает видео-тест. Общий лимит времени для видео не задается:
// каждый вопрос ограничен собственным TimeLimitSec.
func NewVideoAssessment(id uint, title string, questions []VideoQuestion) *Assessment {
	return &Assessment{
		ID:             id,
		Title:          title,
		Type:           AssessmentTypeVideo,
		VideoQuestions: datatypes.NewJSONType(questions),
	}
}

// MCQ возвращает упорядоченный список MCQ-вопросов
func (a *Assessment) MCQ() []MCQQuestion {
	return a.MCQQuestions.Data()
}

// FillInBlanks возвращает упорядоченный список вопросов с пропусками
func (a *Assessment) FillInBlanks() []FillInBlanksQuestion {
	return a.FillInBlanksQuestions.Data()
}

// Video возвращает упорядоченный список видео-вопросов
func (a *Assessment) Video() []VideoQuestion {
	return a.VideoQuestions.Data()
}

// QuestionCount возвращает количество вопросов для типа теста
func (a *Assessment) QuestionCount() int {
	switch a.Type {
	case AssessmentTypeMCQ:
		return len(a.MCQ())
	case AssessmentTypeFillInBlanks:
		return len(a.FillInBlanks())
	case AssessmentTypeVideo:
		return len(a.Video())
	default:
		return 0
	}
}

// TimeLimitSeconds переводит лимит теста из минут в секунды.
// ok == false означает, что время на весь тест не ограничено.
func (a *Assessment) TimeLimitSeconds() (seconds int, ok bool) {
	if a.TimeLimitMin == nil || *a.TimeLimitMin <= 0 {
		return 0, false
	}
	return *a.TimeLimitMin * 60, true
}

// Validate проверяет структурную целостность определения теста
func (a *Assessment) Validate() error {
	if _, err := ParseAssessmentType(string(a.Type)); err != nil {
		return fmt.Errorf("%w: assessment #%d has type %q", apperrors.ErrInvalidAssessment, a.ID, a.Type)
	}

	// Списки других типов должны быть пустыми
	foreign := 0
	if a.Type != AssessmentTypeMCQ {
		foreign += len(a.MCQ())
	}
	if a.Type != AssessmentTypeFillInBlanks {
		foreign += len(a.FillInBlanks())
	}
	if a.Type != AssessmentTypeVideo {
		foreign += len(a.Video())
	}
	if foreign > 0 {
		return fmt.Errorf("%w: assessment #%d of type %s carries questions of another type", apperrors.ErrInvalidAssessment, a.ID, a.Type)
	}

	if a.QuestionCount() == 0 {
		return fmt.Errorf("%w: assessment #%d has no questions", apperrors.ErrInvalidAssessment, a.ID)
	}

	switch a.Type {
	case AssessmentTypeMCQ:
		for _, q := range a.MCQ() {
			if !q.HasOption(q.CorrectOptionID) {
				return fmt.Errorf("%w: question %q references unknown correct option %q", apperrors.ErrInvalidAssessment, q.ID, q.CorrectOptionID)
			}
		}
	case AssessmentTypeFillInBlanks:
		for _, q := range a.FillInBlanks() {
			if len(q.Blanks) == 0 {
				return fmt.Errorf("%w: question %q has no blanks", apperrors.ErrInvalidAssessment, q.ID)
			}
			if !q.MarkersMatchBlanks() {
				return fmt.Errorf("%w: question %q has %d markers for %d blanks",
					apperrors.ErrInvalidAssessment, q.ID, len(ParseBlankMarkers(q.Text)), len(q.Blanks))
			}
			seen := make(map[string]struct{}, len(q.Blanks))
			for _, b := range q.Blanks {
				if _, dup := seen[b.ID]; dup {
					return fmt.Errorf("%w: question %q repeats blank %q", apperrors.ErrInvalidAssessment, q.ID, b.ID)
				}
				seen[b.ID] = struct{}{}
			}
		}
	case AssessmentTypeVideo:
		for _, q := range a.Video() {
			if q.TimeLimitSec <= 0 {
				return fmt.Errorf("%w: video question %q must have a positive time limit", apperrors.ErrInvalidAssessment, q.ID)
			}
		}
	}
	return nil
}
