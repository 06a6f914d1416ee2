package dto

import (
	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// OptionResponse — вариант ответа
type OptionResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// MCQQuestionResponse — MCQ-вопрос. CorrectOptionID заполняется только для администратора.
type MCQQuestionResponse struct {
	ID              string           `json:"id"`
	Text            string           `json:"text"`
	Options         []OptionResponse `json:"options"`
	CorrectOptionID string           `json:"correct_option_id,omitempty"`
}

// SegmentResponse — кусок текста вопроса: литерал или пропуск
type SegmentResponse struct {
	Text    string `json:"text,omitempty"`
	BlankID string `json:"blank_id,omitempty"`
	IsBlank bool   `json:"is_blank"`
}

// BlankResponse — пропуск с правильным ответом (только для администратора)
type BlankResponse struct {
	ID            string `json:"id"`
	CorrectAnswer string `json:"correct_answer"`
}

// FillInBlanksQuestionResponse — вопрос с пропусками, разобранный на сегменты
type FillInBlanksQuestionResponse struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Segments []SegmentResponse `json:"segments"`
	Blanks   []BlankResponse   `json:"blanks,omitempty"`
}

// VideoQuestionResponse — видео-вопрос с собственным лимитом записи
type VideoQuestionResponse struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	TimeLimitSec int    `json:"time_limit"`
}

// AssessmentResponse представляет тест в формате для ответа клиенту
type AssessmentResponse struct {
	ID            uint                           `json:"id"`
	Title         string                         `json:"title"`
	Type          string                         `json:"type"`
	TimeLimitMin  *int                           `json:"time_limit,omitempty"`
	QuestionCount int                            `json:"question_count"`
	MCQ           []MCQQuestionResponse          `json:"mcq_questions,omitempty"`
	FillInBlanks  []FillInBlanksQuestionResponse `json:"fill_in_blanks_questions,omitempty"`
	Video         []VideoQuestionResponse        `json:"video_questions,omitempty"`
}

// NewAssessmentResponse создает DTO теста. При includeAnswers == false
// правильные ответы не попадают в ответ.
func NewAssessmentResponse(a *entity.Assessment, includeAnswers bool) *AssessmentResponse {
	if a == nil {
		return nil
	}

	resp := &AssessmentResponse{
		ID:            a.ID,
		Title:         a.Title,
		Type:          string(a.Type),
		TimeLimitMin:  a.TimeLimitMin,
		QuestionCount: a.QuestionCount(),
	}

	switch a.Type {
	case entity.AssessmentTypeMCQ:
		for _, q := range a.MCQ() {
			item := MCQQuestionResponse{ID: q.ID, Text: q.Text, Options: make([]OptionResponse, len(q.Options))}
			for i, o := range q.Options {
				item.Options[i] = OptionResponse{ID: o.ID, Text: o.Text}
			}
			if includeAnswers {
				item.CorrectOptionID = q.CorrectOptionID
			}
			resp.MCQ = append(resp.MCQ, item)
		}
	case entity.AssessmentTypeFillInBlanks:
		for _, q := range a.FillInBlanks() {
			item := FillInBlanksQuestionResponse{ID: q.ID, Text: q.DisplayText()}
			for _, s := range q.Segments() {
				item.Segments = append(item.Segments, SegmentResponse{Text: s.Text, BlankID: s.BlankID, IsBlank: s.IsBlank})
			}
			if includeAnswers {
				for _, b := range q.Blanks {
					item.Blanks = append(item.Blanks, BlankResponse{ID: b.ID, CorrectAnswer: b.CorrectAnswer})
				}
			}
			resp.FillInBlanks = append(resp.FillInBlanks, item)
		}
	case entity.AssessmentTypeVideo:
		for _, q := range a.Video() {
			resp.Video = append(resp.Video, VideoQuestionResponse{ID: q.ID, Text: q.Text, TimeLimitSec: q.TimeLimitSec})
		}
	}

	return resp
}
