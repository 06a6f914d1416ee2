package dto

import (
	"time"

	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// AssignRequest — назначение теста кандидату
type AssignRequest struct {
	CandidateID  uint       `json:"candidate_id" binding:"required,min=1"`
	AssessmentID uint       `json:"assessment_id" binding:"required,min=1"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

// MCQAnswer — выбранный вариант
type MCQAnswer struct {
	QuestionID       string `json:"question_id" binding:"required"`
	SelectedOptionID string `json:"selected_option_id" binding:"required"`
}

// FillInBlanksAnswer — ответы на пропуски одного вопроса
type FillInBlanksAnswer struct {
	QuestionID string            `json:"question_id" binding:"required"`
	Answers    map[string]string `json:"answers"`
}

// VideoAnswer — ссылка на записанный ответ
type VideoAnswer struct {
	QuestionID         string     `json:"question_id" binding:"required"`
	VideoURL           string     `json:"video_url" binding:"required,url"`
	RecordingStartedAt *time.Time `json:"recording_started_at"`
	RecordedAt         *time.Time `json:"recorded_at"`
}

// SubmitMCQRequest — сдача MCQ-теста
type SubmitMCQRequest struct {
	Responses []MCQAnswer `json:"responses" binding:"dive"`
}

// SubmitFillInBlanksRequest — сдача теста с пропусками
type SubmitFillInBlanksRequest struct {
	Responses []FillInBlanksAnswer `json:"responses" binding:"dive"`
}

// SubmitVideoRequest — сдача видео-теста
type SubmitVideoRequest struct {
	Responses []VideoAnswer `json:"responses" binding:"dive"`
}

// DraftRequest — промежуточные ответы любого типа
type DraftRequest struct {
	Type         string               `json:"type" binding:"required,assessment_type"`
	MCQ          []MCQAnswer          `json:"mcq" binding:"dive"`
	FillInBlanks []FillInBlanksAnswer `json:"fill_in_blanks" binding:"dive"`
	Video        []VideoAnswer        `json:"video" binding:"dive"`
}

// ReviewRequest — проверка или исправление отзыва
type ReviewRequest struct {
	Feedback string `json:"feedback" binding:"max=5000"`
	Score    *int   `json:"score" binding:"omitempty,min=0,max=100"`
}

// ToMCQ преобразует ответы в доменный вид
func (r SubmitMCQRequest) ToMCQ() []entity.MCQResponse {
	return mcqResponses(r.Responses)
}

// ToFillInBlanks преобразует ответы в доменный вид
func (r SubmitFillInBlanksRequest) ToFillInBlanks() []entity.FillInBlanksResponse {
	return fillInBlanksResponses(r.Responses)
}

// ToVideo преобразует ответы в доменный вид
func (r SubmitVideoRequest) ToVideo() []entity.VideoResponse {
	return videoResponses(r.Responses)
}

// ToResponses собирает размеченное объединение по полю type
func (r DraftRequest) ToResponses() entity.Responses {
	switch entity.AssessmentType(r.Type) {
	case entity.AssessmentTypeMCQ:
		return entity.NewMCQResponses(mcqResponses(r.MCQ))
	case entity.AssessmentTypeFillInBlanks:
		return entity.NewFillInBlanksResponses(fillInBlanksResponses(r.FillInBlanks))
	default:
		return entity.NewVideoResponses(videoResponses(r.Video))
	}
}

func mcqResponses(items []MCQAnswer) []entity.MCQResponse {
	out := make([]entity.MCQResponse, len(items))
	for i, it := range items {
		out[i] = entity.MCQResponse{QuestionID: it.QuestionID, SelectedOptionID: it.SelectedOptionID}
	}
	return out
}

func fillInBlanksResponses(items []FillInBlanksAnswer) []entity.FillInBlanksResponse {
	out := make([]entity.FillInBlanksResponse, len(items))
	for i, it := range items {
		out[i] = entity.FillInBlanksResponse{QuestionID: it.QuestionID, Answers: it.Answers}
	}
	return out
}

func videoResponses(items []VideoAnswer) []entity.VideoResponse {
	out := make([]entity.VideoResponse, len(items))
	for i, it := range items {
		out[i] = entity.VideoResponse{
			QuestionID:         it.QuestionID,
			VideoURL:           it.VideoURL,
			RecordingStartedAt: it.RecordingStartedAt,
			RecordedAt:         it.RecordedAt,
		}
	}
	return out
}
