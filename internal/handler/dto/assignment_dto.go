package dto

import (
	"time"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/service"
	"github.com/yourusername/assessment-api/internal/service/scoring"
)

// AssignmentResponse представляет назначение в формате для ответа клиенту
type AssignmentResponse struct {
	ID               uint                `json:"id"`
	CandidateID      uint                `json:"candidate_id"`
	AssessmentID     uint                `json:"assessment_id"`
	Status           string              `json:"status"`
	ScheduledFor     *time.Time          `json:"scheduled_for,omitempty"`
	StartedAt        *time.Time          `json:"started_at"`
	CompletedAt      *time.Time          `json:"completed_at"`
	Score            *int                `json:"score"`
	Feedback         *string             `json:"feedback"`
	ReviewedBy       *uint               `json:"reviewed_by,omitempty"`
	Responses        *entity.Responses   `json:"responses,omitempty"`
	RemainingSeconds *int                `json:"remaining_seconds,omitempty"`
	Expired          bool                `json:"expired"`
	Assessment       *AssessmentResponse `json:"assessment,omitempty"`
	Breakdown        *scoring.Result     `json:"breakdown,omitempty"`
}

// NewAssignmentResponse создает DTO назначения без теста
func NewAssignmentResponse(a *entity.Assignment) *AssignmentResponse {
	if a == nil {
		return nil
	}
	resp := &AssignmentResponse{
		ID:           a.ID,
		CandidateID:  a.CandidateID,
		AssessmentID: a.AssessmentID,
		Status:       string(a.Status),
		ScheduledFor: a.ScheduledFor,
		StartedAt:    a.StartedAt,
		CompletedAt:  a.CompletedAt,
		Score:        a.Score,
		Feedback:     a.Feedback,
		ReviewedBy:   a.ReviewedBy,
	}
	if !a.Responses.IsEmpty() {
		responses := a.Responses
		resp.Responses = &responses
	}
	return resp
}

// NewCandidateAssignmentResponse — вид для кандидата: тест без правильных ответов.
// Вопросы отдаются только после старта, чтобы их нельзя было прочитать заранее.
func NewCandidateAssignmentResponse(v *service.AssignmentView) *AssignmentResponse {
	resp := NewAssignmentResponse(v.Assignment)
	resp.RemainingSeconds = v.RemainingSeconds
	resp.Expired = v.Expired
	resp.Assessment = NewAssessmentResponse(v.Assessment, false)
	if v.Assignment.IsPending() {
		resp.Assessment.MCQ = nil
		resp.Assessment.FillInBlanks = nil
		resp.Assessment.Video = nil
	}
	return resp
}

// NewAdminAssignmentResponse — вид для администратора: тест с ответами и разбивка баллов
func NewAdminAssignmentResponse(v *service.AssignmentView, breakdown *scoring.Result) *AssignmentResponse {
	resp := NewAssignmentResponse(v.Assignment)
	resp.RemainingSeconds = v.RemainingSeconds
	resp.Expired = v.Expired
	resp.Assessment = NewAssessmentResponse(v.Assessment, true)
	resp.Breakdown = breakdown
	return resp
}

// NewListAssignmentResponse создает слайс DTO для списка назначений
func NewListAssignmentResponse(assignments []entity.Assignment) []*AssignmentResponse {
	list := make([]*AssignmentResponse, len(assignments))
	for i := range assignments {
		list[i] = NewAssignmentResponse(&assignments[i])
	}
	return list
}

// PaginatedAssignmentResponse представляет пагинированный список назначений
type PaginatedAssignmentResponse struct {
	Assignments []*AssignmentResponse `json:"assignments"`
	Total       int64                 `json:"total"`
	Page        int                   `json:"page"`
	PerPage     int                   `json:"per_page"`
}

// NewPaginatedAssignmentResponse создает пагинированный DTO
func NewPaginatedAssignmentResponse(assignments []entity.Assignment, total int64, page, perPage int) *PaginatedAssignmentResponse {
	return &PaginatedAssignmentResponse{
		Assignments: NewListAssignmentResponse(assignments),
		Total:       total,
		Page:        page,
		PerPage:     perPage,
	}
}
