package entity

import (
	"fmt"
	"time"
)

// AssignmentStatus — статус прохождения теста кандидатом
type AssignmentStatus string

// Константы статусов назначения. Переходы только вперед:
// pending → in-progress → completed → reviewed.
const (
	AssignmentStatusPending    AssignmentStatus = "pending"
	AssignmentStatusInProgress AssignmentStatus = "in-progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusReviewed   AssignmentStatus = "reviewed"
)

// Rank возвращает порядковый номер статуса в жизненном цикле (-1 для неизвестного)
func (s AssignmentStatus) Rank() int {
	switch s {
	case AssignmentStatusPending:
		return 0
	case AssignmentStatusInProgress:
		return 1
	case AssignmentStatusCompleted:
		return 2
	case AssignmentStatusReviewed:
		return 3
	default:
		return -1
	}
}

// IsValid проверяет, что статус из закрытого набора
func (s AssignmentStatus) IsValid() bool {
	return s.Rank() >= 0
}

// CanTransitionTo разрешает только один шаг вперед
func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	return s.IsValid() && next.Rank() == s.Rank()+1
}

// IsTerminal — reviewed является конечным статусом
func (s AssignmentStatus) IsTerminal() bool {
	return s == AssignmentStatusReviewed
}

// Assignment связывает кандидата с тестом и хранит состояние попытки
type Assignment struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	CandidateID  uint             `gorm:"not null;index;uniqueIndex:idx_candidate_assessment" json:"candidate_id"`
	AssessmentID uint             `gorm:"not null;index;uniqueIndex:idx_candidate_assessment" json:"assessment_id"`
	Status       AssignmentStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	StartedAt    *time.Time       `json:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at"`
	Responses    Responses        `gorm:"type:jsonb" json:"responses,omitempty"`
	Score        *int             `json:"score"`
	Feedback     *string          `gorm:"type:text" json:"feedback"`
	ReviewedBy   *uint            `json:"reviewed_by,omitempty"`
	ScheduledFor *time.Time       `json:"scheduled_for,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Assignment) TableName() string {
	return "assignments"
}

// IsOwnedBy проверяет принадлежность назначения кандидату
func (a *Assignment) IsOwnedBy(candidateID uint) bool {
	return a.CandidateID == candidateID
}

// IsPending проверяет, что тест еще не начат
func (a *Assignment) IsPending() bool {
	return a.Status == AssignmentStatusPending
}

// IsInProgress проверяет, что тест проходится прямо сейчас
func (a *Assignment) IsInProgress() bool {
	return a.Status == AssignmentStatusInProgress
}

// IsCompleted проверяет, что ответы сданы и ждут проверки
func (a *Assignment) IsCompleted() bool {
	return a.Status == AssignmentStatusCompleted
}

// IsReviewed проверяет, что администратор завершил проверку
func (a *Assignment) IsReviewed() bool {
	return a.Status == AssignmentStatusReviewed
}

// Clone возвращает глубокую копию для вычисления следующего состояния
func (a *Assignment) Clone() *Assignment {
	c := *a
	c.StartedAt = cloneTime(a.StartedAt)
	c.CompletedAt = cloneTime(a.CompletedAt)
	c.ScheduledFor = cloneTime(a.ScheduledFor)
	if a.Score != nil {
		v := *a.Score
		c.Score = &v
	}
	if a.Feedback != nil {
		v := *a.Feedback
		c.Feedback = &v
	}
	if a.ReviewedBy != nil {
		v := *a.ReviewedBy
		c.ReviewedBy = &v
	}
	c.Responses = a.Responses.clone()
	return &c
}

// CheckInvariants проверяет согласованность статуса и временных меток.
// assessmentType может быть пустым, если тип теста неизвестен вызывающему.
func (a *Assignment) CheckInvariants(assessmentType AssessmentType) error {
	if !a.Status.IsValid() {
		return fmt.Errorf("assignment #%d has unknown status %q", a.ID, a.Status)
	}
	if (a.StartedAt == nil) != a.IsPending() {
		return fmt.Errorf("assignment #%d: started_at must be set iff status is not pending (status=%s)", a.ID, a.Status)
	}
	notFinished := a.IsPending() || a.IsInProgress()
	if (a.CompletedAt == nil) != notFinished {
		return fmt.Errorf("assignment #%d: completed_at must be set iff status is completed or reviewed (status=%s)", a.ID, a.Status)
	}
	if !a.Responses.IsEmpty() && assessmentType != "" && a.Responses.Type != assessmentType {
		return fmt.Errorf("assignment #%d: responses of type %s do not match assessment type %s", a.ID, a.Responses.Type, assessmentType)
	}
	if a.Score != nil && (*a.Score < 0 || *a.Score > 100) {
		return fmt.Errorf("assignment #%d: score %d out of range", a.ID, *a.Score)
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func (r Responses) clone() Responses {
	c := Responses{Type: r.Type}
	if r.MCQ != nil {
		c.MCQ = append([]MCQResponse(nil), r.MCQ...)
	}
	if r.Video != nil {
		c.Video = append([]VideoResponse(nil), r.Video...)
	}
	if r.FillInBlanks != nil {
		c.FillInBlanks = make([]FillInBlanksResponse, len(r.FillInBlanks))
		for i, fr := range r.FillInBlanks {
			c.FillInBlanks[i] = FillInBlanksResponse{QuestionID: fr.QuestionID}
			if fr.Answers == nil {
				continue
			}
			c.FillInBlanks[i].Answers = make(map[string]string, len(fr.Answers))
			for k, v := range fr.Answers {
				c.FillInBlanks[i].Answers[k] = v
			}
		}
	}
	return c
}
