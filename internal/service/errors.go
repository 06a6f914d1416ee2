package service

import (
	"fmt"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// Операции жизненного цикла (метка transition в метриках и Op в ошибках)
const (
	OpStart  = "start"
	OpSubmit = "submit"
	OpReview = "review"
	OpAmend  = "amend_feedback"
	OpDraft  = "draft"
)

// TransitionError описывает отклоненный переход: назначение находилось
// не в том статусе, который требуется операции.
// errors.Is(err, apperrors.ErrInvalidTransition) == true.
type TransitionError struct {
	AssignmentID uint
	Op           string
	Current      entity.AssignmentStatus
	Required     entity.AssignmentStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s on assignment #%d requires status %s, current status is %s",
		e.Op, e.AssignmentID, e.Required, e.Current)
}

func (e *TransitionError) Unwrap() error {
	return apperrors.ErrInvalidTransition
}

// AlreadySubmitted сообщает, что ответы по назначению уже сданы
func (e *TransitionError) AlreadySubmitted() bool {
	return e.Op == OpSubmit && e.Current.Rank() >= entity.AssignmentStatusCompleted.Rank()
}
